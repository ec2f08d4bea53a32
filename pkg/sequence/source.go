package sequence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/decker502/camseq/internal/camfile"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/embedded"
)

// ErrUnknownSequence is returned for ids missing from the file table.
var ErrUnknownSequence = errors.New("unknown camera sequence")

// Source produces the raw keyframe file for a sequence id.
type Source interface {
	Load(id int) (*camfile.File, error)
}

// FSSource reads sequence files from a file system using an id -> name table.
// Names ending in .yaml/.yml are decoded as YAML, anything else as packed binary.
type FSSource struct {
	fsys  fs.FS
	files map[int]string
}

// NewFSSource creates a source over fsys. files maps sequence ids to paths
// relative to the root of fsys.
func NewFSSource(fsys fs.FS, files map[int]string) *FSSource {
	table := make(map[int]string, len(files))
	for id, name := range files {
		table[id] = name
	}
	return &FSSource{fsys: fsys, files: table}
}

// Load implements Source.
func (s *FSSource) Load(id int) (*camfile.File, error) {
	name, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSequence, id)
	}
	name = path.Clean(name)
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence %d (%s): %w", id, name, err)
	}
	f, err := camfile.Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sequence %d (%s): %w", id, name, err)
	}
	return f, nil
}

// FileName returns the table entry for id.
func (s *FSSource) FileName(id int) (string, bool) {
	name, ok := s.files[id]
	return name, ok
}

// NewConfiguredSource builds the source described by cfg: SequenceDir inside
// the embedded data when it is present there, otherwise the same directory on disk.
func NewConfiguredSource(cfg *config.CamSeqConfig) (*FSSource, error) {
	if embedded.IsInitialized() && embedded.Exists(cfg.SequenceDir) {
		fsys, err := embedded.Sub(cfg.SequenceDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded sequence dir %s: %w", cfg.SequenceDir, err)
		}
		return NewFSSource(fsys, cfg.Sequences), nil
	}
	if _, err := os.Stat(cfg.SequenceDir); err != nil {
		return nil, fmt.Errorf("sequence dir %s: %w", cfg.SequenceDir, err)
	}
	return NewFSSource(os.DirFS(cfg.SequenceDir), cfg.Sequences), nil
}
