package camfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a camera sequence encoding.
type Format int

const (
	FormatBinary Format = iota
	FormatYAML
)

// FormatForName picks the encoding from a file name extension.
// ".yaml" and ".yml" are YAML; everything else is treated as packed binary.
func FormatForName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatBinary
	}
}

// ParseYAML decodes the authoring form of a camera sequence.
func ParseYAML(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse camera sequence YAML: %w", err)
	}
	for i := range f.Keyframes {
		if len(f.Keyframes[i].NodeName) >= NodeNameSize {
			return nil, fmt.Errorf("keyframe %d node name %q exceeds %d bytes", i, f.Keyframes[i].NodeName, NodeNameSize-1)
		}
	}
	return &f, nil
}

// EncodeYAML writes the authoring form of a camera sequence.
func EncodeYAML(f *File) ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal camera sequence YAML: %w", err)
	}
	return data, nil
}

// Decode decodes data using the encoding implied by name.
func Decode(name string, data []byte) (*File, error) {
	if FormatForName(name) == FormatYAML {
		return ParseYAML(data)
	}
	return Parse(data)
}
