// Package main inspects and converts camera sequence files.
//
// Usage:
//
//	go run ./cmd/camseq_inspect dump <file>
//	go run ./cmd/camseq_inspect convert <in> <out>
//	go run ./cmd/camseq_inspect check [--config data/camseq_config.yaml]
//
// dump prints the keyframe table of a .bin or .yaml sequence.
// convert translates between the packed binary and YAML forms; the output
// format is chosen from the output extension.
// check loads every sequence listed in the engine config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/decker502/camseq/internal/camfile"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/sequence"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "dump":
		err = dumpCmd(os.Args[2:], os.Stdout)
	case "convert":
		err = convertCmd(os.Args[2:], os.Stdout)
	case "check":
		err = checkCmd(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "camseq_inspect: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: camseq_inspect dump <file> | convert <in> <out> | check [--config path]")
}

func readSequence(path string) (*camfile.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f, err := camfile.Decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return f, nil
}

func dumpCmd(args []string, w io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("dump takes exactly one file")
	}
	f, err := readSequence(args[0])
	if err != nil {
		return err
	}
	return dump(w, args[0], f, config.NewTimebase(60, 30))
}

// dump 打印关键帧表
func dump(w io.Writer, name string, f *camfile.File, tb config.Timebase) error {
	def := sequence.FromFile(0, f, tb, false)
	fmt.Fprintf(w, "%s: version %d, %d keyframes, %.2fs\n", name, f.Version, len(f.Keyframes), def.Duration())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tposition\ttoTarget\tfov\troll\thold\tmove\tinfl\tnode\tpos/target ent\tmessage")
	for i, r := range f.Keyframes {
		msg := "-"
		if r.MessageID != 0 {
			msg = fmt.Sprintf("%d(%d) -> %d:%d", r.MessageID, r.MessageParam, r.MessageTarget.Type, r.MessageTarget.ID)
		}
		node := r.NodeName
		if node == "" {
			node = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%d\t%d\t%d/%d\t%s\t%s %s\t%s\n",
			i, vec(r.Position), vec(r.ToTarget), r.Fov, r.Roll, r.HoldTime, r.MoveTime,
			r.PrevFrameInfluence, r.AfterFrameInfluence, node,
			ref(r.PositionEntity), ref(r.TargetEntity), msg)
	}
	return tw.Flush()
}

func vec(v [3]float64) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}

func ref(r camfile.EntityRef) string {
	if r.Type == 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%d", r.Type, r.ID)
}

func convertCmd(args []string, w io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("convert takes an input and an output file")
	}
	return convert(args[0], args[1], w)
}

// convert 在二进制和 YAML 之间转换，格式由扩展名决定
func convert(in, out string, w io.Writer) error {
	f, err := readSequence(in)
	if err != nil {
		return err
	}

	var data []byte
	if camfile.FormatForName(out) == camfile.FormatYAML {
		data, err = camfile.EncodeYAML(f)
	} else {
		data, err = camfile.Encode(f)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(w, "%s -> %s (%d keyframes, %d bytes)\n", in, out, len(f.Keyframes), len(data))
	return nil
}

func checkCmd(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "data/camseq_config.yaml", "Engine config path")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadCamSeqConfig(*configPath)
	if err != nil {
		return err
	}
	return check(cfg, w)
}

// check 并发加载配置中的所有序列
func check(cfg *config.CamSeqConfig, w io.Writer) error {
	source, err := sequence.NewConfiguredSource(cfg)
	if err != nil {
		return err
	}
	catalog := sequence.NewCatalog(source, cfg)
	ids := cfg.SequenceIDs()
	if err := catalog.Preload(context.Background(), ids); err != nil {
		return err
	}
	for _, id := range ids {
		def, err := catalog.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "sequence %-4d %-24s %3d keyframes %6.2fs loop=%v\n", id, cfg.Sequences[id], def.Len(), def.Duration(), def.Loop)
	}
	fmt.Fprintf(w, "%d sequences OK\n", len(ids))
	return nil
}
