// Package main renders a top-down plot of camera sequence paths.
//
// Usage:
//
//	go run ./cmd/camseq_plot [flags]
//
// Flags:
//
//	--config <path>     Engine config (default: data/camseq_config.yaml)
//	--scene <path>      Preview scene providing rooms and entities (default: data/preview_scene.yaml)
//	--sequences <ids>   Comma separated sequence IDs (default: every trigger in the scene)
//	--backdrop <path>   PNG, JPEG or TGA image drawn under the plot
//	--out <path>        Output file, .webp or .png (default: camseq_plot.webp)
//	--width, --height   Canvas size
//	--verbose           Enable verbose logging
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/decker502/camseq/internal/pathplot"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/game"
	"github.com/decker502/camseq/pkg/scenes"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

var (
	configFlag    = flag.String("config", "data/camseq_config.yaml", "Engine config path")
	sceneFlag     = flag.String("scene", "data/preview_scene.yaml", "Preview scene path")
	sequencesFlag = flag.String("sequences", "", "Comma separated sequence IDs")
	backdropFlag  = flag.String("backdrop", "", "Backdrop image (png, jpeg, tga)")
	outFlag       = flag.String("out", "camseq_plot.webp", "Output file (.webp or .png)")
	widthFlag     = flag.Int("width", pathplot.DefaultWidth, "Canvas width")
	heightFlag    = flag.Int("height", pathplot.DefaultHeight, "Canvas height")
	verboseFlag   = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "camseq_plot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	camCfg, err := config.LoadCamSeqConfig(*configFlag)
	if err != nil {
		return err
	}
	sceneCfg, err := config.LoadPreviewSceneConfig(*sceneFlag)
	if err != nil {
		return err
	}
	source, err := sequence.NewConfiguredSource(camCfg)
	if err != nil {
		return err
	}
	catalog := sequence.NewCatalog(source, camCfg)

	scene, err := scenes.NewPreviewScene(sceneCfg, camCfg, catalog, game.NewGameState(nil))
	if err != nil {
		return err
	}

	ids, err := parseIDs(*sequencesFlag)
	if err != nil {
		return err
	}
	labels := make(map[int]string)
	if len(ids) == 0 {
		for _, t := range sceneCfg.Triggers {
			if _, seen := labels[t.Sequence]; !seen {
				ids = append(ids, t.Sequence)
			}
			labels[t.Sequence] = t.Name
		}
	}

	var tracks []pathplot.Track
	for _, id := range ids {
		def, err := catalog.Get(id)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%d", id)
		if name, ok := labels[id]; ok {
			label = fmt.Sprintf("%d %s", id, name)
		}
		samples := scene.PathFor(def)
		tracks = append(tracks, pathplot.Track{Label: label, Samples: samples})
		fmt.Printf("sequence %-4d %3d keyframes %6.2fs %5d samples\n", id, def.Len(), def.Duration(), len(samples))
	}

	regions := make([]pathplot.Region, 0, len(sceneCfg.Regions))
	for _, r := range sceneCfg.Regions {
		regions = append(regions, pathplot.Region{Name: r.Name, Min: vecmath.Vec3(r.Min), Max: vecmath.Vec3(r.Max)})
	}

	opts := pathplot.Options{Width: *widthFlag, Height: *heightFlag}
	if *backdropFlag != "" {
		if opts.Backdrop, err = pathplot.LoadBackdrop(*backdropFlag); err != nil {
			return err
		}
	}

	img := pathplot.Render(tracks, regions, opts)
	if err := pathplot.Save(*outFlag, img); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *outFlag)
	return nil
}

func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid sequence id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
