// Package main is the camera sequence previewer.
//
// Usage:
//
//	go run . [flags]
//
// Flags:
//
//	--config <path>    Engine config (default: data/camseq_config.yaml)
//	--scene <path>     Preview scene (default: data/preview_scene.yaml)
//	--trigger <name>   Trigger selected at startup
//	--disk             Read data/ from the working directory instead of the binary
//	--verbose          Enable verbose logging
//
// Controls:
//
//	WASD/Arrows  Move the player
//	Tab          Select next trigger (Shift+Tab previous)
//	Enter        Play the selected trigger
//	Backspace    Hand off the selected trigger
//	C            Cancel the active sequence
//	Space / .    Pause / single step
//	+ / -        Playback speed
//	P / R / F    Toggle path, rooms, player form
//	F5           Reload scene and sequence files
//	F11          Fullscreen
package main

import (
	"flag"
	"log"

	"github.com/decker502/camseq/pkg/app"
	"github.com/decker502/camseq/pkg/embedded"
	"github.com/decker502/camseq/pkg/game"
	"github.com/decker502/camseq/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	configFlag  = flag.String("config", app.DefaultConfigPath, "Engine config path")
	sceneFlag   = flag.String("scene", app.DefaultScenePath, "Preview scene path")
	triggerFlag = flag.String("trigger", "", "Trigger selected at startup")
	diskFlag    = flag.Bool("disk", false, "Read data/ from the working directory")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	if !*diskFlag {
		embedded.Init(dataFS)
	}

	previewApp, err := app.NewApp(app.Config{
		Verbose:    *verboseFlag,
		ConfigPath: *configFlag,
		ScenePath:  *sceneFlag,
		Trigger:    *triggerFlag,
	})
	if err != nil {
		log.Fatalf("预览器初始化失败: %v", err)
	}

	ebiten.SetWindowSize(scenes.ScreenWidth, scenes.ScreenHeight)
	ebiten.SetWindowTitle("Camera Sequence Preview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(previewApp)

	// 窗口关闭时保存预览设置
	if saveable, ok := previewApp.GetSceneManager().GetCurrentScene().(game.Saveable); ok {
		saveable.SaveOnExit()
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}
