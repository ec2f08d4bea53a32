// Package app 提供过场镜头预览器的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/game"
	"github.com/decker502/camseq/pkg/scenes"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// 默认配置路径
const (
	DefaultConfigPath = "data/camseq_config.yaml"
	DefaultScenePath  = "data/preview_scene.yaml"

	// SettingsAppName gdata 存储的应用名
	SettingsAppName = "camseq_preview"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 引擎配置路径，为空使用 DefaultConfigPath
	ConfigPath string
	// ScenePath 预览场景配置路径，为空使用 DefaultScenePath
	ScenePath string
	// Trigger 启动时选中的触发器名称，为空则恢复上次的选择
	Trigger string
}

// App 是预览器的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *game.SceneManager
	settings                 *game.SettingsManager
	timebase                 config.Timebase
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化预览应用
//
// 调用此函数前，应先调用 embedded.Init() 初始化嵌入资源；
// 未初始化时所有路径从磁盘读取。
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfigPath
	}
	if cfg.ScenePath == "" {
		cfg.ScenePath = DefaultScenePath
	}

	camCfg, err := config.LoadCamSeqConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("引擎配置加载失败: %w", err)
	}
	log.Printf("[Config] Loaded %s: %d sequences, cache policy %s", cfg.ConfigPath, len(camCfg.Sequences), camCfg.CachePolicy)

	source, err := sequence.NewConfiguredSource(camCfg)
	if err != nil {
		return nil, fmt.Errorf("序列目录初始化失败: %w", err)
	}
	catalog := sequence.NewCatalog(source, camCfg)

	settings := game.OpenSettingsManager(SettingsAppName)
	if cfg.Trigger != "" {
		settings.SetLastSelection(cfg.Trigger, 0)
	}
	gameState := game.NewGameState(settings)

	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func(path string) (game.Scene, error) {
		sceneCfg, err := config.LoadPreviewSceneConfig(path)
		if err != nil {
			return nil, err
		}
		// 重新加载时清空缓存，确保读取到修改后的序列文件
		catalog.Purge()
		return scenes.NewPreviewScene(sceneCfg, camCfg, catalog, gameState)
	})
	if err := sceneManager.LoadScene(cfg.ScenePath); err != nil {
		return nil, fmt.Errorf("预览场景加载失败: %w", err)
	}

	timebase := camCfg.TimebaseHelper()
	ebiten.SetTPS(timebase.TicksPerSecond)
	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return &App{
		sceneManager: sceneManager,
		settings:     settings,
		timebase:     timebase,
		verbose:      cfg.Verbose,
	}, nil
}

// Update 更新预览逻辑
// 每个 tick 调用一次
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(scenes.ScreenWidth, scenes.ScreenHeight)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", scenes.ScreenWidth, scenes.ScreenHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
		a.settings.SetFullscreen(ebiten.IsFullscreen())
	}

	// F5 重新加载场景和序列文件
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := a.sceneManager.Reload(); err != nil {
			log.Printf("[App] Warning: reload failed: %v", err)
		}
	}

	a.sceneManager.Update(a.timebase.TickSeconds())
	return nil
}

// Draw 绘制预览画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return scenes.ScreenWidth, scenes.ScreenHeight
}

// GetSceneManager 返回场景管理器
// 用于在窗口关闭时保存设置
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
