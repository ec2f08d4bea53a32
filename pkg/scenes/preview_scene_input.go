package scenes

import (
	"log"

	"github.com/decker502/camseq/pkg/vecmath"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PreviewInput 一帧内读取到的预览操作
type PreviewInput struct {
	// Move 玩家移动方向（XZ 平面，未归一化）
	Move vecmath.Vec3

	TogglePause   bool
	StepOnce      bool
	NextTrigger   bool
	PrevTrigger   bool
	Activate      bool // 激活选中的触发器
	Deactivate    bool // 对选中的触发器调用 SetActive(false)，开始交接倒计时
	CancelAll     bool
	SpeedUp       bool
	SpeedDown     bool
	TogglePath    bool
	ToggleRegions bool
	ToggleForm    bool

	// Pan 拖拽平移视图的像素数
	Pan [2]float64
	// Tap 本帧的点击位置（屏幕坐标）
	Tap        bool
	TapX, TapY float64
}

// readInput 读取键盘和指针输入
func (s *PreviewScene) readInput() PreviewInput {
	in := readPreviewInput()
	s.drag.Update()
	dx, dy := s.drag.PanDelta()
	in.Pan = [2]float64{float64(dx), float64(dy)}
	if s.drag.IsTap() {
		info := s.drag.GetInfo()
		in.Tap, in.TapX, in.TapY = true, float64(info.CurrentX), float64(info.CurrentY)
	}
	return in
}

// readPreviewInput 从键盘读取输入
func readPreviewInput() PreviewInput {
	var in PreviewInput
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		in.Move[2]++
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		in.Move[2]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		in.Move[0]++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		in.Move[0]--
	}

	in.TogglePause = inpututil.IsKeyJustPressed(ebiten.KeySpace)
	in.StepOnce = inpututil.IsKeyJustPressed(ebiten.KeyPeriod)
	in.NextTrigger = inpututil.IsKeyJustPressed(ebiten.KeyTab) && !ebiten.IsKeyPressed(ebiten.KeyShift)
	in.PrevTrigger = inpututil.IsKeyJustPressed(ebiten.KeyTab) && ebiten.IsKeyPressed(ebiten.KeyShift)
	in.Activate = inpututil.IsKeyJustPressed(ebiten.KeyEnter)
	in.Deactivate = inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
	in.CancelAll = inpututil.IsKeyJustPressed(ebiten.KeyC)
	in.SpeedUp = inpututil.IsKeyJustPressed(ebiten.KeyEqual)
	in.SpeedDown = inpututil.IsKeyJustPressed(ebiten.KeyMinus)
	in.TogglePath = inpututil.IsKeyJustPressed(ebiten.KeyP)
	in.ToggleRegions = inpututil.IsKeyJustPressed(ebiten.KeyR)
	in.ToggleForm = inpututil.IsKeyJustPressed(ebiten.KeyF)
	return in
}

// applyInput 执行一帧的预览操作。
// 与键盘和指针读取分离，测试可以直接构造 PreviewInput。
func (s *PreviewScene) applyInput(in PreviewInput, deltaTime float64) {
	settings := s.settings.GetSettings()

	if in.TogglePause {
		s.paused = !s.paused
		log.Printf("[PreviewScene] Paused: %v", s.paused)
	}
	if in.StepOnce && s.paused {
		s.Step()
	}
	if in.NextTrigger {
		s.selectNext(1)
	}
	if in.PrevTrigger {
		s.selectNext(-1)
	}

	if in.Tap {
		s.tapAt(in.TapX, in.TapY)
	}
	s.view.panX += in.Pan[0]
	s.view.panY += in.Pan[1]

	if in.Activate {
		s.activateSelected()
	}
	if c, _, ok := s.SelectedController(); ok && in.Deactivate {
		c.SetActive(false)
	}
	if in.CancelAll {
		s.triggerSystem.CancelAll()
	}

	if in.SpeedUp {
		s.settings.SetPlaybackSpeed(settings.PlaybackSpeed * 2)
	}
	if in.SpeedDown {
		s.settings.SetPlaybackSpeed(settings.PlaybackSpeed / 2)
	}
	if in.TogglePath {
		s.settings.SetShowPath(!settings.ShowPath)
	}
	if in.ToggleRegions {
		s.settings.SetShowRegions(!settings.ShowRegions)
	}
	if in.ToggleForm {
		if !s.gameState.SetAltForm(!s.gameState.IsAltForm()) {
			log.Printf("[PreviewScene] Form change refused: form is overridden by a sequence")
		}
	}

	if !s.paused {
		s.movePlayer(in.Move, deltaTime)
	}
}

// activateSelected 激活当前选中的触发器
func (s *PreviewScene) activateSelected() {
	c, name, ok := s.SelectedController()
	if !ok {
		return
	}
	if c.SetActive(true) {
		log.Printf("[PreviewScene] Activated trigger %q", name)
	} else {
		log.Printf("[PreviewScene] Trigger %q refused activation (state %s)", name, c.State())
	}
}
