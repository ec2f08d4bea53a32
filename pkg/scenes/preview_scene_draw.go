package scenes

import (
	"fmt"
	"image/color"
	"math"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/systems"
	"github.com/decker502/camseq/pkg/utils"
	"github.com/decker502/camseq/pkg/vecmath"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// 预览窗口尺寸
const (
	ScreenWidth  = 960
	ScreenHeight = 720

	viewMargin = 40
	hudHeight  = 110
)

var (
	backgroundColor = color.RGBA{24, 26, 32, 255}
	regionColor     = color.RGBA{70, 90, 120, 255}
	regionFillColor = color.RGBA{40, 50, 66, 255}
	triggerColor    = color.RGBA{220, 180, 60, 255}
	selectedColor   = color.RGBA{255, 120, 60, 255}
	entityColor     = color.RGBA{120, 200, 140, 255}
	playerColor     = color.RGBA{90, 160, 255, 255}
	cameraColor     = color.RGBA{255, 255, 255, 255}
	pathColor       = color.RGBA{200, 90, 200, 255}
	hudTextColor    = color.RGBA{230, 230, 230, 255}
)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

const (
	keyboardHelp = "WASD move  Tab/click select  Enter play  Bksp hand off  C cancel  Space pause  . step  +/- speed  P R F toggles  drag pan"
	touchHelp    = "tap select  tap again play  drag pan"
)

// viewTransform 把世界 XZ 平面映射到屏幕（+Z 朝上）
type viewTransform struct {
	minX, minZ float64
	scale      float64
	height     float64
	// panX, panY 拖拽产生的屏幕偏移
	panX, panY float64
}

func newViewTransform(cfg *config.PreviewSceneConfig) viewTransform {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	grow := func(x, z float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minZ, maxZ = math.Min(minZ, z), math.Max(maxZ, z)
	}
	for _, r := range cfg.Regions {
		grow(r.Min[0], r.Min[2])
		grow(r.Max[0], r.Max[2])
	}
	for _, t := range cfg.Triggers {
		grow(t.Position[0]-t.Radius, t.Position[2]-t.Radius)
		grow(t.Position[0]+t.Radius, t.Position[2]+t.Radius)
	}
	grow(cfg.Player.Position[0], cfg.Player.Position[2])
	grow(cfg.Camera.Position[0], cfg.Camera.Position[2])

	w, h := maxX-minX, maxZ-minZ
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	viewW := float64(ScreenWidth - 2*viewMargin)
	viewH := float64(ScreenHeight - hudHeight - 2*viewMargin)
	return viewTransform{
		minX:   minX,
		minZ:   minZ,
		scale:  math.Min(viewW/w, viewH/h),
		height: viewH,
	}
}

// toScreen 世界坐标 → 屏幕坐标
func (v viewTransform) toScreen(p vecmath.Vec3) (float32, float32) {
	x := viewMargin + (p[0]-v.minX)*v.scale + v.panX
	y := hudHeight + viewMargin + v.height - (p[2]-v.minZ)*v.scale + v.panY
	return float32(x), float32(y)
}

// toWorld 屏幕坐标 → 世界 XZ 平面（Y 为 0）
func (v viewTransform) toWorld(x, y float64) vecmath.Vec3 {
	wx := (x-viewMargin-v.panX)/v.scale + v.minX
	wz := (hudHeight+viewMargin+v.height+v.panY-y)/v.scale + v.minZ
	return vecmath.Vec3{wx, 0, wz}
}

// Draw 绘制俯视图、序列路径、HUD 和淡入淡出遮罩
func (s *PreviewScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	settings := s.settings.GetSettings()

	if settings.ShowRegions {
		s.drawRegions(screen)
	}
	s.drawTriggers(screen)
	s.drawEntities(screen)
	if settings.ShowPath {
		if c, _, ok := s.SelectedController(); ok {
			s.drawPath(screen, s.PathFor(c.Engine().Definition()))
		}
	}
	s.drawCamera(screen)
	s.drawFade(screen)
	s.drawHUD(screen)
}

func (s *PreviewScene) drawRegions(screen *ebiten.Image) {
	for _, id := range ecs.GetEntitiesWith1[*components.NodeRegionComponent](s.entityManager) {
		r, _ := ecs.GetComponent[*components.NodeRegionComponent](s.entityManager, id)
		x0, y0 := s.view.toScreen(vecmath.Vec3{r.Min[0], 0, r.Max[2]})
		x1, y1 := s.view.toScreen(vecmath.Vec3{r.Max[0], 0, r.Min[2]})
		fill := regionFillColor
		if r.Tag == s.room {
			fill = color.RGBA{52, 64, 84, 255}
		}
		vector.DrawFilledRect(screen, x0, y0, x1-x0, y1-y0, fill, false)
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, regionColor, false)
		s.drawLabel(screen, r.Name, float64(x0)+4, float64(y0)+4, regionColor)
	}
}

func (s *PreviewScene) drawTriggers(screen *ebiten.Image) {
	_, selected, _ := s.SelectedController()
	for _, id := range ecs.GetEntitiesWith1[*components.CutsceneTriggerComponent](s.entityManager) {
		t, _ := ecs.GetComponent[*components.CutsceneTriggerComponent](s.entityManager, id)
		x, y := s.view.toScreen(t.Position)
		clr := triggerColor
		if t.Name == selected {
			clr = selectedColor
		}
		if t.Radius > 0 {
			vector.StrokeCircle(screen, x, y, float32(t.Radius*s.view.scale), 1, clr, true)
		}
		vector.DrawFilledRect(screen, x-3, y-3, 6, 6, clr, false)

		label := t.Name
		if c, ok := s.triggerSystem.Controller(id); ok {
			label = fmt.Sprintf("%s [%s]", t.Name, c.State())
		}
		s.drawLabel(screen, label, float64(x)+6, float64(y)-16, clr)
	}
}

func (s *PreviewScene) drawEntities(screen *ebiten.Image) {
	for _, id := range ecs.GetEntitiesWith2[*components.EntityRefComponent, *components.TransformComponent](s.entityManager) {
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		ref, _ := ecs.GetComponent[*components.EntityRefComponent](s.entityManager, id)
		x, y := s.view.toScreen(tr.Position)
		vector.DrawFilledCircle(screen, x, y, 5, entityColor, true)
		fx, fy := s.view.toScreen(tr.Position.Add(tr.Forward.Scale(12 / s.view.scale)))
		vector.StrokeLine(screen, x, y, fx, fy, 1, entityColor, true)
		s.drawLabel(screen, fmt.Sprintf("%d:%d", ref.Kind, ref.ID), float64(x)+6, float64(y)+2, entityColor)
	}

	if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.player); ok {
		x, y := s.view.toScreen(tr.Position)
		vector.DrawFilledCircle(screen, x, y, 6, playerColor, true)
	}
}

func (s *PreviewScene) drawPath(screen *ebiten.Image, path []systems.PathSample) {
	for i := 1; i < len(path); i++ {
		x0, y0 := s.view.toScreen(path[i-1].State.Position)
		x1, y1 := s.view.toScreen(path[i].State.Position)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, pathColor, true)
	}
	// 关键帧切换处标记
	for i := 1; i < len(path); i++ {
		if path[i].Keyframe != path[i-1].Keyframe {
			x, y := s.view.toScreen(path[i].State.Position)
			vector.StrokeCircle(screen, x, y, 4, 1, pathColor, true)
		}
	}
}

// drawCamera 画出镜头位置、朝向和水平视角
func (s *PreviewScene) drawCamera(screen *ebiten.Image) {
	cam := s.Camera()
	x, y := s.view.toScreen(cam.Position)
	vector.DrawFilledCircle(screen, x, y, 4, cameraColor, true)

	facing := vecmath.Vec3{cam.Facing[0], 0, cam.Facing[2]}.NormalizeOr(vecmath.Forward)
	half := cam.Fov / 2 * math.Pi / 180
	reach := 60 / s.view.scale
	for _, a := range []float64{-half, half} {
		dir := rotateY(facing, a)
		ex, ey := s.view.toScreen(cam.Position.Add(dir.Scale(reach)))
		vector.StrokeLine(screen, x, y, ex, ey, 1, cameraColor, true)
	}
	tx, ty := s.view.toScreen(cam.Target)
	vector.StrokeLine(screen, x, y, tx, ty, 1, color.RGBA{255, 255, 255, 96}, true)
}

func rotateY(v vecmath.Vec3, angle float64) vecmath.Vec3 {
	sin, cos := math.Sincos(angle)
	return vecmath.Vec3{v[0]*cos + v[2]*sin, v[1], -v[0]*sin + v[2]*cos}
}

func (s *PreviewScene) drawFade(screen *ebiten.Image) {
	fade := s.gameState.Fade()
	if !fade.Active() {
		return
	}
	var clr color.RGBA
	if fade.Kind == sequence.FadeWhite {
		clr = color.RGBA{255, 255, 255, 255}
	}
	clr.A = uint8(fade.Alpha() * 255)
	vector.DrawFilledRect(screen, 0, hudHeight, ScreenWidth, ScreenHeight-hudHeight, premultiply(clr), false)
}

func premultiply(c color.RGBA) color.RGBA {
	a := uint16(c.A)
	return color.RGBA{uint8(uint16(c.R) * a / 255), uint8(uint16(c.G) * a / 255), uint8(uint16(c.B) * a / 255), c.A}
}

func (s *PreviewScene) drawHUD(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, ScreenWidth, hudHeight, color.RGBA{12, 12, 16, 255}, false)
	for i, line := range s.HUDLines() {
		s.drawLabel(screen, line, 10, float64(8+i*15), hudTextColor)
	}
}

// HUDLines 状态栏文本
func (s *PreviewScene) HUDLines() []string {
	settings := s.settings.GetSettings()
	cam := s.Camera()

	status := "idle"
	if active := s.triggerSystem.Active(); active != nil {
		e := active.Engine()
		timer, total := e.Transition()
		status = fmt.Sprintf("seq %d %s kf %d/%d t=%.2fs transition %d/%d",
			e.SequenceID(), e.Phase(), e.KeyframeIndex(), e.Definition().Len(), e.Elapsed(), timer, total)
	}

	selected := "-"
	if c, name, ok := s.SelectedController(); ok {
		selected = fmt.Sprintf("%s (seq %d, %s)", name, c.Engine().SequenceID(), c.State())
	}

	form := "biped"
	if s.gameState.IsAltForm() {
		form = "alt"
	}
	if s.gameState.FormOverridden() {
		form += " (forced)"
	}

	lines := []string{
		fmt.Sprintf("%s  tick %d  speed x%.2f  room %d  form %s", s.sceneCfg.Name, s.ticks, settings.PlaybackSpeed, s.room, form),
		fmt.Sprintf("camera pos (%.1f, %.1f, %.1f) fov %.1f node %d", cam.Position[0], cam.Position[1], cam.Position[2], cam.Fov, cam.Node),
		"active: " + status,
		"selected: " + selected,
		fmt.Sprintf("messages %d  input blocked %v", s.gameState.MessageCount(), s.triggerSystem.BlockInput()),
		keyboardHelp,
	}
	if utils.IsMobile() {
		lines[5] = touchHelp
	}
	if s.paused {
		lines[0] += "  [PAUSED]"
	}
	return lines
}

func (s *PreviewScene) drawLabel(screen *ebiten.Image, str string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, str, hudFace, op)
}
