// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// DefaultTapSlop 指针移动不超过该像素数时，松开视为点击而不是拖拽
const DefaultTapSlop = 6

// PointerSample 一帧的指针采样（鼠标左键或第一个触点）
type PointerSample struct {
	Pressed     bool
	JustPressed bool
	X, Y        int
	// TouchID 触摸ID（-1 表示鼠标）
	TouchID ebiten.TouchID
	IsTouch bool
}

// ReadPointer 读取当前帧的指针状态，优先检测触摸
func ReadPointer() PointerSample {
	if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
		x, y := ebiten.TouchPosition(ids[0])
		return PointerSample{Pressed: true, JustPressed: true, X: x, Y: y, TouchID: ids[0], IsTouch: true}
	}
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, y := ebiten.TouchPosition(ids[0])
		return PointerSample{Pressed: true, X: x, Y: y, TouchID: ids[0], IsTouch: true}
	}
	x, y := ebiten.CursorPosition()
	return PointerSample{
		Pressed:     ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		JustPressed: inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		X:           x,
		Y:           y,
		TouchID:     -1,
	}
}

// ============================================================================
// 拖拽状态管理器 - 预览视图平移与点选
// ============================================================================

// DragState 拖拽状态
type DragState int

const (
	// DragStateNone 无拖拽
	DragStateNone DragState = iota
	// DragStateStarted 拖拽开始（刚按下）
	DragStateStarted
	// DragStateDragging 拖拽中（按住移动）
	DragStateDragging
	// DragStateEnded 拖拽结束（释放）
	DragStateEnded
)

// DragInfo 拖拽信息
type DragInfo struct {
	State DragState
	// StartX, StartY 拖拽起始位置（屏幕坐标）
	StartX, StartY int
	// CurrentX, CurrentY 当前位置（屏幕坐标）
	CurrentX, CurrentY int
	// MovedX, MovedY 本帧相对上一帧的位移
	MovedX, MovedY int
	TouchID        ebiten.TouchID
	IsTouchInput   bool
	// Travel 拖拽期间离起点的最大距离（曼哈顿距离）
	Travel int
}

// DragManager 跟踪触摸/鼠标的拖拽状态
type DragManager struct {
	info DragInfo
	slop int
}

// NewDragManager 创建拖拽管理器，slop <= 0 时使用 DefaultTapSlop
func NewDragManager(slop int) *DragManager {
	if slop <= 0 {
		slop = DefaultTapSlop
	}
	dm := &DragManager{slop: slop}
	dm.Reset()
	return dm
}

// Update 读取指针并推进状态（每帧调用一次）
func (dm *DragManager) Update() {
	dm.Feed(ReadPointer())
}

// Feed 用一帧的采样推进状态机
func (dm *DragManager) Feed(s PointerSample) {
	dm.info.MovedX, dm.info.MovedY = 0, 0

	switch dm.info.State {
	case DragStateNone:
		dm.checkDragStart(s)

	case DragStateStarted, DragStateDragging:
		if dm.checkDragEnd(s) {
			dm.info.State = DragStateEnded
			return
		}
		dm.info.State = DragStateDragging
		dm.updateCurrentPosition(s)

	case DragStateEnded:
		// 结束状态只持续一帧；同一帧再次按下时直接开始新的拖拽
		dm.Reset()
		dm.checkDragStart(s)
	}
}

func (dm *DragManager) checkDragStart(s PointerSample) {
	if !s.JustPressed {
		return
	}
	dm.info = DragInfo{
		State:        DragStateStarted,
		StartX:       s.X,
		StartY:       s.Y,
		CurrentX:     s.X,
		CurrentY:     s.Y,
		TouchID:      s.TouchID,
		IsTouchInput: s.IsTouch,
	}
}

func (dm *DragManager) checkDragEnd(s PointerSample) bool {
	if !s.Pressed {
		return true
	}
	// 另一个输入源接管时视为结束
	return s.IsTouch != dm.info.IsTouchInput || (s.IsTouch && s.TouchID != dm.info.TouchID)
}

func (dm *DragManager) updateCurrentPosition(s PointerSample) {
	dm.info.MovedX = s.X - dm.info.CurrentX
	dm.info.MovedY = s.Y - dm.info.CurrentY
	dm.info.CurrentX, dm.info.CurrentY = s.X, s.Y

	dx, dy := dm.GetDragDistance()
	if d := abs(dx) + abs(dy); d > dm.info.Travel {
		dm.info.Travel = d
	}
}

// Reset 重置拖拽状态
func (dm *DragManager) Reset() {
	dm.info = DragInfo{
		State:   DragStateNone,
		TouchID: -1,
	}
}

// GetState 获取当前拖拽状态
func (dm *DragManager) GetState() DragState {
	return dm.info.State
}

// GetInfo 获取完整拖拽信息
func (dm *DragManager) GetInfo() DragInfo {
	return dm.info
}

// IsDragging 是否正在拖拽（已超出点击容差）
func (dm *DragManager) IsDragging() bool {
	return dm.info.State == DragStateDragging && dm.info.Travel > dm.slop
}

// JustEnded 是否刚结束拖拽（本帧）
func (dm *DragManager) JustEnded() bool {
	return dm.info.State == DragStateEnded
}

// IsTap 本帧松开且全程未超出点击容差
func (dm *DragManager) IsTap() bool {
	return dm.JustEnded() && dm.info.Travel <= dm.slop
}

// GetDragDistance 获取拖拽距离（从起点到当前位置）
func (dm *DragManager) GetDragDistance() (dx, dy int) {
	return dm.info.CurrentX - dm.info.StartX, dm.info.CurrentY - dm.info.StartY
}

// PanDelta 本帧应当平移视图的像素数（点击容差内返回 0）
func (dm *DragManager) PanDelta() (dx, dy int) {
	if !dm.IsDragging() {
		return 0, 0
	}
	return dm.info.MovedX, dm.info.MovedY
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
