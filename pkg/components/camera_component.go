package components

import (
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/vecmath"
)

// NodeTag 镜头所在的区域（房间/节点）标识，用于可见性裁剪。
// 0 表示未知区域。
type NodeTag int32

// NoNode 未知区域
const NoNode NodeTag = 0

// CameraState 是渲染层持有的实时镜头数据。
// 镜头序列播放期间借用该结构的指针并每 tick 改写；结构体可以直接值拷贝，
// 因此快照/恢复是精确的。
type CameraState struct {
	Position     vecmath.Vec3
	PrevPosition vecmath.Vec3
	Target       vecmath.Vec3
	Up           vecmath.Vec3
	Facing       vecmath.Vec3

	// Fov 完整视角（度），关键帧中存储的是半角
	Fov float64

	// Shake 本帧的震屏强度，每 tick 开始时清零
	Shake float64

	Node NodeTag
}

// NewCameraState 创建位于 pos、朝向 target 的镜头
func NewCameraState(pos, target vecmath.Vec3, fov float64) CameraState {
	return CameraState{
		Position:     pos,
		PrevPosition: pos,
		Target:       target,
		Up:           vecmath.WorldUp,
		Facing:       target.Sub(pos).NormalizeOr(vecmath.Forward),
		Fov:          fov,
	}
}

// CameraComponent 管理游戏镜头的实时状态和跟随动画。
// 没有过场序列占用镜头时，CameraSystem 用它实现平滑跟随和 MoveTo 动画。
type CameraComponent struct {
	// State 实时镜头数据（过场序列借用 &State）
	State CameraState

	// FollowEntity 跟随的实体（0 表示不跟随）
	FollowEntity ecs.EntityID

	// FollowOffset 跟随时相对实体的镜头偏移
	FollowOffset vecmath.Vec3

	// TargetPos 动画目标位置（世界坐标）
	TargetPos vecmath.Vec3

	// LookAt 动画期间镜头注视点
	LookAt vecmath.Vec3

	// AnimationSpeed 动画速度（单位/秒）
	AnimationSpeed float64

	// IsAnimating 是否正在动画中
	IsAnimating bool

	// EasingType 缓动类型：
	// - "linear": 线性运动
	// - "easeInOut": 二次缓动（先加速后减速）
	// - "easeOut": 减速运动
	EasingType string

	// StartPos 动画起始位置（用于计算进度）
	StartPos vecmath.Vec3

	// TotalDistance 总移动距离（用于计算进度）
	TotalDistance float64

	// Traveled 已移动距离
	Traveled float64
}
