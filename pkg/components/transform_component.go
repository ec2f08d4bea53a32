package components

import "github.com/decker502/camseq/pkg/vecmath"

// TransformComponent 实体的世界变换。
// 镜头关键帧可以引用实体，按其位置或完整坐标系解算镜头位置。
type TransformComponent struct {
	Position vecmath.Vec3
	Up       vecmath.Vec3
	Forward  vecmath.Vec3

	// Velocity 上一 tick 的位移速度（单位/秒），非零表示实体在移动
	Velocity vecmath.Vec3

	// Node 实体当前所在区域
	Node NodeTag
}

// NewTransform 创建 Y 轴向上、朝 +Z 的变换
func NewTransform(pos vecmath.Vec3) *TransformComponent {
	return &TransformComponent{
		Position: pos,
		Up:       vecmath.WorldUp,
		Forward:  vecmath.Forward,
	}
}

// IsMoving 实体是否在移动
func (t *TransformComponent) IsMoving() bool {
	return t.Velocity.Len() > vecmath.Epsilon
}
