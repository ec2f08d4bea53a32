package components

import (
	"math"

	"github.com/decker502/camseq/pkg/vecmath"
)

// OrbitComponent 让实体绕中心点做水平圆周运动（预览场景中的移动目标）
type OrbitComponent struct {
	Center       vecmath.Vec3
	Radius       float64
	AngularSpeed float64 // 弧度/秒，0 表示静止
	Angle        float64 // 当前角度（弧度）
}

// Position 当前角度对应的位置（XZ 平面）
func (o *OrbitComponent) Position() vecmath.Vec3 {
	return vecmath.Vec3{
		o.Center[0] + o.Radius*math.Cos(o.Angle),
		o.Center[1],
		o.Center[2] + o.Radius*math.Sin(o.Angle),
	}
}
