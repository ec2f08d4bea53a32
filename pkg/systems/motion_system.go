package systems

import (
	"math"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/vecmath"
)

// MotionSystem 推进绕圈运动的实体，更新位置、朝向、速度和所在区域。
// 过场关键帧引用这些实体时，镜头会跟着它们移动。
type MotionSystem struct {
	entityManager *ecs.EntityManager
	nodes         NodeResolver
}

// NewMotionSystem 创建运动系统。nodes 可为 nil（不更新区域）。
func NewMotionSystem(em *ecs.EntityManager, nodes NodeResolver) *MotionSystem {
	return &MotionSystem{entityManager: em, nodes: nodes}
}

// Update 推进 dt 秒
func (ms *MotionSystem) Update(dt float64) {
	for _, id := range ecs.GetEntitiesWith2[*components.OrbitComponent, *components.TransformComponent](ms.entityManager) {
		orbit, _ := ecs.GetComponent[*components.OrbitComponent](ms.entityManager, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](ms.entityManager, id)

		prev := tr.Position
		if orbit.AngularSpeed != 0 {
			orbit.Angle = math.Mod(orbit.Angle+orbit.AngularSpeed*dt, 2*math.Pi)
		}
		tr.Position = orbit.Position()

		delta := tr.Position.Sub(prev)
		if dt > 0 {
			tr.Velocity = delta.Scale(1 / dt)
		}
		if delta.Len() > vecmath.Epsilon {
			tr.Forward = delta.Normalize()
		}
		if ms.nodes != nil {
			tr.Node = ms.nodes.UpdateNode(tr.Node, prev, tr.Position)
		}
	}
}
