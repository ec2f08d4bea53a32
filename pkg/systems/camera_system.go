package systems

import (
	"log"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/utils"
	"github.com/decker502/camseq/pkg/vecmath"
)

const (
	// DefaultCameraSpeed 默认镜头移动速度（单位/秒）
	DefaultCameraSpeed = 12.0

	// DefaultCameraFov 默认完整视角（度）
	DefaultCameraFov = 60.0

	// cameraArriveDistance 距离目标小于该值视为到达
	cameraArriveDistance = 0.05

	// followSharpness 跟随时每秒收敛的比例
	followSharpness = 6.0
)

// CameraSystem 管理游戏镜头。
// 没有过场序列持有镜头时负责跟随实体和 MoveTo 平滑动画；
// 过场期间暂停，结束后接回控制权（实现 CameraHost）。
type CameraSystem struct {
	entityManager *ecs.EntityManager
	arbiter       *Arbiter
	cameraEntity  ecs.EntityID // 镜头实体ID
}

// NewCameraSystem 创建镜头控制系统，并创建带初始状态的镜头实体。
func NewCameraSystem(em *ecs.EntityManager, arbiter *Arbiter, initial components.CameraState) *CameraSystem {
	cs := &CameraSystem{
		entityManager: em,
		arbiter:       arbiter,
	}

	if initial.Fov == 0 {
		initial.Fov = DefaultCameraFov
	}
	cs.cameraEntity = em.CreateEntity()
	ecs.AddComponent(em, cs.cameraEntity, &components.CameraComponent{
		State:          initial,
		AnimationSpeed: DefaultCameraSpeed,
		EasingType:     "easeInOut",
		TargetPos:      initial.Position,
		LookAt:         initial.Target,
	})

	return cs
}

func (cs *CameraSystem) component() (*components.CameraComponent, bool) {
	return ecs.GetComponent[*components.CameraComponent](cs.entityManager, cs.cameraEntity)
}

// CameraEntity 镜头实体ID
func (cs *CameraSystem) CameraEntity() ecs.EntityID {
	return cs.cameraEntity
}

// IsSuspended 过场序列持有镜头或交接未完成时，游戏镜头暂停
func (cs *CameraSystem) IsSuspended() bool {
	if cs.arbiter == nil {
		return false
	}
	return cs.arbiter.CameraOwner() != nil || cs.arbiter.HasPendingHandoff()
}

// Update 更新镜头系统，处理跟随和移动动画。
func (cs *CameraSystem) Update(dt float64) {
	cameraComp, ok := cs.component()
	if !ok || cs.IsSuspended() {
		return
	}
	cam := &cameraComp.State
	cam.PrevPosition = cam.Position

	if cameraComp.IsAnimating {
		cs.updateAnimation(cameraComp, dt)
		return
	}

	if cameraComp.FollowEntity != ecs.InvalidEntity {
		cs.updateFollow(cameraComp, dt)
	}
}

// updateAnimation 沿直线按速度推进，进度经过缓动函数映射
func (cs *CameraSystem) updateAnimation(cameraComp *components.CameraComponent, dt float64) {
	cam := &cameraComp.State
	if cameraComp.TotalDistance < cameraArriveDistance || cameraComp.AnimationSpeed <= 0 {
		cs.arrive(cameraComp)
		return
	}

	cameraComp.Traveled += cameraComp.AnimationSpeed * dt
	progress := cameraComp.Traveled / cameraComp.TotalDistance
	if progress >= 1 {
		cs.arrive(cameraComp)
		return
	}

	t := cs.applyEasing(cameraComp.EasingType, progress)
	cam.Position = vecmath.Lerp(cameraComp.StartPos, cameraComp.TargetPos, t)
	cs.lookAt(cam, cameraComp.LookAt)
}

func (cs *CameraSystem) arrive(cameraComp *components.CameraComponent) {
	cameraComp.State.Position = cameraComp.TargetPos
	cs.lookAt(&cameraComp.State, cameraComp.LookAt)
	cameraComp.IsAnimating = false
}

// updateFollow 指数收敛到跟随实体 + 偏移，并注视实体
func (cs *CameraSystem) updateFollow(cameraComp *components.CameraComponent, dt float64) {
	tr, ok := ecs.GetComponent[*components.TransformComponent](cs.entityManager, cameraComp.FollowEntity)
	if !ok {
		log.Printf("[CameraSystem] Warning: follow entity %d has no transform, stop following", cameraComp.FollowEntity)
		cameraComp.FollowEntity = ecs.InvalidEntity
		return
	}
	cam := &cameraComp.State
	desired := tr.Position.Add(cameraComp.FollowOffset)
	k := vecmath.Clamp01(followSharpness * dt)
	cam.Position = vecmath.Lerp(cam.Position, desired, k)
	cs.lookAt(cam, tr.Position)
	cam.Node = tr.Node
}

func (cs *CameraSystem) lookAt(cam *components.CameraState, target vecmath.Vec3) {
	cam.Target = target
	cam.Facing = target.Sub(cam.Position).NormalizeOr(cam.Facing)
	cam.Up = vecmath.WorldUp
}

// MoveTo 移动镜头到目标位置并注视 lookAt。
// 参数:
//   - target: 目标位置（世界坐标）
//   - lookAt: 注视点
//   - speed: 移动速度（单位/秒）
func (cs *CameraSystem) MoveTo(target, lookAt vecmath.Vec3, speed float64) {
	cameraComp, ok := cs.component()
	if !ok {
		return
	}

	cameraComp.TargetPos = target
	cameraComp.LookAt = lookAt
	cameraComp.AnimationSpeed = speed
	cameraComp.IsAnimating = true

	// 记录起点和总距离
	cameraComp.StartPos = cameraComp.State.Position
	cameraComp.TotalDistance = target.Sub(cameraComp.StartPos).Len()
	cameraComp.Traveled = 0
}

// Follow 跟随实体（InvalidEntity 取消跟随）
func (cs *CameraSystem) Follow(id ecs.EntityID, offset vecmath.Vec3) {
	cameraComp, ok := cs.component()
	if !ok {
		return
	}
	cameraComp.FollowEntity = id
	cameraComp.FollowOffset = offset
}

// StopAnimation 停止镜头动画，立即设置到目标位置。
func (cs *CameraSystem) StopAnimation() {
	cameraComp, ok := cs.component()
	if !ok || !cameraComp.IsAnimating {
		return
	}
	cs.arrive(cameraComp)
}

// IsAnimating 返回镜头是否正在动画中。
func (cs *CameraSystem) IsAnimating() bool {
	cameraComp, ok := cs.component()
	if !ok {
		return false
	}
	return cameraComp.IsAnimating
}

// LiveCamera implements CameraHost.
func (cs *CameraSystem) LiveCamera() *components.CameraState {
	cameraComp, ok := cs.component()
	if !ok {
		return nil
	}
	return &cameraComp.State
}

// ReturnCameraOwnership implements CameraHost.
// 过场被取消后接回镜头：中断的 MoveTo 从当前位置重新开始。
func (cs *CameraSystem) ReturnCameraOwnership() {
	cameraComp, ok := cs.component()
	if !ok {
		return
	}
	if cameraComp.IsAnimating {
		cs.MoveTo(cameraComp.TargetPos, cameraComp.LookAt, cameraComp.AnimationSpeed)
	}
	log.Printf("[CameraSystem] Camera ownership returned to gameplay")
}

// RefreshCamera implements CameraHost.
// 过场正常结束后立即把镜头对齐到跟随位置，避免残留一帧过场姿态。
func (cs *CameraSystem) RefreshCamera() {
	cameraComp, ok := cs.component()
	if !ok || cs.IsSuspended() {
		return
	}
	if cameraComp.FollowEntity == ecs.InvalidEntity {
		return
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](cs.entityManager, cameraComp.FollowEntity)
	if !ok {
		return
	}
	cam := &cameraComp.State
	cam.Position = tr.Position.Add(cameraComp.FollowOffset)
	cam.PrevPosition = cam.Position
	cs.lookAt(cam, tr.Position)
}

// applyEasing 按类型映射进度，未知类型按线性处理
func (cs *CameraSystem) applyEasing(easingType string, t float64) float64 {
	ease, ok := utils.EasingByName(easingType)
	if !ok && easingType != "" {
		log.Printf("[CameraSystem] Warning: unknown easing %q, using linear", easingType)
	}
	return ease(t)
}
