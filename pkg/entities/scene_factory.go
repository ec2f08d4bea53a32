package entities

import (
	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/vecmath"
)

// NewNodeRegionEntity 创建区域（房间）实体
// 区域包围盒用于解析关键帧的节点名，以及判断玩家和实体所在的房间
//
// 参数:
//   - em: 实体管理器
//   - cfg: 区域配置
//
// 返回:
//   - ecs.EntityID: 创建的区域实体ID
func NewNodeRegionEntity(em *ecs.EntityManager, cfg config.RegionConfig) ecs.EntityID {
	entityID := em.CreateEntity()
	ecs.AddComponent(em, entityID, &components.NodeRegionComponent{
		Name: cfg.Name,
		Tag:  components.NodeTag(cfg.Tag),
		Min:  vecmath.Vec3(cfg.Min),
		Max:  vecmath.Vec3(cfg.Max),
	})
	return entityID
}

// NewRefEntity 创建可被关键帧按 (kind, id) 引用的场景实体
// 配置了 orbit 时附加 OrbitComponent，初始位置取轨道上的起始角度
//
// 参数:
//   - em: 实体管理器
//   - cfg: 实体配置
//
// 返回:
//   - ecs.EntityID: 创建的实体ID
func NewRefEntity(em *ecs.EntityManager, cfg config.EntityConfig) ecs.EntityID {
	entityID := em.CreateEntity()

	tr := components.NewTransform(vecmath.Vec3(cfg.Position))
	tr.Forward = vecmath.Vec3(cfg.Forward).NormalizeOr(vecmath.Forward)
	ecs.AddComponent(em, entityID, tr)
	ecs.AddComponent(em, entityID, &components.EntityRefComponent{Kind: cfg.Ref.Kind, ID: cfg.Ref.ID})

	if cfg.Orbit != nil {
		orbit := &components.OrbitComponent{
			Center:       vecmath.Vec3(cfg.Orbit.Center),
			Radius:       cfg.Orbit.Radius,
			AngularSpeed: cfg.Orbit.AngularSpeed,
			Angle:        cfg.Orbit.Angle,
		}
		ecs.AddComponent(em, entityID, orbit)
		tr.Position = orbit.Position()
	}
	return entityID
}

// NewPlayerEntity 创建玩家实体（只有 Transform，形态和存活状态由 GameState 管理）
func NewPlayerEntity(em *ecs.EntityManager, cfg config.PlayerConfig) ecs.EntityID {
	entityID := em.CreateEntity()
	ecs.AddComponent(em, entityID, components.NewTransform(vecmath.Vec3(cfg.Position)))
	return entityID
}

// NewCutsceneTriggerEntity 创建过场触发器实体
// 控制器和播放引擎由 CutsceneTriggerSystem.Build 根据组件创建
func NewCutsceneTriggerEntity(em *ecs.EntityManager, cfg config.TriggerConfig) ecs.EntityID {
	entityID := em.CreateEntity()
	ecs.AddComponent(em, entityID, &components.CutsceneTriggerComponent{
		Name:            cfg.Name,
		SequenceID:      cfg.Sequence,
		Position:        vecmath.Vec3(cfg.Position),
		Radius:          cfg.Radius,
		DelayFrames:     cfg.DelayFrames,
		BlockInput:      cfg.BlockInput,
		Handoff:         cfg.Handoff,
		Loop:            cfg.Loop,
		Form:            cfg.Form,
		EndMessage:      cfg.EndMessage,
		EndMessageParam: cfg.EndMessageParam,
		EndMessageTarget: components.EntityRefComponent{
			Kind: cfg.EndMessageTarget.Kind,
			ID:   cfg.EndMessageTarget.ID,
		},
	})
	return entityID
}
