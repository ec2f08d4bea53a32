package systems

import (
	"fmt"
	"log"
	"sort"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
)

// CutsceneTriggerSystem 为每个带 CutsceneTriggerComponent 的实体创建 ActivationController，
// 检测玩家进出触发范围，并每 tick 驱动所有控制器。
type CutsceneTriggerSystem struct {
	entityManager *ecs.EntityManager
	catalog       *sequence.Catalog
	arbiter       *Arbiter
	hooks         Hooks
	config        *config.CamSeqConfig

	player      ecs.EntityID
	controllers map[ecs.EntityID]*ActivationController
	order       []ecs.EntityID
}

// NewCutsceneTriggerSystem 创建过场触发系统
func NewCutsceneTriggerSystem(em *ecs.EntityManager, catalog *sequence.Catalog, arbiter *Arbiter, hooks Hooks, cfg *config.CamSeqConfig) *CutsceneTriggerSystem {
	if cfg == nil {
		cfg = config.DefaultCamSeqConfig()
	}
	return &CutsceneTriggerSystem{
		entityManager: em,
		catalog:       catalog,
		arbiter:       arbiter,
		hooks:         hooks.withDefaults(),
		config:        cfg,
		controllers:   make(map[ecs.EntityID]*ActivationController),
	}
}

// Build 为尚未创建控制器的触发器实体加载序列并绑定引用
func (s *CutsceneTriggerSystem) Build() error {
	ids := ecs.GetEntitiesWith1[*components.CutsceneTriggerComponent](s.entityManager)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if _, exists := s.controllers[id]; exists {
			continue
		}
		trigger, _ := ecs.GetComponent[*components.CutsceneTriggerComponent](s.entityManager, id)

		def, err := s.catalog.Get(trigger.SequenceID)
		if err != nil {
			return fmt.Errorf("trigger %q: failed to load sequence %d: %w", trigger.Name, trigger.SequenceID, err)
		}
		form, err := ParseForm(trigger.Form)
		if err != nil {
			return fmt.Errorf("trigger %q: %w", trigger.Name, err)
		}

		ctrl, err := NewActivationController(id, def, s.arbiter, s.hooks, s.config, TriggerOptions{
			DelayFrames: trigger.DelayFrames,
			BlockInput:  trigger.BlockInput,
			Handoff:     trigger.Handoff,
			Loop:        trigger.Loop,
			Form:        form,
			EndMessage:  trigger.EndMessage,
			EndMessageTarget: sequence.EntityRef{
				Kind: trigger.EndMessageTarget.Kind,
				ID:   trigger.EndMessageTarget.ID,
			},
			EndMessageParam: trigger.EndMessageParam,
		})
		if err != nil {
			return fmt.Errorf("trigger %q: %w", trigger.Name, err)
		}
		s.controllers[id] = ctrl
		s.order = append(s.order, id)
		log.Printf("[CutsceneTrigger] Built trigger %q -> sequence %d", trigger.Name, trigger.SequenceID)
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return nil
}

// SetPlayer 设置用于范围检测的玩家实体
func (s *CutsceneTriggerSystem) SetPlayer(id ecs.EntityID) {
	s.player = id
}

// Update 检测进出范围，然后驱动所有控制器一个 tick
func (s *CutsceneTriggerSystem) Update() {
	s.updateProximity()
	for _, id := range s.order {
		s.controllers[id].Update()
	}
}

func (s *CutsceneTriggerSystem) updateProximity() {
	if s.player == ecs.InvalidEntity {
		return
	}
	playerTr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.player)
	if !ok {
		return
	}
	for _, id := range s.order {
		trigger, ok := ecs.GetComponent[*components.CutsceneTriggerComponent](s.entityManager, id)
		if !ok || trigger.Radius <= 0 {
			continue
		}
		inside := playerTr.Position.Sub(trigger.Position).Len() <= trigger.Radius
		if inside == trigger.PlayerInside {
			continue
		}
		trigger.PlayerInside = inside
		s.controllers[id].SetActive(inside)
	}
}

// Controller 返回实体对应的控制器
func (s *CutsceneTriggerSystem) Controller(id ecs.EntityID) (*ActivationController, bool) {
	c, ok := s.controllers[id]
	return c, ok
}

// ControllerByName 按触发器名称查找控制器
func (s *CutsceneTriggerSystem) ControllerByName(name string) (*ActivationController, bool) {
	for _, id := range s.order {
		trigger, ok := ecs.GetComponent[*components.CutsceneTriggerComponent](s.entityManager, id)
		if ok && trigger.Name == name {
			return s.controllers[id], true
		}
	}
	return nil, false
}

// Controllers 按实体 ID 顺序返回所有控制器
func (s *CutsceneTriggerSystem) Controllers() []*ActivationController {
	out := make([]*ActivationController, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.controllers[id])
	}
	return out
}

// Active 当前活动的控制器
func (s *CutsceneTriggerSystem) Active() *ActivationController {
	return s.arbiter.Current()
}

// BlockInput 当前是否有过场屏蔽玩家输入
func (s *CutsceneTriggerSystem) BlockInput() bool {
	if cur := s.arbiter.Current(); cur != nil && cur.Options().BlockInput {
		return true
	}
	live := s.arbiter.Live()
	return live != nil && live.BlockInput()
}

// CancelAll 取消当前过场（房间切换等）
func (s *CutsceneTriggerSystem) CancelAll() {
	if cur := s.arbiter.Current(); cur != nil {
		cur.Cancel()
	}
	if live := s.arbiter.Live(); live != nil {
		live.End()
	}
}
