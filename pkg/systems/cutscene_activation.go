package systems

import (
	"fmt"
	"log"

	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
)

// ActivationState 控制器状态（仅用于查询和日志）
type ActivationState int

const (
	StateIdle ActivationState = iota
	StateDelaying
	StatePlaying
	StateWindingDown // 交接倒计时中
)

func (s ActivationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDelaying:
		return "delaying"
	case StatePlaying:
		return "playing"
	case StateWindingDown:
		return "windingDown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TriggerOptions 触发器的制作参数
type TriggerOptions struct {
	// DelayFrames 激活后延迟多少制作帧才开始播放
	DelayFrames int
	BlockInput  bool
	Handoff     bool
	Loop        bool
	Form        Form

	EndMessage       uint32
	EndMessageParam  int32
	EndMessageTarget sequence.EntityRef
}

// ActivationController 一个放置的过场触发器的激活/仲裁状态机。
//
//	Idle → Delaying → Playing → Idle（循环时停留在 Playing）
//	Playing --SetActive(false)--> WindingDown → Idle
//	Delaying/Playing/WindingDown --Cancel--> Idle
//
// 拒绝激活不是错误：改为立即发送本序列所有关键帧消息，保证游戏进度不被卡住。
type ActivationController struct {
	entity   ecs.EntityID
	engine   *PlaybackEngine
	arbiter  *Arbiter
	hooks    Hooks
	timebase config.Timebase
	opts     TriggerOptions

	delayTicks     int
	countdownTicks int
	blendTicks     int
	endTarget      ecs.EntityID

	active       bool
	handoff      bool
	started      bool
	handoffTimer int
	delayTimer   int
}

// NewActivationController 创建控制器并绑定序列中的引用
func NewActivationController(entity ecs.EntityID, def *sequence.Definition, arbiter *Arbiter, hooks Hooks, cfg *config.CamSeqConfig, opts TriggerOptions) (*ActivationController, error) {
	if cfg == nil {
		cfg = config.DefaultCamSeqConfig()
	}
	hooks = hooks.withDefaults()
	tb := cfg.TimebaseHelper()

	engine := NewPlaybackEngine(def, arbiter, hooks, tb, EngineOptions{
		Sender:          entity,
		BlockInput:      opts.BlockInput,
		Form:            opts.Form,
		StrictIntegrity: cfg.Debug.StrictIntegrity,
	})
	if err := engine.Bind(); err != nil {
		return nil, fmt.Errorf("failed to bind cutscene trigger %d: %w", entity, err)
	}

	c := &ActivationController{
		entity:         entity,
		engine:         engine,
		arbiter:        arbiter,
		hooks:          hooks,
		timebase:       tb,
		opts:           opts,
		delayTicks:     tb.FramesToTicks(opts.DelayFrames),
		countdownTicks: tb.FramesToTicks(cfg.Handoff.CountdownFrames),
		blendTicks:     tb.FramesToTicks(cfg.Handoff.BlendFrames),
	}
	if c.countdownTicks < 1 {
		c.countdownTicks = 1
	}
	if !opts.EndMessageTarget.IsZero() {
		if id, ok := hooks.Entities.Resolve(opts.EndMessageTarget); ok {
			c.endTarget = id
		} else {
			log.Printf("[CutsceneTrigger] Warning: trigger %d end message target %v not found", entity, opts.EndMessageTarget)
		}
	}
	return c, nil
}

// SetActive 激活（true）或开始交接倒计时（false）
func (c *ActivationController) SetActive(active bool) bool {
	if active {
		return c.Activate()
	}
	if c.active && c.handoffTimer == 0 {
		c.handoffTimer = c.countdownTicks
		log.Printf("[CutsceneTrigger] Trigger %d: handoff countdown started (%d ticks)", c.entity, c.handoffTimer)
	}
	return false
}

// Activate 请求占用镜头。返回是否被允许。
func (c *ActivationController) Activate() bool {
	if c.opts.BlockInput && c.hooks.Player.IsDead() {
		log.Printf("[CutsceneTrigger] Trigger %d: player is dead, ignoring activation", c.entity)
		return false
	}

	allow := true
	handoff := false
	reason := ""

	cur := c.arbiter.Current()
	if cur != nil && cur != c && cur.active {
		if cur.opts.BlockInput {
			allow = false
			reason = fmt.Sprintf("trigger %d blocks input", cur.entity)
		} else if cur.opts.Handoff && c.opts.Handoff {
			handoff = true
			if cur.handoffTimer == 0 {
				allow = false
				reason = fmt.Sprintf("trigger %d has not started winding down", cur.entity)
			}
		}
	}
	if live := c.arbiter.Live(); allow && live != nil && live != c.engine && live.BlockInput() {
		allow = false
		reason = fmt.Sprintf("live sequence %d blocks input", live.SequenceID())
	}

	if !allow {
		sent := c.engine.dispatchAllMessages()
		log.Printf("[CutsceneTrigger] Trigger %d refused (%s), dispatched %d keyframe messages", c.entity, reason, sent)
		return false
	}

	if cur != nil && cur != c {
		if handoff {
			if cam, snap, ok := cur.engine.detachCamera(); ok {
				c.arbiter.stashHandoff(cam, snap)
			}
		}
		cur.cancel(handoff)
	}
	if live := c.arbiter.Live(); live != nil && live != c.engine {
		live.End()
	}

	if !c.active {
		c.active = true
		c.started = false
		c.delayTimer = 0
		c.handoffTimer = 0
		c.handoff = handoff
		c.arbiter.Claim(c)
		log.Printf("[CutsceneTrigger] Trigger %d activated (sequence %d, handoff=%v)", c.entity, c.engine.SequenceID(), handoff)
		if c.delayTicks == 0 {
			c.TryStart()
		}
	}
	return true
}

// TryStart 累计延迟，到达阈值时开始播放
func (c *ActivationController) TryStart() {
	if !c.active || c.started {
		return
	}
	c.delayTimer++
	if c.delayTimer < c.delayTicks {
		return
	}

	transition := 0
	if c.handoff {
		transition = c.blendTicks
	}
	c.engine.SetUp(c.hooks.Camera.LiveCamera(), transition)
	if c.handoff {
		if _, snap, ok := c.arbiter.takeHandoff(); ok {
			c.engine.initialSnapshot = snap
		}
	}
	c.started = true
}

// Update 每 tick 调用一次（仅在激活时生效）
func (c *ActivationController) Update() {
	if !c.active {
		return
	}

	if c.handoffTimer > 0 {
		c.handoffTimer--
		if c.handoffTimer == 0 {
			log.Printf("[CutsceneTrigger] Trigger %d: handoff countdown expired", c.entity)
			c.Cancel()
			return
		}
	}

	if !c.started {
		c.TryStart()
		return
	}

	c.engine.Process(c.timebase.TickSeconds())
	if !c.engine.CanEnd() {
		return
	}

	if c.opts.Loop {
		timer, total := c.engine.Transition()
		c.engine.Restart(timer, total)
		log.Printf("[CutsceneTrigger] Trigger %d looping sequence %d", c.entity, c.engine.SequenceID())
		return
	}
	c.finish()
}

// finish 正常播放结束
func (c *ActivationController) finish() {
	c.clearState()
	c.arbiter.Release(c)
	c.engine.End()
	c.sendEndMessage()
	if c.engine.Form() != FormAny {
		c.hooks.Player.ClearFormOverride()
	}
	c.hooks.Camera.RefreshCamera()
	log.Printf("[CutsceneTrigger] Trigger %d finished sequence %d", c.entity, c.engine.SequenceID())
}

// Cancel 立即取消：发送结束消息，恢复镜头，释放槽位
func (c *ActivationController) Cancel() {
	c.cancel(false)
}

// cancel handingOff 为 true 时镜头已被新的控制器接管，不做恢复
func (c *ActivationController) cancel(handingOff bool) {
	if !c.active && !c.engine.IsRunning() {
		return
	}

	ownedCamera := c.arbiter.CameraOwner() == c.engine
	c.sendEndMessage()
	c.engine.End()

	// 还在延迟阶段的交接：带过来的快照没人接收，在这里恢复
	if !handingOff && c.handoff && !c.started {
		if cam, snap, ok := c.arbiter.takeHandoff(); ok && cam != nil {
			*cam = snap
			ownedCamera = true
		}
	}

	c.clearState()
	c.arbiter.Release(c)

	if ownedCamera {
		c.hooks.Camera.ReturnCameraOwnership()
		if c.engine.Form() != FormAny {
			c.hooks.Player.ClearFormOverride()
		}
	}
	log.Printf("[CutsceneTrigger] Trigger %d cancelled (handoff=%v)", c.entity, handingOff)
}

func (c *ActivationController) clearState() {
	c.active = false
	c.started = false
	c.handoff = false
	c.handoffTimer = 0
	c.delayTimer = 0
}

func (c *ActivationController) sendEndMessage() {
	if c.opts.EndMessage == 0 {
		return
	}
	c.hooks.Messages.Send(c.opts.EndMessage, c.entity, c.endTarget, c.opts.EndMessageParam, 0)
}

// State 当前状态
func (c *ActivationController) State() ActivationState {
	switch {
	case !c.active:
		return StateIdle
	case c.handoffTimer > 0:
		return StateWindingDown
	case !c.started:
		return StateDelaying
	default:
		return StatePlaying
	}
}

// Entity 触发器实体
func (c *ActivationController) Entity() ecs.EntityID { return c.entity }

// Engine 控制器拥有的播放引擎
func (c *ActivationController) Engine() *PlaybackEngine { return c.engine }

// IsActive 是否激活
func (c *ActivationController) IsActive() bool { return c.active }

// IsHandoff 本次激活是否为交接
func (c *ActivationController) IsHandoff() bool { return c.handoff }

// HandoffTimer 交接倒计时剩余 tick（0 表示未开始）
func (c *ActivationController) HandoffTimer() int { return c.handoffTimer }

// Options 触发器参数
func (c *ActivationController) Options() TriggerOptions { return c.opts }
