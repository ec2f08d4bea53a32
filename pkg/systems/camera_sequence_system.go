package systems

import (
	"fmt"
	"log"
	"math"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
)

// Phase 播放阶段。PhaseComplete 即"可以结束"。
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Form 播放期间对玩家形态的锁定要求
type Form int

const (
	FormAny Form = iota
	FormAlt
	FormBiped
)

// ParseForm 解析配置中的形态名称（"", "alt", "biped"）
func ParseForm(s string) (Form, error) {
	switch s {
	case "", "any":
		return FormAny, nil
	case "alt":
		return FormAlt, nil
	case "biped":
		return FormBiped, nil
	default:
		return FormAny, fmt.Errorf("unknown form %q", s)
	}
}

// EngineOptions 播放引擎的附加选项
type EngineOptions struct {
	// Sender 发送关键帧消息时使用的发送者实体
	Sender ecs.EntityID

	BlockInput bool
	Form       Form

	// StrictIntegrity 完整性断言失败时 panic
	StrictIntegrity bool
}

// keyframeBinding 绑定阶段解析出的弱引用（0 表示无）
type keyframeBinding struct {
	positionEntity ecs.EntityID
	targetEntity   ecs.EntityID
	messageTarget  ecs.EntityID
	node           components.NodeTag
}

// PlaybackEngine 驱动一个镜头序列实例。
// SetUp 借用实时镜头，Process 每 tick 推进关键帧并改写镜头，End 恢复镜头并归还。
// 所有方法都必须在游戏逻辑 goroutine 上调用。
type PlaybackEngine struct {
	def      *sequence.Definition
	arbiter  *Arbiter
	hooks    Hooks
	timebase config.Timebase
	opts     EngineOptions

	bindings []keyframeBinding

	phase      Phase
	blockInput bool
	loop       bool
	form       Form

	keyframeIndex   int
	keyframeElapsed float64
	transitionTimer uint16
	transitionTime  uint16

	camera           *components.CameraState
	initialSnapshot  components.CameraState
	transitionOrigin components.CameraState
}

// NewPlaybackEngine 创建播放引擎。引用绑定需另外调用 Bind。
func NewPlaybackEngine(def *sequence.Definition, arbiter *Arbiter, hooks Hooks, tb config.Timebase, opts EngineOptions) *PlaybackEngine {
	return &PlaybackEngine{
		def:        def,
		arbiter:    arbiter,
		hooks:      hooks.withDefaults(),
		timebase:   tb,
		opts:       opts,
		phase:      PhaseIdle,
		blockInput: opts.BlockInput,
		loop:       def.Loop,
		form:       opts.Form,
	}
}

// Bind 解析关键帧中的实体引用和区域名称。
// 实体不存在时记录警告并视为无引用；区域名称无法解析属于数据错误。
func (e *PlaybackEngine) Bind() error {
	n := e.def.Len()
	e.bindings = make([]keyframeBinding, n)
	for i := 0; i < n; i++ {
		kf := e.def.Keyframe(i)
		b := &e.bindings[i]
		b.positionEntity = e.resolveRef(i, "position", kf.PositionEntity)
		b.targetEntity = e.resolveRef(i, "target", kf.TargetEntity)
		b.messageTarget = e.resolveRef(i, "message target", kf.MessageTarget)

		if kf.NodeName != "" {
			tag, ok := e.hooks.Nodes.ResolveNode(kf.NodeName)
			if !ok {
				return fmt.Errorf("sequence %d keyframe %d node %q: %w", e.def.ID, i, kf.NodeName, ErrUnresolvedNode)
			}
			b.node = tag
		}
	}
	return nil
}

func (e *PlaybackEngine) resolveRef(i int, role string, ref sequence.EntityRef) ecs.EntityID {
	if ref.IsZero() {
		return ecs.InvalidEntity
	}
	id, ok := e.hooks.Entities.Resolve(ref)
	if !ok {
		log.Printf("[CameraSequence] Warning: sequence %d keyframe %d %s entity %v not found", e.def.ID, i, role, ref)
		return ecs.InvalidEntity
	}
	return id
}

func (e *PlaybackEngine) binding(i int) keyframeBinding {
	if i < 0 || i >= len(e.bindings) {
		return keyframeBinding{}
	}
	return e.bindings[i]
}

// SetUp 借用镜头并开始播放。
// transitionTicks > 0 时，镜头在该 tick 数内从当前姿态线性过渡到序列姿态。
func (e *PlaybackEngine) SetUp(camera *components.CameraState, transitionTicks int) {
	if camera == nil {
		integrityFailure(e.opts.StrictIntegrity, fmt.Errorf("sequence %d SetUp: %w", e.def.ID, ErrMissingCamera))
		e.phase = PhaseComplete
		return
	}

	e.initialSnapshot = *camera
	e.transitionOrigin = *camera
	e.camera = camera
	e.arbiter.claimCamera(e)
	e.arbiter.SetLive(e)

	e.loop = e.def.Loop
	e.reset(0, clampTicks(transitionTicks))

	if e.def.Len() == 0 {
		integrityFailure(e.opts.StrictIntegrity, fmt.Errorf("sequence %d SetUp: %w", e.def.ID, ErrNoKeyframes))
		e.phase = PhaseComplete
		return
	}

	// 立即写入第一帧姿态，避免出现一帧黑屏
	e.compose(e.blend())

	e.hooks.HUD.CloseDialogs()
	e.hooks.HUD.ClearDisruption()
	e.hooks.HUD.ResetTargeting()

	log.Printf("[CameraSequence] SetUp sequence %d (%d keyframes, transition %d ticks)", e.def.ID, e.def.Len(), transitionTicks)
}

// Restart 从第一帧重新开始，不重新快照镜头，也不通知界面。用于循环。
func (e *PlaybackEngine) Restart(transitionTimer, transitionTime uint16) {
	if e.def.Len() == 0 {
		integrityFailure(e.opts.StrictIntegrity, fmt.Errorf("sequence %d Restart: %w", e.def.ID, ErrNoKeyframes))
		e.phase = PhaseComplete
		return
	}
	e.reset(transitionTimer, transitionTime)
}

func (e *PlaybackEngine) reset(transitionTimer, transitionTime uint16) {
	e.phase = PhaseRunning
	e.keyframeIndex = 0
	e.keyframeElapsed = 0
	e.transitionTimer = transitionTimer
	e.transitionTime = transitionTime
}

// End 结束播放。若仍持有镜头，恢复到 SetUp 时的快照并归还。
func (e *PlaybackEngine) End() {
	e.phase = PhaseComplete
	e.keyframeIndex = 0
	e.keyframeElapsed = 0
	e.transitionTimer = 0
	e.transitionTime = 0

	if e.camera != nil && e.arbiter.CameraOwner() == e {
		*e.camera = e.initialSnapshot
	}
	e.arbiter.releaseCamera(e)
	e.camera = nil
	e.arbiter.ClearLive(e)
}

// detachCamera 不恢复镜头直接解除引用（交接用），返回 SetUp 时的快照
func (e *PlaybackEngine) detachCamera() (*components.CameraState, components.CameraState, bool) {
	if e.camera == nil {
		return nil, components.CameraState{}, false
	}
	cam := e.camera
	e.arbiter.releaseCamera(e)
	e.camera = nil
	return cam, e.initialSnapshot, true
}

// Process 推进一个 tick（dt 秒）
func (e *PlaybackEngine) Process(dt float64) {
	if e.phase != PhaseRunning || e.def.Len() == 0 {
		return
	}
	if e.camera == nil {
		integrityFailure(e.opts.StrictIntegrity, fmt.Errorf("sequence %d Process: %w", e.def.ID, ErrMissingCamera))
		e.phase = PhaseComplete
		return
	}
	cam := e.camera

	// 1. 记录上一帧位置，清除震屏
	cam.PrevPosition = cam.Position
	cam.Shake = 0

	// 2. 推进过渡计时，然后混合姿态
	// 先推进计时：SetUp 后第 n 个 tick 的混合比例是 n/transitionTime，
	// 30 tick 过渡在第 15 tick 正好走到一半（fov 60 → 75 → 90）
	if e.transitionTimer < e.transitionTime {
		e.transitionTimer++
	}
	e.compose(e.blend())

	n := e.def.Len()
	idx := clampIndex(e.keyframeIndex, n)
	kf := e.def.Keyframe(idx)
	b := e.binding(idx)

	// 3. 刚进入关键帧：发送消息，更新区域
	if e.keyframeElapsed < dt {
		if kf.MessageID != 0 {
			e.hooks.Messages.Send(kf.MessageID, e.opts.Sender, b.messageTarget, kf.MessageParam, 0)
		}
		if b.positionEntity != 0 && e.hooks.Entities.IsMoving(b.positionEntity) {
			cam.Node = e.hooks.Entities.Node(b.positionEntity)
		} else if b.node != components.NoNode {
			cam.Node = b.node
		}
	}

	// 4. 淡入淡出窗口
	frameLen := kf.FrameLength()
	if kf.FadeInType != sequence.FadeNone && kf.FadeInTime > 0 && e.keyframeElapsed < dt {
		e.hooks.Fades.RequestFade(kf.FadeInType, e.timebase.SecondsToTicks(kf.FadeInTime), false)
	}
	if kf.FadeOutType != sequence.FadeNone && kf.FadeOutTime > 0 {
		start := math.Max(0, frameLen-kf.FadeOutTime)
		if start >= e.keyframeElapsed && start < e.keyframeElapsed+dt {
			e.hooks.Fades.RequestFade(kf.FadeOutType, e.timebase.SecondsToTicks(kf.FadeOutTime), false)
		}
	}

	// 5. 推进关键帧时间
	e.keyframeElapsed += dt
	if e.keyframeElapsed > frameLen {
		// 余量最多保留到一个 tick 以内，避免跳过下一帧的首帧逻辑
		e.keyframeElapsed = math.Min(e.keyframeElapsed-frameLen, math.Nextafter(dt, 0))
		e.keyframeIndex++
		if e.keyframeIndex >= n {
			if e.loop {
				e.Restart(e.transitionTimer, e.transitionTime)
			} else {
				e.phase = PhaseComplete
				e.keyframeIndex = n - 1
				e.keyframeElapsed = frameLen
				log.Printf("[CameraSequence] Sequence %d complete", e.def.ID)
			}
		}
	}

	// 6. 按位移更新区域
	cam.Node = e.hooks.Nodes.UpdateNode(cam.Node, cam.PrevPosition, cam.Position)

	// 7. 形态锁定
	switch e.form {
	case FormAlt:
		if !e.hooks.Player.IsAltForm() {
			e.hooks.Player.ForceForm(true)
		}
	case FormBiped:
		if e.hooks.Player.IsAltForm() {
			e.hooks.Player.ForceForm(false)
		}
	}
}

// dispatchAllMessages 依次发送所有关键帧消息（被拒绝激活时的跳过逻辑）
func (e *PlaybackEngine) dispatchAllMessages() int {
	sent := 0
	for i := 0; i < e.def.Len(); i++ {
		kf := e.def.Keyframe(i)
		if kf.MessageID == 0 {
			continue
		}
		e.hooks.Messages.Send(kf.MessageID, e.opts.Sender, e.binding(i).messageTarget, kf.MessageParam, 0)
		sent++
	}
	return sent
}

func clampTicks(ticks int) uint16 {
	if ticks <= 0 {
		return 0
	}
	if ticks > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(ticks)
}

// SequenceID 序列 ID
func (e *PlaybackEngine) SequenceID() int { return e.def.ID }

// Definition 正在播放的序列定义
func (e *PlaybackEngine) Definition() *sequence.Definition { return e.def }

// Phase 当前阶段
func (e *PlaybackEngine) Phase() Phase { return e.phase }

// CanEnd 播放已完成，可以结束
func (e *PlaybackEngine) CanEnd() bool { return e.phase == PhaseComplete }

// IsComplete 同 CanEnd
func (e *PlaybackEngine) IsComplete() bool { return e.phase == PhaseComplete }

// IsRunning 正在播放
func (e *PlaybackEngine) IsRunning() bool { return e.phase == PhaseRunning }

// OwnsCamera 是否持有镜头引用
func (e *PlaybackEngine) OwnsCamera() bool { return e.camera != nil }

// BlockInput 播放期间是否屏蔽输入
func (e *PlaybackEngine) BlockInput() bool { return e.blockInput }

// Loop 是否循环
func (e *PlaybackEngine) Loop() bool { return e.loop }

// Form 形态锁定要求
func (e *PlaybackEngine) Form() Form { return e.form }

// KeyframeIndex 当前关键帧下标
func (e *PlaybackEngine) KeyframeIndex() int { return e.keyframeIndex }

// Elapsed 当前关键帧已用时间（秒）
func (e *PlaybackEngine) Elapsed() float64 { return e.keyframeElapsed }

// Transition 过渡计时和总时长（tick）
func (e *PlaybackEngine) Transition() (timer, total uint16) {
	return e.transitionTimer, e.transitionTime
}
