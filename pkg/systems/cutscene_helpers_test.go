package systems

import (
	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

// testDt 测试使用的 tick 时长（60 TPS）
const testDt = 1.0 / 60.0

type sentMessage struct {
	msg    uint32
	sender ecs.EntityID
	target ecs.EntityID
	param  int32
}

type fakeMessages struct {
	sent []sentMessage
}

func (m *fakeMessages) Send(msg uint32, sender, target ecs.EntityID, param, _ int32) {
	m.sent = append(m.sent, sentMessage{msg: msg, sender: sender, target: target, param: param})
}

func (m *fakeMessages) count(msg uint32) int {
	n := 0
	for _, s := range m.sent {
		if s.msg == msg {
			n++
		}
	}
	return n
}

type requestedFade struct {
	kind      sequence.FadeType
	ticks     int
	overwrite bool
}

type fakeFades struct {
	fades []requestedFade
}

func (f *fakeFades) RequestFade(kind sequence.FadeType, ticks int, overwrite bool) {
	f.fades = append(f.fades, requestedFade{kind: kind, ticks: ticks, overwrite: overwrite})
}

type fakePlayer struct {
	dead    bool
	alt     bool
	forced  []bool
	cleared int
}

func (p *fakePlayer) IsDead() bool    { return p.dead }
func (p *fakePlayer) IsAltForm() bool { return p.alt }
func (p *fakePlayer) ForceForm(alt bool) {
	p.forced = append(p.forced, alt)
	p.alt = alt
}
func (p *fakePlayer) ClearFormOverride() { p.cleared++ }

type fakeHUD struct {
	closed, cleared, reset int
}

func (h *fakeHUD) CloseDialogs()    { h.closed++ }
func (h *fakeHUD) ClearDisruption() { h.cleared++ }
func (h *fakeHUD) ResetTargeting()  { h.reset++ }

type fakeCameraHost struct {
	cam       components.CameraState
	returned  int
	refreshed int
}

func (c *fakeCameraHost) LiveCamera() *components.CameraState { return &c.cam }
func (c *fakeCameraHost) ReturnCameraOwnership()              { c.returned++ }
func (c *fakeCameraHost) RefreshCamera()                      { c.refreshed++ }

type fakeEntity struct {
	pos, up, fwd vecmath.Vec3
	node         components.NodeTag
	moving       bool
}

type fakeEntities struct {
	refs     map[sequence.EntityRef]ecs.EntityID
	entities map[ecs.EntityID]*fakeEntity
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{
		refs:     make(map[sequence.EntityRef]ecs.EntityID),
		entities: make(map[ecs.EntityID]*fakeEntity),
	}
}

func (f *fakeEntities) add(ref sequence.EntityRef, id ecs.EntityID, e *fakeEntity) {
	if e.up == (vecmath.Vec3{}) {
		e.up = vecmath.WorldUp
	}
	if e.fwd == (vecmath.Vec3{}) {
		e.fwd = vecmath.Forward
	}
	f.refs[ref] = id
	f.entities[id] = e
}

func (f *fakeEntities) Resolve(ref sequence.EntityRef) (ecs.EntityID, bool) {
	id, ok := f.refs[ref]
	return id, ok
}

func (f *fakeEntities) Position(id ecs.EntityID) (vecmath.Vec3, bool) {
	e, ok := f.entities[id]
	if !ok {
		return vecmath.Zero, false
	}
	return e.pos, true
}

func (f *fakeEntities) Vectors(id ecs.EntityID) (vecmath.Vec3, vecmath.Vec3, vecmath.Vec3, bool) {
	e, ok := f.entities[id]
	if !ok {
		return vecmath.Zero, vecmath.WorldUp, vecmath.Forward, false
	}
	return e.pos, e.up, e.fwd, true
}

func (f *fakeEntities) Node(id ecs.EntityID) components.NodeTag {
	if e, ok := f.entities[id]; ok {
		return e.node
	}
	return components.NoNode
}

func (f *fakeEntities) IsMoving(id ecs.EntityID) bool {
	e, ok := f.entities[id]
	return ok && e.moving
}

type fakeNodes struct {
	names map[string]components.NodeTag
}

func (n *fakeNodes) ResolveNode(name string) (components.NodeTag, bool) {
	tag, ok := n.names[name]
	return tag, ok
}

func (n *fakeNodes) UpdateNode(cur components.NodeTag, _, _ vecmath.Vec3) components.NodeTag {
	return cur
}

// testHarness 一组共享的仲裁器和外部协作者
type testHarness struct {
	arbiter  *Arbiter
	config   *config.CamSeqConfig
	messages *fakeMessages
	fades    *fakeFades
	player   *fakePlayer
	hud      *fakeHUD
	host     *fakeCameraHost
	entities *fakeEntities
	nodes    *fakeNodes
}

// originalCamera 过场开始前的游戏镜头，所有字段都有非零值以便检查恢复
func originalCamera() components.CameraState {
	return components.CameraState{
		Position:     vecmath.Vec3{1, 2, 3},
		PrevPosition: vecmath.Vec3{1, 2, 2.5},
		Target:       vecmath.Vec3{1, 2, 13},
		Up:           vecmath.WorldUp,
		Facing:       vecmath.Forward,
		Fov:          60,
		Shake:        0.25,
		Node:         3,
	}
}

func newTestHarness() *testHarness {
	cfg := config.DefaultCamSeqConfig()
	cfg.Debug.StrictIntegrity = true
	return &testHarness{
		arbiter:  NewArbiter(),
		config:   cfg,
		messages: &fakeMessages{},
		fades:    &fakeFades{},
		player:   &fakePlayer{},
		hud:      &fakeHUD{},
		host:     &fakeCameraHost{cam: originalCamera()},
		entities: newFakeEntities(),
		nodes:    &fakeNodes{names: map[string]components.NodeTag{"rmMain": 1, "rmHall": 2}},
	}
}

func (h *testHarness) hooks() Hooks {
	return Hooks{
		Messages: h.messages,
		Fades:    h.fades,
		Entities: h.entities,
		Nodes:    h.nodes,
		Player:   h.player,
		HUD:      h.hud,
		Camera:   h.host,
	}
}

func (h *testHarness) newEngine(def *sequence.Definition, opts EngineOptions) *PlaybackEngine {
	opts.StrictIntegrity = true
	e := NewPlaybackEngine(def, h.arbiter, h.hooks(), h.config.TimebaseHelper(), opts)
	if err := e.Bind(); err != nil {
		panic(err)
	}
	return e
}

func (h *testHarness) newController(entity ecs.EntityID, def *sequence.Definition, opts TriggerOptions) *ActivationController {
	c, err := NewActivationController(entity, def, h.arbiter, h.hooks(), h.config, opts)
	if err != nil {
		panic(err)
	}
	return c
}

// kf 构造一个静止或移动的关键帧
func kf(pos, toTarget vecmath.Vec3, fov, hold, move float64) sequence.Keyframe {
	return sequence.Keyframe{
		Position: pos,
		ToTarget: toTarget,
		Fov:      fov,
		HoldTime: hold,
		MoveTime: move,
		Easing:   1,
	}
}

// shortSequence 两个关键帧，总长 0.5 秒
func shortSequence(id int, msg uint32) *sequence.Definition {
	a := kf(vecmath.Vec3{0, 5, -20}, vecmath.Vec3{0, 0, 20}, 30, 0.1, 0.2)
	a.MessageID = msg
	b := kf(vecmath.Vec3{10, 5, -20}, vecmath.Vec3{-10, 0, 20}, 35, 0.2, 0)
	return sequence.NewDefinition(id, 1, false, []sequence.Keyframe{a, b})
}

// longSequence 一个长时间停留的关键帧
func longSequence(id int, msg uint32) *sequence.Definition {
	a := kf(vecmath.Vec3{0, 50, 0}, vecmath.Vec3{0, -50, 1}, 40, 100, 0)
	a.MessageID = msg
	return sequence.NewDefinition(id, 1, false, []sequence.Keyframe{a})
}

func almostEqual(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}

func vecAlmostEqual(a, b vecmath.Vec3, eps float64) bool {
	return almostEqual(a[0], b[0], eps) && almostEqual(a[1], b[1], eps) && almostEqual(a[2], b[2], eps)
}
