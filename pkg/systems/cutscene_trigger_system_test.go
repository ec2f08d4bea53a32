package systems

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

const doorSequenceYAML = `
version: 1
keyframes:
  - position: [0, 5, -20]
    toTarget: [0, 0, 20]
    fov: 30
    holdTime: 30
    moveTime: 30
    messageId: 40
  - position: [10, 5, -20]
    toTarget: [-10, 0, 20]
    fov: 35
    holdTime: 30
`

func newTestTriggerSystem(h *testHarness) (*CutsceneTriggerSystem, *ecs.EntityManager) {
	fsys := fstest.MapFS{
		"sequences/door.yaml": &fstest.MapFile{Data: []byte(doorSequenceYAML)},
	}
	catalog := sequence.NewCatalog(sequence.NewFSSource(fsys, map[int]string{1: "sequences/door.yaml"}), h.config)
	em := ecs.NewEntityManager()
	return NewCutsceneTriggerSystem(em, catalog, h.arbiter, h.hooks(), h.config), em
}

func addTrigger(em *ecs.EntityManager, trigger *components.CutsceneTriggerComponent) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, trigger)
	return id
}

// TestCutsceneTriggerSystem_Proximity 玩家进入范围时播放，离开后倒计时取消
func TestCutsceneTriggerSystem_Proximity(t *testing.T) {
	h := newTestHarness()
	s, em := newTestTriggerSystem(h)

	triggerID := addTrigger(em, &components.CutsceneTriggerComponent{
		Name:       "door",
		SequenceID: 1,
		Position:   vecmath.Vec3{0, 0, 0},
		Radius:     5,
	})
	player := em.CreateEntity()
	playerTr := components.NewTransform(vecmath.Vec3{20, 0, 0})
	ecs.AddComponent(em, player, playerTr)

	if err := s.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s.SetPlayer(player)

	ctrl, ok := s.ControllerByName("door")
	if !ok {
		t.Fatal("Expected controller for trigger 'door'")
	}
	if byID, _ := s.Controller(triggerID); byID != ctrl {
		t.Error("Controller lookup by id and name disagree")
	}

	s.Update()
	if ctrl.IsActive() {
		t.Fatal("Trigger must stay idle while the player is outside")
	}

	playerTr.Position = vecmath.Vec3{1, 0, 0}
	s.Update()
	if !ctrl.IsActive() || s.Active() != ctrl {
		t.Fatal("Expected trigger to activate when the player enters")
	}
	if h.messages.count(40) != 1 {
		t.Errorf("Expected first keyframe message once, got %d", h.messages.count(40))
	}

	playerTr.Position = vecmath.Vec3{20, 0, 0}
	s.Update()
	if ctrl.State() != StateWindingDown {
		t.Fatalf("Expected winding down after leaving, got %v", ctrl.State())
	}
	for i := 0; i < 20; i++ {
		s.Update()
	}
	if ctrl.IsActive() {
		t.Error("Expected trigger cancelled after the countdown")
	}
	if h.host.cam != originalCamera() {
		t.Error("Expected camera restored after cancel")
	}
}

// TestCutsceneTriggerSystem_PlaysToCompletion 序列播放完后恢复镜头
func TestCutsceneTriggerSystem_PlaysToCompletion(t *testing.T) {
	h := newTestHarness()
	s, em := newTestTriggerSystem(h)
	addTrigger(em, &components.CutsceneTriggerComponent{Name: "door", SequenceID: 1, BlockInput: true})

	if err := s.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ctrl, _ := s.ControllerByName("door")
	ctrl.SetActive(true)
	if !s.BlockInput() {
		t.Error("Expected input blocked during the cutscene")
	}

	// 90 制作帧 = 3 秒 = 180 tick
	ticks := 0
	for ctrl.IsActive() && ticks < 400 {
		s.Update()
		ticks++
	}
	if ticks < 179 || ticks > 183 {
		t.Errorf("Expected about 180 ticks, got %d", ticks)
	}
	if s.BlockInput() {
		t.Error("Expected input unblocked after the cutscene")
	}
	if h.host.cam != originalCamera() {
		t.Error("Expected camera restored")
	}
}

// TestCutsceneTriggerSystem_BuildErrors 测试构建错误
func TestCutsceneTriggerSystem_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		trigger *components.CutsceneTriggerComponent
		wantErr error
	}{
		{"unknown sequence", &components.CutsceneTriggerComponent{Name: "x", SequenceID: 9}, sequence.ErrUnknownSequence},
		{"bad form", &components.CutsceneTriggerComponent{Name: "x", SequenceID: 1, Form: "winged"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness()
			s, em := newTestTriggerSystem(h)
			addTrigger(em, tt.trigger)

			err := s.Build()
			if err == nil {
				t.Fatal("Expected Build to fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestCutsceneTriggerSystem_CancelAll 房间切换时取消当前过场
func TestCutsceneTriggerSystem_CancelAll(t *testing.T) {
	h := newTestHarness()
	s, em := newTestTriggerSystem(h)
	addTrigger(em, &components.CutsceneTriggerComponent{Name: "a", SequenceID: 1})
	addTrigger(em, &components.CutsceneTriggerComponent{Name: "b", SequenceID: 1, Loop: true})

	if err := s.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(s.Controllers()) != 2 {
		t.Fatalf("Expected 2 controllers, got %d", len(s.Controllers()))
	}

	b, _ := s.ControllerByName("b")
	b.SetActive(true)
	s.Update()
	s.CancelAll()

	if s.Active() != nil || h.arbiter.Live() != nil {
		t.Error("Expected nothing active after CancelAll")
	}
	if h.host.cam != originalCamera() {
		t.Error("Expected camera restored after CancelAll")
	}
}
