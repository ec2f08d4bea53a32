package entities

import (
	"math"
	"testing"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/vecmath"
)

// TestNewNodeRegionEntity 测试创建区域实体
func TestNewNodeRegionEntity(t *testing.T) {
	em := ecs.NewEntityManager()

	id := NewNodeRegionEntity(em, config.RegionConfig{
		Name: "rmHall",
		Tag:  3,
		Min:  [3]float64{-1, -2, -3},
		Max:  [3]float64{1, 2, 3},
	})

	region, ok := ecs.GetComponent[*components.NodeRegionComponent](em, id)
	if !ok {
		t.Fatal("Expected NodeRegionComponent to be present")
	}
	if region.Name != "rmHall" || region.Tag != 3 {
		t.Errorf("Expected rmHall/3, got %s/%d", region.Name, region.Tag)
	}
	if region.Max != (vecmath.Vec3{1, 2, 3}) {
		t.Errorf("Expected max (1,2,3), got %v", region.Max)
	}
}

// TestNewRefEntity_Static 测试创建静止实体，默认朝向 +Z
func TestNewRefEntity_Static(t *testing.T) {
	em := ecs.NewEntityManager()

	id := NewRefEntity(em, config.EntityConfig{
		Name:     "gate",
		Ref:      config.RefConfig{Kind: 4, ID: 1},
		Position: [3]float64{5, 0, 5},
	})

	tr, ok := ecs.GetComponent[*components.TransformComponent](em, id)
	if !ok {
		t.Fatal("Expected TransformComponent to be present")
	}
	if tr.Position != (vecmath.Vec3{5, 0, 5}) {
		t.Errorf("Expected position (5,0,5), got %v", tr.Position)
	}
	if tr.Forward != vecmath.Forward {
		t.Errorf("Expected default forward, got %v", tr.Forward)
	}

	ref, ok := ecs.GetComponent[*components.EntityRefComponent](em, id)
	if !ok || ref.Kind != 4 || ref.ID != 1 {
		t.Errorf("Expected ref 4:1, got %+v", ref)
	}
	if _, ok := ecs.GetComponent[*components.OrbitComponent](em, id); ok {
		t.Error("Expected no OrbitComponent without orbit config")
	}
}

// TestNewRefEntity_Orbit 测试轨道实体的初始位置取自轨道
func TestNewRefEntity_Orbit(t *testing.T) {
	em := ecs.NewEntityManager()

	id := NewRefEntity(em, config.EntityConfig{
		Ref:      config.RefConfig{Kind: 2, ID: 1},
		Position: [3]float64{100, 100, 100},
		Forward:  [3]float64{2, 0, 0},
		Orbit: &config.OrbitConfig{
			Center: [3]float64{0, 1, 0},
			Radius: 10,
			Angle:  math.Pi / 2,
		},
	})

	tr, _ := ecs.GetComponent[*components.TransformComponent](em, id)
	want := vecmath.Vec3{0, 1, 10}
	if tr.Position.Sub(want).Len() > 1e-9 {
		t.Errorf("Expected orbit start %v, got %v", want, tr.Position)
	}
	if tr.Forward != (vecmath.Vec3{1, 0, 0}) {
		t.Errorf("Expected normalized forward, got %v", tr.Forward)
	}
	if _, ok := ecs.GetComponent[*components.OrbitComponent](em, id); !ok {
		t.Error("Expected OrbitComponent to be present")
	}
}

// TestNewCutsceneTriggerEntity 测试创建触发器实体
func TestNewCutsceneTriggerEntity(t *testing.T) {
	em := ecs.NewEntityManager()
	player := NewPlayerEntity(em, config.PlayerConfig{Position: [3]float64{1, 0, 1}})

	id := NewCutsceneTriggerEntity(em, config.TriggerConfig{
		Name:             "door",
		Sequence:         7,
		Position:         [3]float64{0, 0, -20},
		Radius:           6,
		DelayFrames:      10,
		BlockInput:       true,
		Form:             "biped",
		EndMessage:       60,
		EndMessageTarget: config.RefConfig{Kind: 4, ID: 1},
	})

	trig, ok := ecs.GetComponent[*components.CutsceneTriggerComponent](em, id)
	if !ok {
		t.Fatal("Expected CutsceneTriggerComponent to be present")
	}
	if trig.Name != "door" || trig.SequenceID != 7 || trig.DelayFrames != 10 {
		t.Errorf("Unexpected trigger fields: %+v", trig)
	}
	if !trig.BlockInput || trig.Handoff || trig.Loop {
		t.Errorf("Unexpected trigger flags: %+v", trig)
	}
	if trig.EndMessageTarget != (components.EntityRefComponent{Kind: 4, ID: 1}) {
		t.Errorf("Expected end message target 4:1, got %+v", trig.EndMessageTarget)
	}

	if tr, ok := ecs.GetComponent[*components.TransformComponent](em, player); !ok || tr.Position != (vecmath.Vec3{1, 0, 1}) {
		t.Error("Expected player transform at (1,0,1)")
	}
}
