package systems

import (
	"testing"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

func addRegion(em *ecs.EntityManager, name string, tag components.NodeTag, min, max vecmath.Vec3) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.NodeRegionComponent{Name: name, Tag: tag, Min: min, Max: max})
	return id
}

func addRefEntity(em *ecs.EntityManager, kind, refID uint16, pos vecmath.Vec3) (ecs.EntityID, *components.TransformComponent) {
	id := em.CreateEntity()
	tr := components.NewTransform(pos)
	ecs.AddComponent(em, id, tr)
	ecs.AddComponent(em, id, &components.EntityRefComponent{Kind: kind, ID: refID})
	return id, tr
}

// TestEntityTable_Resolve 测试引用解析和弱引用失效
func TestEntityTable_Resolve(t *testing.T) {
	em := ecs.NewEntityManager()
	first, _ := addRefEntity(em, 2, 7, vecmath.Vec3{1, 2, 3})
	addRefEntity(em, 2, 7, vecmath.Vec3{9, 9, 9}) // 重复引用
	table := NewEntityTable(em)

	id, ok := table.Resolve(sequence.EntityRef{Kind: 2, ID: 7})
	if !ok || id != first {
		t.Errorf("Expected duplicate ref to resolve to lowest id %d, got %d (ok=%v)", first, id, ok)
	}
	if _, ok := table.Resolve(sequence.EntityRef{}); ok {
		t.Error("Zero ref must not resolve")
	}
	if _, ok := table.Resolve(sequence.EntityRef{Kind: 3, ID: 7}); ok {
		t.Error("Unknown ref must not resolve")
	}

	em.DestroyEntity(first)
	em.RemoveMarkedEntities()
	if _, ok := table.Resolve(sequence.EntityRef{Kind: 2, ID: 7}); ok {
		t.Error("Destroyed entity must not resolve before reindex")
	}
	if _, ok := table.Position(first); ok {
		t.Error("Destroyed entity must not report a position")
	}
}

// TestEntityTable_Vectors 测试坐标系读取和归一化
func TestEntityTable_Vectors(t *testing.T) {
	em := ecs.NewEntityManager()
	id, tr := addRefEntity(em, 1, 1, vecmath.Vec3{4, 0, 0})
	tr.Forward = vecmath.Vec3{2, 0, 0}
	tr.Up = vecmath.Zero
	table := NewEntityTable(em)

	pos, up, fwd, ok := table.Vectors(id)
	if !ok {
		t.Fatal("Expected vectors for entity")
	}
	if pos != (vecmath.Vec3{4, 0, 0}) || fwd != (vecmath.Vec3{1, 0, 0}) || up != vecmath.WorldUp {
		t.Errorf("Unexpected vectors pos=%v up=%v fwd=%v", pos, up, fwd)
	}

	if table.IsMoving(id) {
		t.Error("Expected stationary entity")
	}
	tr.Velocity = vecmath.Vec3{0, 0, 1}
	if !table.IsMoving(id) {
		t.Error("Expected moving entity")
	}
}

// TestEntityTable_Nodes 测试区域解析和跟踪
func TestEntityTable_Nodes(t *testing.T) {
	em := ecs.NewEntityManager()
	addRegion(em, "rmHall", 2, vecmath.Vec3{10, -5, -10}, vecmath.Vec3{30, 5, 10})
	addRegion(em, "rmMain", 1, vecmath.Vec3{-10, -5, -10}, vecmath.Vec3{10, 5, 10})
	table := NewEntityTable(em)

	if tag, ok := table.ResolveNode("rmHall"); !ok || tag != 2 {
		t.Errorf("Expected rmHall=2, got %d (ok=%v)", tag, ok)
	}
	if _, ok := table.ResolveNode("rmAttic"); ok {
		t.Error("Unknown node must not resolve")
	}

	tests := []struct {
		name     string
		current  components.NodeTag
		prev     vecmath.Vec3
		next     vecmath.Vec3
		expected components.NodeTag
	}{
		{"stay inside", 1, vecmath.Vec3{0, 0, 0}, vecmath.Vec3{5, 0, 0}, 1},
		{"cross into hall", 1, vecmath.Vec3{5, 0, 0}, vecmath.Vec3{20, 0, 0}, 2},
		{"shared wall keeps current", 2, vecmath.Vec3{20, 0, 0}, vecmath.Vec3{10, 0, 0}, 2},
		{"outside everything keeps current", 2, vecmath.Vec3{20, 0, 0}, vecmath.Vec3{100, 0, 0}, 2},
		{"no node picks containing region", components.NoNode, vecmath.Vec3{0, 0, 0}, vecmath.Vec3{0, 0, 0}, 1},
		{"shared wall without node picks lowest tag", components.NoNode, vecmath.Vec3{0, 0, 0}, vecmath.Vec3{10, 0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.UpdateNode(tt.current, tt.prev, tt.next)
			if got != tt.expected {
				t.Errorf("Expected node %d, got %d", tt.expected, got)
			}
		})
	}
}

// TestEntityTable_Reindex 新增实体后需要重新建立索引
func TestEntityTable_Reindex(t *testing.T) {
	em := ecs.NewEntityManager()
	table := NewEntityTable(em)

	id, _ := addRefEntity(em, 5, 1, vecmath.Zero)
	if _, ok := table.Resolve(sequence.EntityRef{Kind: 5, ID: 1}); ok {
		t.Error("Expected ref to be unknown before reindex")
	}
	table.Reindex()
	if got, ok := table.Resolve(sequence.EntityRef{Kind: 5, ID: 1}); !ok || got != id {
		t.Errorf("Expected %d after reindex, got %d", id, got)
	}
}
