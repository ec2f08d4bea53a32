package systems

import (
	"sort"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

// EntityTable 基于 EntityManager 实现 EntityView 和 NodeResolver。
// 引用解析使用 Reindex 时建立的 (kind, id) -> EntityID 索引；
// 读取位置时每次都查询组件，实体被销毁后自然返回 ok=false。
type EntityTable struct {
	entityManager *ecs.EntityManager
	byRef         map[sequence.EntityRef]ecs.EntityID
	regions       []ecs.EntityID // 按 Tag 排序的区域实体
}

// NewEntityTable 创建实体表并立即建立索引
func NewEntityTable(em *ecs.EntityManager) *EntityTable {
	t := &EntityTable{entityManager: em}
	t.Reindex()
	return t
}

// Reindex 重新扫描实体引用和区域。实体增删后、绑定序列之前调用。
func (t *EntityTable) Reindex() {
	t.byRef = make(map[sequence.EntityRef]ecs.EntityID)
	for _, id := range ecs.GetEntitiesWith1[*components.EntityRefComponent](t.entityManager) {
		ref, _ := ecs.GetComponent[*components.EntityRefComponent](t.entityManager, id)
		key := sequence.EntityRef{Kind: ref.Kind, ID: ref.ID}
		// 重复引用取 EntityID 最小者，保证结果与 map 遍历顺序无关
		if prev, ok := t.byRef[key]; !ok || id < prev {
			t.byRef[key] = id
		}
	}

	t.regions = ecs.GetEntitiesWith1[*components.NodeRegionComponent](t.entityManager)
	sort.Slice(t.regions, func(i, j int) bool {
		ri, _ := ecs.GetComponent[*components.NodeRegionComponent](t.entityManager, t.regions[i])
		rj, _ := ecs.GetComponent[*components.NodeRegionComponent](t.entityManager, t.regions[j])
		return ri.Tag < rj.Tag
	})
}

// Resolve implements EntityView.
func (t *EntityTable) Resolve(ref sequence.EntityRef) (ecs.EntityID, bool) {
	if ref.IsZero() {
		return ecs.InvalidEntity, false
	}
	id, ok := t.byRef[ref]
	if !ok || !t.entityManager.Exists(id) {
		return ecs.InvalidEntity, false
	}
	return id, true
}

func (t *EntityTable) transform(id ecs.EntityID) (*components.TransformComponent, bool) {
	if !t.entityManager.Exists(id) {
		return nil, false
	}
	return ecs.GetComponent[*components.TransformComponent](t.entityManager, id)
}

// Position implements EntityView.
func (t *EntityTable) Position(id ecs.EntityID) (vecmath.Vec3, bool) {
	tr, ok := t.transform(id)
	if !ok {
		return vecmath.Zero, false
	}
	return tr.Position, true
}

// Vectors implements EntityView.
func (t *EntityTable) Vectors(id ecs.EntityID) (pos, up, fwd vecmath.Vec3, ok bool) {
	tr, ok := t.transform(id)
	if !ok {
		return vecmath.Zero, vecmath.WorldUp, vecmath.Forward, false
	}
	return tr.Position, tr.Up.NormalizeOr(vecmath.WorldUp), tr.Forward.NormalizeOr(vecmath.Forward), true
}

// Node implements EntityView.
func (t *EntityTable) Node(id ecs.EntityID) components.NodeTag {
	tr, ok := t.transform(id)
	if !ok {
		return components.NoNode
	}
	return tr.Node
}

// IsMoving implements EntityView.
func (t *EntityTable) IsMoving(id ecs.EntityID) bool {
	tr, ok := t.transform(id)
	return ok && tr.IsMoving()
}

// ResolveNode implements NodeResolver.
func (t *EntityTable) ResolveNode(name string) (components.NodeTag, bool) {
	for _, id := range t.regions {
		r, ok := ecs.GetComponent[*components.NodeRegionComponent](t.entityManager, id)
		if ok && r.Name == name {
			return r.Tag, true
		}
	}
	return components.NoNode, false
}

// UpdateNode implements NodeResolver.
// 仍在当前区域内时保持不变，否则取包含新位置的第一个区域；都不包含时保持不变。
func (t *EntityTable) UpdateNode(current components.NodeTag, prev, next vecmath.Vec3) components.NodeTag {
	if prev == next && current != components.NoNode {
		return current
	}
	if r := t.region(current); r != nil && r.Contains(next) {
		return current
	}
	if tag := t.NodeAt(next); tag != components.NoNode {
		return tag
	}
	return current
}

// NodeAt 返回包含 p 的区域
func (t *EntityTable) NodeAt(p vecmath.Vec3) components.NodeTag {
	for _, id := range t.regions {
		r, ok := ecs.GetComponent[*components.NodeRegionComponent](t.entityManager, id)
		if ok && r.Contains(p) {
			return r.Tag
		}
	}
	return components.NoNode
}

func (t *EntityTable) region(tag components.NodeTag) *components.NodeRegionComponent {
	if tag == components.NoNode {
		return nil
	}
	for _, id := range t.regions {
		r, ok := ecs.GetComponent[*components.NodeRegionComponent](t.entityManager, id)
		if ok && r.Tag == tag {
			return r
		}
	}
	return nil
}
