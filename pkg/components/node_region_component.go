package components

import "github.com/decker502/camseq/pkg/vecmath"

// NodeRegionComponent 一个命名区域（房间）的轴对齐包围盒
type NodeRegionComponent struct {
	Name string
	Tag  NodeTag
	Min  vecmath.Vec3
	Max  vecmath.Vec3
}

// Contains 判断点是否在区域内（含边界）
func (r *NodeRegionComponent) Contains(p vecmath.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < r.Min[i] || p[i] > r.Max[i] {
			return false
		}
	}
	return true
}
