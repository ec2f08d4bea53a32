package systems

import (
	"math"

	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

// rollEpsilon 小于该值（度）的翻滚角视为 0
const rollEpsilon = 0.01

// blendedPose 混合后的镜头姿态（尚未叠加过渡）
type blendedPose struct {
	position vecmath.Vec3
	offset   vecmath.Vec3 // 位置到注视点的偏移
	roll     float64
	fov      float64 // 半角
}

// resolvedFrame 解算实体引用后的关键帧位置和注视偏移
type resolvedFrame struct {
	position vecmath.Vec3
	offset   vecmath.Vec3
}

// bezierBasis 三次 Bézier 基函数 [(1-t)^3, 3t(1-t)^2, 3t^2(1-t), t^3]
func bezierBasis(t float64) [4]float64 {
	u := 1 - t
	return [4]float64{u * u * u, 3 * t * u * u, 3 * t * t * u, t * t * t}
}

// movePercent 关键帧移动阶段的进度 [0, 1]。
// MoveTime 为 0 时是硬切：停留阶段为 0，之后为 1。
func movePercent(kf sequence.Keyframe, elapsed float64) float64 {
	if kf.MoveTime <= 0 {
		if elapsed < kf.HoldTime {
			return 0
		}
		return 1
	}
	return vecmath.Clamp01((elapsed - kf.HoldTime) / kf.MoveTime)
}

// blendFactor 把移动进度映射为当前帧到下一帧的混合系数 f。
// 影响权重 [0, prev, after, 1] 与 Bézier 基函数点积；默认权重 1/3、2/3 时 f == t。
func blendFactor(kf sequence.Keyframe, t float64) float64 {
	prevW := 1.0 / 3.0
	if kf.PrevFrameInfluence&sequence.InfluenceDirect != 0 {
		prevW = 0
	}
	afterW := 2.0 / 3.0
	if kf.AfterFrameInfluence&sequence.InfluenceDirect != 0 {
		afterW = 1
	}
	b := bezierBasis(t)
	return b[1]*prevW + b[2]*afterW + b[3]
}

// usesSpline 当前关键帧是否需要四点样条
func usesSpline(kf sequence.Keyframe) bool {
	if kf.MoveTime <= 0 {
		return false
	}
	return (kf.PrevFrameInfluence|kf.AfterFrameInfluence)&sequence.InfluenceComputed != 0
}

// clampIndex 把下标限制在 [0, n-1]
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// blend 计算当前关键帧下标和已用时间对应的姿态
func (e *PlaybackEngine) blend() blendedPose {
	n := e.def.Len()
	i := clampIndex(e.keyframeIndex, n)
	next := clampIndex(i+1, n)
	cur := e.def.Keyframe(i)
	nxt := e.def.Keyframe(next)

	f := blendFactor(cur, movePercent(cur, e.keyframeElapsed))
	p1 := e.resolveFrame(i)
	p2 := e.resolveFrame(next)

	pose := blendedPose{
		roll: vecmath.LerpScalar(cur.Roll, nxt.Roll, f),
		fov:  vecmath.LerpScalar(cur.Fov, nxt.Fov, f),
	}

	if !usesSpline(cur) {
		pose.position = vecmath.Lerp(p1.position, p2.position, f)
		pose.offset = vecmath.Lerp(p1.offset, p2.offset, f)
		return pose
	}

	// 四点样条：[当前, before, after, 下一帧]
	var before, after resolvedFrame
	if prev := i - 1; cur.PrevFrameInfluence&sequence.InfluenceComputed != 0 && prev >= 0 && e.def.Keyframe(prev).MoveTime > 0 {
		p0 := e.resolveFrame(prev)
		s := cur.Easing * cur.MoveTime / (3 * (e.def.Keyframe(prev).MoveTime + cur.MoveTime))
		before.position = p1.position.Add(p2.position.Sub(p0.position).Scale(s))
		before.offset = p1.offset.Add(p2.offset.Sub(p0.offset).Scale(s))
	} else {
		before.position = reflectedBefore(p1.position, p2.position, cur.Easing)
		before.offset = reflectedBefore(p1.offset, p2.offset, cur.Easing)
	}

	if far := i + 2; cur.AfterFrameInfluence&sequence.InfluenceComputed != 0 && far <= n-1 && nxt.MoveTime > 0 {
		p3 := e.resolveFrame(far)
		s := nxt.Easing * cur.MoveTime / (3 * (cur.MoveTime + nxt.MoveTime))
		after.position = p2.position.Sub(p3.position.Sub(p1.position).Scale(s))
		after.offset = p2.offset.Sub(p3.offset.Sub(p1.offset).Scale(s))
	} else {
		after.position = reflectedAfter(p1.position, p2.position, nxt.Easing)
		after.offset = reflectedAfter(p1.offset, p2.offset, nxt.Easing)
	}

	w := bezierBasis(f)
	pose.position = vecmath.Combine4(w, p1.position, before.position, after.position, p2.position)
	pose.offset = vecmath.Combine4(w, p1.offset, before.offset, after.offset, p2.offset)
	return pose
}

// reflectedBefore 缺少可用的前一帧时，以 P0 = 2*P1 - P2 对称外推
func reflectedBefore(p1, p2 vecmath.Vec3, easing float64) vecmath.Vec3 {
	p0 := p1.Scale(2).Sub(p2)
	return p1.Add(p2.Sub(p0).Scale(easing / 6))
}

// reflectedAfter 缺少可用的后两帧时，以 P3 = 2*P2 - P1 对称外推
func reflectedAfter(p1, p2 vecmath.Vec3, easing float64) vecmath.Vec3 {
	p3 := p2.Scale(2).Sub(p1)
	return p2.Sub(p3.Sub(p1).Scale(easing / 6))
}

// resolveFrame 按绑定的实体引用解算关键帧 i 的绝对位置和注视偏移
func (e *PlaybackEngine) resolveFrame(i int) resolvedFrame {
	kf := e.def.Keyframe(i)
	b := e.binding(i)
	out := resolvedFrame{position: kf.Position, offset: kf.ToTarget}

	if b.positionEntity != 0 {
		if kf.Flags&sequence.KeyframeFullTransform != 0 {
			if pos, up, fwd, ok := e.hooks.Entities.Vectors(b.positionEntity); ok {
				basis := vecmath.NewBasis(up, fwd)
				out.position = pos.Add(basis.Transform(kf.Position))
				out.offset = basis.Transform(kf.ToTarget)
			}
		} else if pos, ok := e.hooks.Entities.Position(b.positionEntity); ok {
			out.position = pos.Add(kf.Position)
		}
	}

	if b.targetEntity != 0 {
		if target, ok := e.hooks.Entities.Position(b.targetEntity); ok {
			basis := vecmath.LookBasis(target.Sub(out.position))
			out.offset = target.Add(basis.Transform(kf.ToTarget)).Sub(out.position)
		}
	}
	return out
}

// rolledUp 把世界上方向绕朝向轴旋转 roll 度
func rolledUp(facing vecmath.Vec3, roll float64) vecmath.Vec3 {
	if math.Abs(roll) <= rollEpsilon {
		return vecmath.WorldUp
	}
	basis := vecmath.NewBasis(vecmath.WorldUp, facing)
	r := roll * math.Pi / 180
	return basis.Up.Scale(math.Cos(r)).Add(basis.Right.Scale(math.Sin(r))).Normalize()
}

// compose 把混合姿态写入镜头；过渡期间从过渡起点线性插值
func (e *PlaybackEngine) compose(p blendedPose) {
	cam := e.camera

	fov := 2 * p.fov
	pos := p.position
	target := pos.Add(p.offset)
	facing := p.offset.NormalizeOr(cam.Facing)
	up := rolledUp(facing, p.roll)

	if e.transitionTimer < e.transitionTime {
		t := float64(e.transitionTimer) / float64(e.transitionTime)
		o := e.transitionOrigin
		fov = vecmath.LerpScalar(o.Fov, fov, t)
		pos = vecmath.Lerp(o.Position, pos, t)
		target = vecmath.Lerp(o.Target, target, t)
		up = vecmath.Lerp(o.Up, up, t).NormalizeOr(up)
		facing = target.Sub(pos).NormalizeOr(facing)
	}

	cam.Fov = fov
	cam.Position = pos
	cam.Target = target
	cam.Up = up
	cam.Facing = facing
}
