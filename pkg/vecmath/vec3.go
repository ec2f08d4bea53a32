// Package vecmath 提供镜头序列使用的三维向量运算。
// Vec3 是值类型（栈上分配），在 YAML 中以 [x, y, z] 形式出现。
package vecmath

import "math"

// Epsilon 向量长度判零阈值
const Epsilon = 1e-9

// Vec3 三维向量
type Vec3 [3]float64

// 常用方向（Y 轴向上）
var (
	Zero    = Vec3{0, 0, 0}
	WorldUp = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, 1}
)

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize 返回单位向量；零向量返回零向量
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// NormalizeOr 归一化，长度为零时返回 fallback
func (v Vec3) NormalizeOr(fallback Vec3) Vec3 {
	l := v.Len()
	if l < Epsilon {
		return fallback
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Lerp 线性插值 a + (b-a)*t
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// LerpScalar 标量线性插值
func LerpScalar(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Combine4 计算 w0*a + w1*b + w2*c + w3*d（控制矩阵与基函数的点积）
func Combine4(w [4]float64, a, b, c, d Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = w[0]*a[i] + w[1]*b[i] + w[2]*c[i] + w[3]*d[i]
	}
	return out
}

// Basis 局部坐标系（右、上、前）
type Basis struct {
	Right, Up, Forward Vec3
}

// NewBasis 由上方向和前方向构建正交基，Right = Up × Forward
func NewBasis(up, forward Vec3) Basis {
	fwd := forward.NormalizeOr(Forward)
	right := up.Cross(fwd).Normalize()
	if right.Len() < Epsilon {
		// 前方向与上方向平行时换一个参考轴
		ref := Vec3{1, 0, 0}
		if math.Abs(fwd[0]) > 0.9 {
			ref = Vec3{0, 0, 1}
		}
		right = ref.Sub(fwd.Scale(ref.Dot(fwd))).Normalize()
	}
	return Basis{
		Right:   right,
		Up:      fwd.Cross(right),
		Forward: fwd,
	}
}

// LookBasis 构建朝向 dir 的正交基，以世界上方向为参考
func LookBasis(dir Vec3) Basis {
	return NewBasis(WorldUp, dir)
}

// Transform 把局部偏移旋转到基坐标系中：Right*x + Up*y + Forward*z
func (b Basis) Transform(local Vec3) Vec3 {
	return b.Right.Scale(local[0]).Add(b.Up.Scale(local[1])).Add(b.Forward.Scale(local[2]))
}

// Clamp01 把 t 限制在 [0, 1]，NaN 视为 0
func Clamp01(t float64) float64 {
	if t != t || t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
