package utils

import "math"

// Easing Functions (缓动函数)
//
// 缓动函数控制游戏镜头 MoveTo 动画的速度曲线。
// 所有函数接受进度值 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。
//
// 参考：https://easings.net/

// EaseFunc 缓动函数
type EaseFunc func(t float64) float64

// EaseLinear 线性缓动（匀速）
func EaseLinear(t float64) float64 {
	return t
}

// EaseInQuad 二次方缓入：f(t) = t²
func EaseInQuad(t float64) float64 {
	return t * t
}

// EaseOutQuad 二次方缓出：f(t) = 1 - (1-t)²
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// EaseInOutQuad 二次方缓入缓出（先加速后减速）
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// EaseOutCubic 三次方缓出
// 特点：开始快，结束慢（适合"飞向目标"的镜头）
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInOutCubic 三次方缓入缓出
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutExpo 指数缓出：f(t) = 1 - 2^(-10t)
func EaseOutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

var easingByName = map[string]EaseFunc{
	"linear":         EaseLinear,
	"easeIn":         EaseInQuad,
	"easeOut":        EaseOutQuad,
	"easeInOut":      EaseInOutQuad,
	"easeOutCubic":   EaseOutCubic,
	"easeInOutCubic": EaseInOutCubic,
	"easeOutExpo":    EaseOutExpo,
}

// EasingByName 按配置中的名称查找缓动函数，未知名称返回线性缓动和 false
func EasingByName(name string) (EaseFunc, bool) {
	if fn, ok := easingByName[name]; ok {
		return fn, true
	}
	return EaseLinear, false
}
