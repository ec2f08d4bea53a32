package config

import "math"

// Timebase 集中管理"制作帧"与"逻辑 tick"之间的换算。
// 关键帧数据按 AuthoredFPS 制作，游戏按 TPS 运行（默认 30 → 60，即帧数翻倍），
// 所有换算都必须经过这里，不允许在业务代码里写 *2。
type Timebase struct {
	TicksPerSecond    int
	AuthoredFrameRate int
}

// NewTimebase 创建时间基准，非法值回退到 60/30
func NewTimebase(tps, authoredFPS int) Timebase {
	if tps <= 0 {
		tps = 60
	}
	if authoredFPS <= 0 {
		authoredFPS = 30
	}
	return Timebase{TicksPerSecond: tps, AuthoredFrameRate: authoredFPS}
}

// TickSeconds 单个 tick 的时长（秒）
func (tb Timebase) TickSeconds() float64 {
	return 1.0 / float64(tb.TicksPerSecond)
}

// FramesToSeconds 制作帧 → 秒
func (tb Timebase) FramesToSeconds(frames int) float64 {
	return float64(frames) / float64(tb.AuthoredFrameRate)
}

// FramesToTicks 制作帧 → tick（四舍五入）
func (tb Timebase) FramesToTicks(frames int) int {
	if frames <= 0 {
		return 0
	}
	return int(math.Round(float64(frames) * float64(tb.TicksPerSecond) / float64(tb.AuthoredFrameRate)))
}

// SecondsToTicks 秒 → tick（四舍五入）
func (tb Timebase) SecondsToTicks(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(tb.TicksPerSecond)))
}
