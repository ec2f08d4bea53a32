package systems

import (
	"fmt"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/sequence"
)

// PathSample 离线采样得到的一个 tick 的镜头姿态
type PathSample struct {
	Tick     int
	Keyframe int
	State    components.CameraState
}

// SamplePath 在独立的仲裁器和镜头副本上播放一遍序列，逐 tick 记录镜头姿态。
// 只使用 hooks 的实体和区域查询，不会发送消息或渐变请求；循环序列在第一次回绕时停止。
// 第一个样本是 SetUp 写入的初始姿态。
func SamplePath(def *sequence.Definition, hooks Hooks, tb config.Timebase, start components.CameraState, maxTicks int) ([]PathSample, error) {
	if def.Len() == 0 {
		return nil, fmt.Errorf("sequence %d: %w", def.ID, ErrNoKeyframes)
	}

	engine := NewPlaybackEngine(def, NewArbiter(), Hooks{
		Entities: hooks.Entities,
		Nodes:    hooks.Nodes,
	}, tb, EngineOptions{})
	if err := engine.Bind(); err != nil {
		return nil, err
	}

	cam := start
	engine.SetUp(&cam, 0)
	defer engine.End()

	samples := []PathSample{{Tick: 0, Keyframe: 0, State: cam}}
	dt := tb.TickSeconds()
	for tick := 1; tick <= maxTicks && engine.IsRunning(); tick++ {
		prev := engine.KeyframeIndex()
		engine.Process(dt)
		samples = append(samples, PathSample{Tick: tick, Keyframe: prev, State: cam})
		if engine.KeyframeIndex() < prev || (engine.KeyframeIndex() == 0 && engine.Elapsed() == 0) {
			break
		}
	}
	return samples, nil
}
