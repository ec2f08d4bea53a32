package components

import "github.com/decker502/camseq/pkg/vecmath"

// CutsceneTriggerComponent 放置在关卡中的过场触发器。
// 玩家进入 Radius 范围时激活，离开时开始交接倒计时。
type CutsceneTriggerComponent struct {
	Name       string
	SequenceID int
	Position   vecmath.Vec3
	Radius     float64 // 0 表示只能由消息/按键激活

	DelayFrames int    // 激活后延迟多少制作帧再开始播放
	BlockInput  bool   // 播放期间屏蔽玩家输入
	Handoff     bool   // 支持与其他过场交接镜头
	Loop        bool   // 播放完毕后从头循环，直到被取消
	Form        string // "", "alt", "biped"

	// EndMessage 播放结束或取消时发送的消息（0 表示无）
	EndMessage       uint32
	EndMessageParam  int32
	EndMessageTarget EntityRefComponent

	// PlayerInside 上一 tick 玩家是否在触发范围内
	PlayerInside bool
}
