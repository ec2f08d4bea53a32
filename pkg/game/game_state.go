package game

import (
	"log"

	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
)

// DefaultMessageLogSize 消息日志保留的最大条数
const DefaultMessageLogSize = 64

// MessageRecord 一条已发送的消息（预览工具用于显示）
type MessageRecord struct {
	Tick   int
	ID     uint32
	Sender ecs.EntityID
	Target ecs.EntityID
	Param  int32
	Extra  int32
}

// FadeOverlay 当前屏幕渐变状态
type FadeOverlay struct {
	Kind      sequence.FadeType
	Total     int // 总 tick
	Remaining int // 剩余 tick
}

// Active 渐变是否仍在进行
func (f FadeOverlay) Active() bool {
	return f.Kind != sequence.FadeNone && f.Remaining > 0
}

// Alpha 渐变遮罩不透明度（1 → 0 线性衰减）
func (f FadeOverlay) Alpha() float64 {
	if !f.Active() || f.Total <= 0 {
		return 0
	}
	return float64(f.Remaining) / float64(f.Total)
}

// GameState 存储预览场景的全局状态。
// 实现过场系统需要的外部协作者：消息总线、屏幕渐变、玩家形态和 HUD。
type GameState struct {
	tick int

	// 消息日志（环形截断，最新的在末尾）
	messages     []MessageRecord
	maxMessages  int
	messageCount int

	fade FadeOverlay

	// 玩家状态
	PlayerDead   bool
	altForm      bool
	formOverride bool

	// HUD 状态
	DialogOpen    bool
	Disruption    float64 // 屏幕干扰强度 0~1
	TargetLocked  bool
	hudResetCount int

	settingsManager *SettingsManager
}

// 全局单例实例（这是架构规范允许的唯一全局变量）
var globalGameState *GameState

// GetGameState 返回全局 GameState 单例
// 使用延迟初始化模式，设置管理器使用降级模式（仅内存）
func GetGameState() *GameState {
	if globalGameState == nil {
		sm, _ := NewSettingsManager(nil)
		globalGameState = NewGameState(sm)
	}
	return globalGameState
}

// NewGameState 创建一个独立的状态实例（测试和工具使用）
func NewGameState(settings *SettingsManager) *GameState {
	if settings == nil {
		settings, _ = NewSettingsManager(nil)
	}
	return &GameState{
		maxMessages:     DefaultMessageLogSize,
		settingsManager: settings,
	}
}

// GetSettingsManager 返回设置管理器
func (gs *GameState) GetSettingsManager() *SettingsManager {
	return gs.settingsManager
}

// Advance 推进一个 tick，更新渐变计时
func (gs *GameState) Advance() {
	gs.tick++
	if gs.fade.Remaining > 0 {
		gs.fade.Remaining--
		if gs.fade.Remaining == 0 {
			gs.fade.Kind = sequence.FadeNone
		}
	}
	if gs.Disruption > 0 {
		gs.Disruption -= 0.02
		if gs.Disruption < 0 {
			gs.Disruption = 0
		}
	}
}

// Tick 当前 tick
func (gs *GameState) Tick() int {
	return gs.tick
}

// Send 实现消息发送（fire-and-forget，只记录）
func (gs *GameState) Send(msg uint32, sender, target ecs.EntityID, param, extra int32) {
	gs.messageCount++
	gs.messages = append(gs.messages, MessageRecord{
		Tick:   gs.tick,
		ID:     msg,
		Sender: sender,
		Target: target,
		Param:  param,
		Extra:  extra,
	})
	if over := len(gs.messages) - gs.maxMessages; over > 0 {
		gs.messages = append(gs.messages[:0], gs.messages[over:]...)
	}
	log.Printf("[GameState] Message %d from %d to %d (param=%d)", msg, sender, target, param)
}

// Messages 返回最近的消息记录（副本）
func (gs *GameState) Messages() []MessageRecord {
	out := make([]MessageRecord, len(gs.messages))
	copy(out, gs.messages)
	return out
}

// MessageCount 累计发送的消息数（不受日志截断影响）
func (gs *GameState) MessageCount() int {
	return gs.messageCount
}

// RequestFade 请求屏幕渐变。overwrite 为 false 时不打断正在进行的渐变。
func (gs *GameState) RequestFade(kind sequence.FadeType, ticks int, overwrite bool) {
	if kind == sequence.FadeNone || ticks <= 0 {
		return
	}
	if gs.fade.Active() && !overwrite {
		log.Printf("[GameState] Fade %v ignored, %v still running", kind, gs.fade.Kind)
		return
	}
	gs.fade = FadeOverlay{Kind: kind, Total: ticks, Remaining: ticks}
}

// Fade 当前渐变状态
func (gs *GameState) Fade() FadeOverlay {
	return gs.fade
}

// IsDead 实现 PlayerController
func (gs *GameState) IsDead() bool {
	return gs.PlayerDead
}

// IsAltForm 实现 PlayerController
func (gs *GameState) IsAltForm() bool {
	return gs.altForm
}

// ForceForm 过场锁定玩家形态
func (gs *GameState) ForceForm(alt bool) {
	gs.altForm = alt
	gs.formOverride = true
}

// ClearFormOverride 解除过场的形态锁定
func (gs *GameState) ClearFormOverride() {
	gs.formOverride = false
}

// SetAltForm 玩家主动切换形态（锁定期间忽略）
func (gs *GameState) SetAltForm(alt bool) bool {
	if gs.formOverride {
		return false
	}
	gs.altForm = alt
	return true
}

// FormOverridden 形态是否被过场锁定
func (gs *GameState) FormOverridden() bool {
	return gs.formOverride
}

// CloseDialogs 实现 HUD
func (gs *GameState) CloseDialogs() {
	gs.DialogOpen = false
	gs.hudResetCount++
}

// ClearDisruption 实现 HUD
func (gs *GameState) ClearDisruption() {
	gs.Disruption = 0
}

// ResetTargeting 实现 HUD
func (gs *GameState) ResetTargeting() {
	gs.TargetLocked = false
}

// HUDResets 过场开始时 HUD 被重置的次数
func (gs *GameState) HUDResets() int {
	return gs.hudResetCount
}
