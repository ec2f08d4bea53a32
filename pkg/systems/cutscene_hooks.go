package systems

import (
	"errors"
	"log"

	"github.com/decker502/camseq/pkg/components"
	"github.com/decker502/camseq/pkg/ecs"
	"github.com/decker502/camseq/pkg/sequence"
	"github.com/decker502/camseq/pkg/vecmath"
)

// 数据完整性错误：属于内容/构建问题，不是可恢复的运行时错误
var (
	ErrUnresolvedNode = errors.New("camseq: unresolved node tag")
	ErrMissingCamera  = errors.New("camseq: no live camera reference")
	ErrNoKeyframes    = errors.New("camseq: sequence has no keyframes")
)

// integrityFailure 报告完整性断言失败。
// strict（调试构建）时直接 panic，否则记录日志后继续。
func integrityFailure(strict bool, err error) {
	if strict {
		panic(err)
	}
	log.Printf("[CameraSequence] Warning: integrity check failed: %v", err)
}

// MessageSender 消息总线（发出即忘）
type MessageSender interface {
	Send(msg uint32, sender, target ecs.EntityID, param, extra int32)
}

// FadeRequester 屏幕淡入淡出子系统
type FadeRequester interface {
	RequestFade(kind sequence.FadeType, ticks int, overwrite bool)
}

// EntityView 对实体的只读访问。镜头序列只在绑定阶段解析引用，之后只保存 EntityID。
type EntityView interface {
	Resolve(ref sequence.EntityRef) (ecs.EntityID, bool)
	Position(id ecs.EntityID) (vecmath.Vec3, bool)
	Vectors(id ecs.EntityID) (pos, up, fwd vecmath.Vec3, ok bool)
	Node(id ecs.EntityID) components.NodeTag
	IsMoving(id ecs.EntityID) bool
}

// NodeResolver 区域（节点）解析
type NodeResolver interface {
	ResolveNode(name string) (components.NodeTag, bool)
	UpdateNode(current components.NodeTag, prev, next vecmath.Vec3) components.NodeTag
}

// PlayerController 本地玩家
type PlayerController interface {
	IsDead() bool
	IsAltForm() bool
	// ForceForm 强制切换到 alt 形态（true）或双足形态（false）
	ForceForm(alt bool)
	ClearFormOverride()
}

// HUD 过场开始时需要清理的界面元素
type HUD interface {
	CloseDialogs()
	ClearDisruption()
	ResetTargeting()
}

// CameraHost 游戏镜头的拥有者。过场结束后镜头控制权交还给它。
type CameraHost interface {
	LiveCamera() *components.CameraState
	ReturnCameraOwnership()
	RefreshCamera()
}

// Hooks 过场引擎依赖的所有外部协作者。nil 成员替换为空实现。
type Hooks struct {
	Messages MessageSender
	Fades    FadeRequester
	Entities EntityView
	Nodes    NodeResolver
	Player   PlayerController
	HUD      HUD
	Camera   CameraHost
}

func (h Hooks) withDefaults() Hooks {
	if h.Messages == nil {
		h.Messages = noopHooks{}
	}
	if h.Fades == nil {
		h.Fades = noopHooks{}
	}
	if h.Entities == nil {
		h.Entities = noopHooks{}
	}
	if h.Nodes == nil {
		h.Nodes = noopHooks{}
	}
	if h.Player == nil {
		h.Player = noopHooks{}
	}
	if h.HUD == nil {
		h.HUD = noopHooks{}
	}
	if h.Camera == nil {
		h.Camera = noopHooks{}
	}
	return h
}

// noopHooks 所有接口的空实现
type noopHooks struct{}

func (noopHooks) Send(uint32, ecs.EntityID, ecs.EntityID, int32, int32) {}
func (noopHooks) RequestFade(sequence.FadeType, int, bool)              {}

func (noopHooks) Resolve(sequence.EntityRef) (ecs.EntityID, bool) { return ecs.InvalidEntity, false }
func (noopHooks) Position(ecs.EntityID) (vecmath.Vec3, bool)      { return vecmath.Zero, false }
func (noopHooks) Vectors(ecs.EntityID) (vecmath.Vec3, vecmath.Vec3, vecmath.Vec3, bool) {
	return vecmath.Zero, vecmath.WorldUp, vecmath.Forward, false
}
func (noopHooks) Node(ecs.EntityID) components.NodeTag { return components.NoNode }
func (noopHooks) IsMoving(ecs.EntityID) bool           { return false }

func (noopHooks) ResolveNode(string) (components.NodeTag, bool) { return components.NoNode, false }
func (noopHooks) UpdateNode(cur components.NodeTag, _, _ vecmath.Vec3) components.NodeTag {
	return cur
}

func (noopHooks) IsDead() bool       { return false }
func (noopHooks) IsAltForm() bool    { return false }
func (noopHooks) ForceForm(bool)     {}
func (noopHooks) ClearFormOverride() {}

func (noopHooks) CloseDialogs()    {}
func (noopHooks) ClearDisruption() {}
func (noopHooks) ResetTargeting()  {}

func (noopHooks) LiveCamera() *components.CameraState { return nil }
func (noopHooks) ReturnCameraOwnership()              {}
func (noopHooks) RefreshCamera()                      {}
