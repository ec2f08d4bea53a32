package systems

import (
	"log"

	"github.com/decker502/camseq/pkg/components"
)

// Arbiter 记录当前占用"活动过场"槽位的控制器，以及当前持有镜头的播放引擎。
// 同一场景的所有控制器和引擎共享一个 Arbiter；测试可以创建相互独立的实例。
type Arbiter struct {
	current     *ActivationController
	live        *PlaybackEngine
	cameraOwner *PlaybackEngine

	// 交接时从上一个引擎带过来的镜头快照，最终结束时恢复到过场前的镜头
	handoffCamera   *components.CameraState
	handoffSnapshot components.CameraState
	hasHandoff      bool
}

// NewArbiter 创建空的仲裁器
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Current 当前活动的控制器（可能为 nil）
func (a *Arbiter) Current() *ActivationController {
	return a.current
}

// Claim 占用活动槽位
func (a *Arbiter) Claim(c *ActivationController) {
	a.current = c
}

// Release 释放槽位（仅当 c 是当前持有者时）
func (a *Arbiter) Release(c *ActivationController) {
	if a.current == c {
		a.current = nil
	}
}

// Live 当前正在播放的引擎（可能为 nil）
func (a *Arbiter) Live() *PlaybackEngine {
	return a.live
}

// SetLive 标记正在播放的引擎
func (a *Arbiter) SetLive(e *PlaybackEngine) {
	a.live = e
}

// ClearLive 清除播放标记（仅当 e 是当前引擎时）
func (a *Arbiter) ClearLive(e *PlaybackEngine) {
	if a.live == e {
		a.live = nil
	}
}

// CameraOwner 当前持有镜头引用的引擎
func (a *Arbiter) CameraOwner() *PlaybackEngine {
	return a.cameraOwner
}

// claimCamera 让 e 成为唯一的镜头持有者。已有其他持有者时强制解除其引用。
func (a *Arbiter) claimCamera(e *PlaybackEngine) {
	if a.cameraOwner != nil && a.cameraOwner != e {
		log.Printf("[CutsceneArbiter] Warning: sequence %d still held the camera, detaching", a.cameraOwner.SequenceID())
		a.cameraOwner.camera = nil
	}
	a.cameraOwner = e
}

func (a *Arbiter) releaseCamera(e *PlaybackEngine) {
	if a.cameraOwner == e {
		a.cameraOwner = nil
	}
}

func (a *Arbiter) stashHandoff(cam *components.CameraState, snapshot components.CameraState) {
	a.handoffCamera = cam
	a.handoffSnapshot = snapshot
	a.hasHandoff = true
}

func (a *Arbiter) takeHandoff() (*components.CameraState, components.CameraState, bool) {
	if !a.hasHandoff {
		return nil, components.CameraState{}, false
	}
	cam, snap := a.handoffCamera, a.handoffSnapshot
	a.handoffCamera = nil
	a.handoffSnapshot = components.CameraState{}
	a.hasHandoff = false
	return cam, snap, true
}

// HasPendingHandoff 是否有尚未被接收的交接快照
func (a *Arbiter) HasPendingHandoff() bool {
	return a.hasHandoff
}
