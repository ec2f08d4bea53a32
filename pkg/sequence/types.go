// Package sequence holds immutable camera sequence definitions and the
// catalog that loads them from storage.
package sequence

import (
	"fmt"

	"github.com/decker502/camseq/internal/camfile"
	"github.com/decker502/camseq/pkg/config"
	"github.com/decker502/camseq/pkg/vecmath"
)

// FadeType selects the screen fade requested by a keyframe.
type FadeType uint8

const (
	FadeNone FadeType = iota
	FadeBlack
	FadeWhite
)

func (f FadeType) String() string {
	switch f {
	case FadeNone:
		return "none"
	case FadeBlack:
		return "black"
	case FadeWhite:
		return "white"
	default:
		return fmt.Sprintf("fade(%d)", uint8(f))
	}
}

// Influence bits of PrevFrameInfluence / AfterFrameInfluence.
const (
	// InfluenceDirect uses the neighbor directly instead of the one-third weight.
	InfluenceDirect uint8 = 1 << 0
	// InfluenceComputed derives the tangent from the keyframe two steps away.
	InfluenceComputed uint8 = 1 << 1
)

// KeyframeFullTransform rotates the authored position into the position
// entity's right/up/forward basis instead of only translating it.
const KeyframeFullTransform uint8 = 1 << 0

// EntityRef is a weak (kind, id) reference to a game entity. Kind 0 is none.
type EntityRef struct {
	Kind uint16
	ID   uint16
}

// IsZero reports whether the reference is empty.
func (r EntityRef) IsZero() bool {
	return r.Kind == 0
}

func (r EntityRef) String() string {
	if r.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", r.Kind, r.ID)
}

// Keyframe is one authored waypoint. Times are in seconds.
type Keyframe struct {
	Position vecmath.Vec3
	ToTarget vecmath.Vec3
	Roll     float64 // degrees
	Fov      float64 // half angle, doubled when applied

	HoldTime float64
	MoveTime float64

	FadeInType  FadeType
	FadeInTime  float64
	FadeOutType FadeType
	FadeOutTime float64

	PrevFrameInfluence  uint8
	AfterFrameInfluence uint8
	Easing              float64
	Flags               uint8

	PositionEntity EntityRef
	TargetEntity   EntityRef
	MessageTarget  EntityRef

	NodeName     string
	MessageID    uint32
	MessageParam int32
}

// FrameLength is the total time spent on this keyframe.
func (k Keyframe) FrameLength() float64 {
	return k.HoldTime + k.MoveTime
}

// Definition is an immutable, ordered keyframe list.
type Definition struct {
	ID      int
	Version uint16
	Loop    bool

	keyframes []Keyframe
}

// NewDefinition copies keyframes into a new definition.
func NewDefinition(id int, version uint16, loop bool, keyframes []Keyframe) *Definition {
	kfs := make([]Keyframe, len(keyframes))
	copy(kfs, keyframes)
	return &Definition{
		ID:        id,
		Version:   version,
		Loop:      loop,
		keyframes: kfs,
	}
}

// Len returns the number of keyframes.
func (d *Definition) Len() int {
	return len(d.keyframes)
}

// Keyframe returns a copy of keyframe i. Panics when i is out of range.
func (d *Definition) Keyframe(i int) Keyframe {
	return d.keyframes[i]
}

// Duration is the sum of all keyframe lengths in seconds.
func (d *Definition) Duration() float64 {
	total := 0.0
	for i := range d.keyframes {
		total += d.keyframes[i].FrameLength()
	}
	return total
}

// FromFile converts a decoded file into a definition, translating authored
// frame counts into seconds with tb.
func FromFile(id int, f *camfile.File, tb config.Timebase, loop bool) *Definition {
	kfs := make([]Keyframe, len(f.Keyframes))
	for i := range f.Keyframes {
		kfs[i] = fromRecord(&f.Keyframes[i], tb)
	}
	return &Definition{
		ID:        id,
		Version:   f.Version,
		Loop:      loop,
		keyframes: kfs,
	}
}

func fromRecord(r *camfile.Record, tb config.Timebase) Keyframe {
	easing := r.Easing
	if easing == 0 {
		easing = 1
	}
	return Keyframe{
		Position:            vecmath.Vec3(r.Position),
		ToTarget:            vecmath.Vec3(r.ToTarget),
		Roll:                r.Roll,
		Fov:                 r.Fov,
		HoldTime:            tb.FramesToSeconds(int(r.HoldTime)),
		MoveTime:            tb.FramesToSeconds(int(r.MoveTime)),
		FadeInType:          FadeType(r.FadeInType),
		FadeInTime:          tb.FramesToSeconds(int(r.FadeInTime)),
		FadeOutType:         FadeType(r.FadeOutType),
		FadeOutTime:         tb.FramesToSeconds(int(r.FadeOutTime)),
		PrevFrameInfluence:  r.PrevFrameInfluence,
		AfterFrameInfluence: r.AfterFrameInfluence,
		Easing:              easing,
		Flags:               r.Flags,
		PositionEntity:      EntityRef{Kind: r.PositionEntity.Type, ID: r.PositionEntity.ID},
		TargetEntity:        EntityRef{Kind: r.TargetEntity.Type, ID: r.TargetEntity.ID},
		MessageTarget:       EntityRef{Kind: r.MessageTarget.Type, ID: r.MessageTarget.ID},
		NodeName:            r.NodeName,
		MessageID:           r.MessageID,
		MessageParam:        r.MessageParam,
	}
}
