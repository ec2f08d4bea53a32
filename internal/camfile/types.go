// Package camfile provides data structures and codecs for camera sequence files.
// A camera sequence file holds an ordered list of keyframe records that describe
// a scripted camera path (position, look-at offset, roll, fov, timing, fades and
// side effects). Two encodings are supported: the packed little-endian binary
// format shipped with game data, and a YAML form used for authoring.
package camfile

// RecordSize is the size in bytes of one packed keyframe record.
const RecordSize = 88

// HeaderSize is the size in bytes of the packed file header.
const HeaderSize = 12

// NodeNameSize is the fixed width of the NUL-padded node name field.
const NodeNameSize = 16

// File is a decoded camera sequence file.
type File struct {
	// Version is the authoring tool version tag stored in the header
	Version uint16 `yaml:"version"`

	// Keyframes is the ordered list of keyframe records
	Keyframes []Record `yaml:"keyframes"`
}

// EntityRef is an authored (type, id) reference to another game entity.
// A zero Type means "no reference".
type EntityRef struct {
	Type uint16 `yaml:"type"`
	ID   uint16 `yaml:"id"`
}

// Record is one keyframe as authored. Times are in authored frames, angles in
// degrees; conversion to the game's tick rate happens outside this package.
type Record struct {
	// Position is the camera position, absolute or relative to PositionEntity
	Position [3]float64 `yaml:"position,flow"`

	// ToTarget is the look-at offset from Position (or from TargetEntity)
	ToTarget [3]float64 `yaml:"toTarget,flow"`

	// Roll is the camera roll in degrees
	Roll float64 `yaml:"roll,omitempty"`

	// Fov is the vertical half-angle in degrees
	Fov float64 `yaml:"fov"`

	// MoveTime is the number of frames spent moving toward the next keyframe
	MoveTime uint16 `yaml:"moveTime"`

	// HoldTime is the number of frames spent static before moving
	HoldTime uint16 `yaml:"holdTime"`

	FadeInTime  uint16 `yaml:"fadeInTime,omitempty"`
	FadeOutTime uint16 `yaml:"fadeOutTime,omitempty"`
	FadeInType  uint8  `yaml:"fadeInType,omitempty"`
	FadeOutType uint8  `yaml:"fadeOutType,omitempty"`

	// PrevFrameInfluence and AfterFrameInfluence are tangent control bits:
	// bit 0 = ease (direct neighbor weight), bit 1 = computed tangent
	PrevFrameInfluence  uint8 `yaml:"prevFrameInfluence,omitempty"`
	AfterFrameInfluence uint8 `yaml:"afterFrameInfluence,omitempty"`

	// Easing scales tangent magnitude (1.0 = Catmull-Rom)
	Easing float64 `yaml:"easing,omitempty"`

	// Flags holds per-keyframe options (bit 0 = full entity transform)
	Flags uint8 `yaml:"flags,omitempty"`

	// NodeName is the locality node the camera belongs to at this keyframe
	NodeName string `yaml:"nodeName,omitempty"`

	PositionEntity EntityRef `yaml:"positionEntity,omitempty"`
	TargetEntity   EntityRef `yaml:"targetEntity,omitempty"`
	MessageTarget  EntityRef `yaml:"messageTarget,omitempty"`

	// MessageID is dispatched when this keyframe becomes current (0 = none)
	MessageID    uint32 `yaml:"messageId,omitempty"`
	MessageParam int32  `yaml:"messageParam,omitempty"`
}

// fx32 is Q20.12 fixed point, the numeric format of the packed records.
const fxOne = 1 << 12

func toFx32(v float64) int32 {
	if v >= 0 {
		return int32(v*fxOne + 0.5)
	}
	return int32(v*fxOne - 0.5)
}

func fromFx32(v int32) float64 {
	return float64(v) / fxOne
}
