package camfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrBadHeader is returned when the header padding is not zero or the
	// header cannot be read.
	ErrBadHeader = errors.New("camfile: invalid header")

	// ErrTruncated is returned when the data is shorter (or longer) than the
	// keyframe count in the header implies.
	ErrTruncated = errors.New("camfile: size does not match keyframe count")
)

// ParseFile reads a packed camera sequence file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera sequence '%s': %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse camera sequence '%s': %w", path, err)
	}
	return f, nil
}

// Parse decodes a packed camera sequence.
//
// Layout (little endian):
//
//	header: version u16, count u16, pad0 u32, pad1 u32 (pads must be zero)
//	count × 88-byte keyframe records
func Parse(data []byte) (*File, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadHeader, len(data))
	}

	version := binary.LittleEndian.Uint16(data[0:2])
	count := int(binary.LittleEndian.Uint16(data[2:4]))
	pad0 := binary.LittleEndian.Uint32(data[4:8])
	pad1 := binary.LittleEndian.Uint32(data[8:12])
	if pad0 != 0 || pad1 != 0 {
		return nil, fmt.Errorf("%w: non-zero padding (0x%x, 0x%x)", ErrBadHeader, pad0, pad1)
	}

	want := HeaderSize + count*RecordSize
	if len(data) != want {
		return nil, fmt.Errorf("%w: have %d bytes, want %d for %d keyframes", ErrTruncated, len(data), want, count)
	}

	f := &File{
		Version:   version,
		Keyframes: make([]Record, count),
	}
	for i := 0; i < count; i++ {
		off := HeaderSize + i*RecordSize
		r := &reader{data: data[off : off+RecordSize]}
		f.Keyframes[i] = r.record()
	}
	return f, nil
}

// reader walks a single fixed-size record; bounds are checked by Parse.
type reader struct {
	data []byte
	off  int
}

func (r *reader) u8() uint8 {
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) fx() float64 {
	return fromFx32(int32(r.u32()))
}

func (r *reader) vec() [3]float64 {
	return [3]float64{r.fx(), r.fx(), r.fx()}
}

func (r *reader) str(n int) string {
	s := r.data[r.off : r.off+n]
	r.off += n
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

func (r *reader) ref() EntityRef {
	return EntityRef{Type: r.u16(), ID: r.u16()}
}

func (r *reader) record() Record {
	var rec Record
	rec.Position = r.vec()
	rec.ToTarget = r.vec()
	rec.Roll = r.fx()
	rec.Fov = r.fx()
	rec.MoveTime = r.u16()
	rec.HoldTime = r.u16()
	rec.FadeInTime = r.u16()
	rec.FadeOutTime = r.u16()
	rec.FadeInType = r.u8()
	rec.FadeOutType = r.u8()
	rec.PrevFrameInfluence = r.u8()
	rec.AfterFrameInfluence = r.u8()
	rec.Easing = r.fx()
	rec.Flags = r.u8()
	r.off += 3 // padding
	rec.NodeName = r.str(NodeNameSize)
	rec.PositionEntity = r.ref()
	rec.TargetEntity = r.ref()
	rec.MessageTarget = r.ref()
	rec.MessageID = r.u32()
	rec.MessageParam = int32(r.u32())
	return rec
}
