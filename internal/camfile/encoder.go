package camfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode packs a camera sequence into the binary layout understood by Parse.
// Values are quantized to Q20.12, so a round trip is exact only for values
// representable in that format.
func Encode(f *File) ([]byte, error) {
	if len(f.Keyframes) > math.MaxUint16 {
		return nil, fmt.Errorf("camfile: too many keyframes (%d)", len(f.Keyframes))
	}

	buf := make([]byte, HeaderSize+len(f.Keyframes)*RecordSize)
	binary.LittleEndian.PutUint16(buf[0:2], f.Version)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(f.Keyframes)))

	for i := range f.Keyframes {
		rec := &f.Keyframes[i]
		if len(rec.NodeName) >= NodeNameSize {
			return nil, fmt.Errorf("camfile: keyframe %d node name %q exceeds %d bytes", i, rec.NodeName, NodeNameSize-1)
		}
		off := HeaderSize + i*RecordSize
		w := &writer{data: buf[off : off+RecordSize]}
		w.record(rec)
	}
	return buf, nil
}

type writer struct {
	data []byte
	off  int
}

func (w *writer) u8(v uint8) {
	w.data[w.off] = v
	w.off++
}

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.data[w.off:], v)
	w.off += 2
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.off:], v)
	w.off += 4
}

func (w *writer) fx(v float64) {
	w.u32(uint32(toFx32(v)))
}

func (w *writer) vec(v [3]float64) {
	w.fx(v[0])
	w.fx(v[1])
	w.fx(v[2])
}

func (w *writer) str(s string, n int) {
	copy(w.data[w.off:w.off+n], s)
	w.off += n
}

func (w *writer) ref(e EntityRef) {
	w.u16(e.Type)
	w.u16(e.ID)
}

func (w *writer) record(rec *Record) {
	w.vec(rec.Position)
	w.vec(rec.ToTarget)
	w.fx(rec.Roll)
	w.fx(rec.Fov)
	w.u16(rec.MoveTime)
	w.u16(rec.HoldTime)
	w.u16(rec.FadeInTime)
	w.u16(rec.FadeOutTime)
	w.u8(rec.FadeInType)
	w.u8(rec.FadeOutType)
	w.u8(rec.PrevFrameInfluence)
	w.u8(rec.AfterFrameInfluence)
	w.fx(rec.Easing)
	w.u8(rec.Flags)
	w.off += 3
	w.str(rec.NodeName, NodeNameSize)
	w.ref(rec.PositionEntity)
	w.ref(rec.TargetEntity)
	w.ref(rec.MessageTarget)
	w.u32(rec.MessageID)
	w.u32(uint32(rec.MessageParam))
}
