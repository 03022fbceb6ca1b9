package avi

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap/zapcore"
)

/*
FrameRecord is an element of the `idx1` index describing one data chunk of the `movi` list.

	|`Chunk_ID`|`Flags`  |`Offset` |`Length` |
	|----------|---------|---------|---------|
	| 4 bytes  | 4 bytes | 4 bytes | 4 bytes |

`Chunk_ID` is kept as the big-endian number of its four bytes so that it encodes back to
the same bytes. The remaining fields are little-endian.

https://learn.microsoft.com/en-us/previous-versions/windows/desktop/api/aviriff/ns-aviriff-avioldindex
*/
type FrameRecord struct {
	// ID is the chunk id, e.g. `00dc`, as a big-endian number.
	ID uint32
	// Flags is a combination of FlagList, FlagKeyframe, FlagFirstPart, FlagLastPart and FlagNoTime.
	Flags uint32
	// Offset is the position of the chunk header, usually relative to the `movi` tag.
	Offset uint32
	// Length is the chunk payload size in bytes.
	Length uint32
}

func NewFrameRecord(id FourCC, flags, offset, length uint32) FrameRecord {
	return FrameRecord{
		ID:     binary.BigEndian.Uint32(id[:]),
		Flags:  flags,
		Offset: offset,
		Length: length,
	}
}

// FourCC returns the chunk id as it appears in the file.
func (r FrameRecord) FourCC() (fcc FourCC) {
	binary.BigEndian.PutUint32(fcc[:], r.ID)
	return
}

// StreamIndex returns the stream number encoded in the first two id characters.
func (r FrameRecord) StreamIndex() (int, bool) {
	fcc := r.FourCC()
	if fcc[0] < '0' || fcc[0] > '9' || fcc[1] < '0' || fcc[1] > '9' {
		return 0, false
	}
	return int(fcc[0]-'0')*10 + int(fcc[1]-'0'), true
}

func (r FrameRecord) twoCC() string {
	fcc := r.FourCC()
	return string(fcc[2:4])
}

// IsVideo reports whether the chunk holds video data (`db` or `dc`).
func (r FrameRecord) IsVideo() bool {
	cc := r.twoCC()
	return cc == "db" || cc == "dc"
}

// IsAudio reports whether the chunk holds audio data (`wb`).
func (r FrameRecord) IsAudio() bool {
	return r.twoCC() == "wb"
}

// IsKeyframe reports whether the chunk is a video keyframe.
func (r FrameRecord) IsKeyframe() bool {
	return r.IsVideo() && r.Flags&FlagKeyframe != 0
}

// IsDeltaframe reports whether the chunk is a video frame depending on previous frames.
func (r FrameRecord) IsDeltaframe() bool {
	return r.IsVideo() && r.Flags&FlagKeyframe == 0
}

func (r FrameRecord) marshalBinaryInline(dst []byte) {
	frameRecordLayout[recID].put(dst, r.ID)
	frameRecordLayout[recFlags].put(dst, r.Flags)
	frameRecordLayout[recOffset].put(dst, r.Offset)
	frameRecordLayout[recLength].put(dst, r.Length)
}

func (r FrameRecord) MarshalBinary() ([]byte, error) {
	dst := make([]byte, frameRecordSize)
	r.marshalBinaryInline(dst)
	return dst, nil
}

func (r *FrameRecord) UnmarshalBinary(p []byte) error {
	if len(p) != frameRecordSize {
		return fmt.Errorf("frame record length mismatch %d vs %d", len(p), frameRecordSize)
	}
	r.unmarshalBinaryInline(p)
	return nil
}

func (r *FrameRecord) unmarshalBinaryInline(p []byte) {
	r.ID = frameRecordLayout[recID].get(p)
	r.Flags = frameRecordLayout[recFlags].get(p)
	r.Offset = frameRecordLayout[recOffset].get(p)
	r.Length = frameRecordLayout[recLength].get(p)
}

func (r FrameRecord) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ID", r.FourCC().String())
	enc.AddUint32("Flags", r.Flags)
	enc.AddUint32("Offset", r.Offset)
	enc.AddUint32("Length", r.Length)
	return nil
}
