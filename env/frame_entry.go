package env

import (
	"go.uber.org/zap/zapcore"
)

// FrameEntry is the post-processed view of an index entry suitable for ordered lookups.
type FrameEntry struct {
	// ID is the sequence number of the entry in the index.
	ID int64
	// VideoID is the sequence number among video entries, -1 for other streams.
	VideoID int64

	// ChunkID is the big-endian chunk id.
	ChunkID uint32
	// Flags are the index entry flags.
	Flags uint32
	// Offset is the chunk position as stored in the index.
	Offset uint32
	// Length is the chunk payload size.
	Length uint32

	// Keyframe is set for video keyframes.
	Keyframe bool
}

func (o *FrameEntry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("ID", o.ID)
	enc.AddInt64("VideoID", o.VideoID)
	enc.AddUint32("ChunkID", o.ChunkID)
	enc.AddUint32("Flags", o.Flags)
	enc.AddUint32("Offset", o.Offset)
	enc.AddUint32("Length", o.Length)
	enc.AddBool("Keyframe", o.Keyframe)

	return nil
}

// End returns the position right after the chunk payload.
func (o *FrameEntry) End() uint64 {
	return uint64(o.Offset) + 8 + uint64(o.Length)
}

// LessByOffset orders entries by chunk position, ties broken by ID.
func LessByOffset(a, b *FrameEntry) bool {
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	return a.ID < b.ID
}

// LessByVideoID orders entries by their position among video entries.
func LessByVideoID(a, b *FrameEntry) bool {
	return a.VideoID < b.VideoID
}
