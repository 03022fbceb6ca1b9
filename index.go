package avi

import (
	"encoding/binary"
	"iter"
)

// FrameIndex is a view over the `idx1` entries of a container buffer.
// A trailing partial entry is ignored.
type FrameIndex struct {
	data []byte
}

func newFrameIndex(p []byte) FrameIndex {
	return FrameIndex{data: p}
}

// Len returns the number of complete entries.
func (x FrameIndex) Len() int {
	return len(x.data) / frameRecordSize
}

// At returns the i-th entry. It panics if i is out of range, like a slice index.
func (x FrameIndex) At(i int) (r FrameRecord) {
	r.unmarshalBinaryInline(x.data[i*frameRecordSize : (i+1)*frameRecordSize])
	return
}

// All yields entries in on-disk order. The sequence can be ranged over any number of times.
func (x FrameIndex) All() iter.Seq2[int, FrameRecord] {
	return func(yield func(int, FrameRecord) bool) {
		for i := 0; i < x.Len(); i++ {
			if !yield(i, x.At(i)) {
				return
			}
		}
	}
}

// Records returns a copy of all entries, suitable for editing and passing to Container.Write.
func (x FrameIndex) Records() []FrameRecord {
	records := make([]FrameRecord, 0, x.Len())
	for _, r := range x.All() {
		records = append(records, r)
	}
	return records
}

// VideoFrames returns the number of video entries.
func (x FrameIndex) VideoFrames() int {
	return countVideo(x.All())
}

func countVideo(seq iter.Seq2[int, FrameRecord]) (n int) {
	for _, r := range seq {
		if r.IsVideo() {
			n++
		}
	}
	return
}

/*
EncodeIndex returns frames formatted as an `idx1` chunk.

	|`idx1`   |`Index_Size`|`[Index_Entries]`|
	|---------|------------|-----------------|
	| 4 bytes | 4 bytes    | 16 bytes each   |

`Index_Size` is the byte size of the entries, not their count.
*/
func EncodeIndex(frames []FrameRecord) ([]byte, error) {
	size := int64(len(frames)) * frameRecordSize
	if err := checkFieldSize("index size", size); err != nil {
		return nil, err
	}

	dst := make([]byte, chunkHeaderSize+size)
	copy(dst[0:], fccIdx1[:])
	binary.LittleEndian.PutUint32(dst[4:], uint32(size))
	for i, r := range frames {
		off := chunkHeaderSize + i*frameRecordSize
		r.marshalBinaryInline(dst[off : off+frameRecordSize])
	}
	return dst, nil
}
