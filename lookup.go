package avi

import (
	"math"

	"github.com/google/btree"

	"github.com/SaveTheRbtz/avi-index-go/env"
)

// Lookup answers positional queries over a frame index.
// It is immutable after construction and can be used concurrently.
type Lookup struct {
	entries   []*env.FrameEntry
	byOffset  *btree.BTreeG[*env.FrameEntry]
	keyframes *btree.BTreeG[*env.FrameEntry]

	numVideo int64
}

func NewLookup(x FrameIndex) *Lookup {
	l := Lookup{
		entries:   make([]*env.FrameEntry, 0, x.Len()),
		byOffset:  btree.NewG[*env.FrameEntry](16, env.LessByOffset),
		keyframes: btree.NewG[*env.FrameEntry](16, env.LessByVideoID),
	}

	for i, r := range x.All() {
		e := env.FrameEntry{
			ID:       int64(i),
			VideoID:  -1,
			ChunkID:  r.ID,
			Flags:    r.Flags,
			Offset:   r.Offset,
			Length:   r.Length,
			Keyframe: r.IsKeyframe(),
		}
		if r.IsVideo() {
			e.VideoID = l.numVideo
			l.numVideo++
		}

		l.entries = append(l.entries, &e)
		l.byOffset.ReplaceOrInsert(&e)
		if e.Keyframe {
			l.keyframes.ReplaceOrInsert(&e)
		}
	}
	return &l
}

// NumFrames returns the number of index entries.
func (l *Lookup) NumFrames() int64 {
	return int64(len(l.entries))
}

// NumVideoFrames returns the number of video entries.
func (l *Lookup) NumVideoFrames() int64 {
	return l.numVideo
}

// GetIndexByID returns the entry with the given sequence number,
// nil if id is less than 0 or not less than NumFrames().
func (l *Lookup) GetIndexByID(id int64) *env.FrameEntry {
	if id < 0 || id >= int64(len(l.entries)) {
		return nil
	}
	return l.entries[id]
}

// GetIndexByOffset returns the entry whose chunk contains the given `movi` offset,
// nil if no chunk does.
func (l *Lookup) GetIndexByOffset(off uint32) (found *env.FrameEntry) {
	l.byOffset.DescendLessOrEqual(&env.FrameEntry{Offset: off, ID: math.MaxInt64}, func(e *env.FrameEntry) bool {
		found = e
		return false
	})
	if found != nil && uint64(off) >= found.End() {
		return nil
	}
	return
}

// NearestKeyframe returns the last keyframe at or before the video frame with the given
// sequence number, i.e. where decoding has to start to display it.
// Returns nil if videoID is out of range or no keyframe precedes it.
func (l *Lookup) NearestKeyframe(videoID int64) (found *env.FrameEntry) {
	if videoID < 0 || videoID >= l.numVideo {
		return nil
	}
	l.keyframes.DescendLessOrEqual(&env.FrameEntry{VideoID: videoID}, func(e *env.FrameEntry) bool {
		found = e
		return false
	})
	return
}
