package avi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	c, err := Open(makeTestAVI(t))
	require.NoError(t, err)
	l := NewLookup(c.Frames())

	assert.Equal(t, int64(len(testFrames)), l.NumFrames())
	assert.Equal(t, int64(5), l.NumVideoFrames())

	assert.Nil(t, l.GetIndexByID(-1))
	assert.Nil(t, l.GetIndexByID(l.NumFrames()))
	for i, r := range c.Frames().All() {
		e := l.GetIndexByID(int64(i))
		require.NotNil(t, e)
		assert.Equal(t, int64(i), e.ID)
		assert.Equal(t, r.ID, e.ChunkID)
		assert.Equal(t, r.Offset, e.Offset)
		assert.Equal(t, r.Length, e.Length)
		assert.Equal(t, r.IsKeyframe(), e.Keyframe)
		if !r.IsVideo() {
			assert.Equal(t, int64(-1), e.VideoID)
		}
	}
	assert.Equal(t, []int64{0, -1, 1, 2, -1, 3, 4}, []int64{
		l.GetIndexByID(0).VideoID,
		l.GetIndexByID(1).VideoID,
		l.GetIndexByID(2).VideoID,
		l.GetIndexByID(3).VideoID,
		l.GetIndexByID(4).VideoID,
		l.GetIndexByID(5).VideoID,
		l.GetIndexByID(6).VideoID,
	})
}

func TestLookupByOffset(t *testing.T) {
	t.Parallel()

	c, err := Open(makeTestAVI(t))
	require.NoError(t, err)
	l := NewLookup(c.Frames())

	for _, tab := range []struct {
		off uint32
		id  int64
	}{
		{0, -1},
		{3, -1},
		{4, 0},
		{15, 0},
		{16, 1},
		{29, 1},
		{30, 2},
		{44, 3},
		{54, 3},
		// padding byte of the odd sized chunk
		{55, -1},
		{56, 4},
		{95, 6},
		{96, -1},
		{1 << 31, -1},
	} {
		e := l.GetIndexByOffset(tab.off)
		if tab.id < 0 {
			assert.Nil(t, e, "offset %d", tab.off)
			continue
		}
		require.NotNil(t, e, "offset %d", tab.off)
		assert.Equal(t, tab.id, e.ID, "offset %d", tab.off)
	}
}

func TestLookupNearestKeyframe(t *testing.T) {
	t.Parallel()

	c, err := Open(makeTestAVI(t))
	require.NoError(t, err)
	l := NewLookup(c.Frames())

	for _, tab := range []struct {
		videoID int64
		id      int64
	}{
		{-1, -1},
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 5},
		{4, 5},
		{5, -1},
	} {
		e := l.NearestKeyframe(tab.videoID)
		if tab.id < 0 {
			assert.Nil(t, e, "video frame %d", tab.videoID)
			continue
		}
		require.NotNil(t, e, "video frame %d", tab.videoID)
		assert.Equal(t, tab.id, e.ID, "video frame %d", tab.videoID)
		assert.True(t, e.Keyframe)
	}
}

func TestLookupNoLeadingKeyframe(t *testing.T) {
	t.Parallel()

	data := testAVI{frames: []testFrame{
		{"00dc", 0, []byte("delta0")},
		{"00dc", FlagKeyframe, []byte("key1")},
		// keyframe flag on a non-video entry is not a keyframe
		{"01wb", FlagKeyframe, []byte("audio")},
		{"00dc", 0, []byte("delta2")},
	}}.build(t)
	c, err := Open(data)
	require.NoError(t, err)
	l := NewLookup(c.Frames())

	assert.Equal(t, int64(3), l.NumVideoFrames())
	assert.Nil(t, l.NearestKeyframe(0))
	assert.Equal(t, int64(1), l.NearestKeyframe(1).ID)
	assert.Equal(t, int64(1), l.NearestKeyframe(2).ID)
}

func TestLookupEmpty(t *testing.T) {
	t.Parallel()

	c, err := Open(testAVI{}.build(t))
	require.NoError(t, err)
	l := NewLookup(c.Frames())

	assert.Equal(t, int64(0), l.NumFrames())
	assert.Nil(t, l.GetIndexByID(0))
	assert.Nil(t, l.GetIndexByOffset(4))
	assert.Nil(t, l.NearestKeyframe(0))
}
