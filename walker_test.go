package avi

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(makeTestAVI(t)))
	require.NoError(t, Validate(testAVI{
		frames:     testFrames,
		junkBefore: make([]byte, 16),
		junkAfter:  []byte("padding!"),
	}.build(t)))
	// the index may be empty
	require.NoError(t, Validate(testAVI{}.build(t)))
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	valid := makeTestAVI(t)

	rifx := append([]byte(nil), valid...)
	copy(rifx, "RIFX")

	notAVI := append([]byte(nil), valid...)
	copy(notAVI[8:], "WAVE")

	// RIFF + size + AVI + LIST + size + body, then a tag other than idx1
	wrongTerminal := []byte("RIFF\x00\x00\x00\x00AVI LIST\x04\x00\x00\x00hdrlmovi\x00\x00\x00\x00")

	// the same, ending right after the list
	noTerminal := []byte("RIFF\x00\x00\x00\x00AVI LIST\x04\x00\x00\x00hdrl")

	for _, tab := range []struct {
		name     string
		data     []byte
		expected FourCC
		actual   FourCC
		offset   int64
		readErr  bool
	}{
		{"rifx", rifx, fccRIFF, fourCC("RIFX"), 0, false},
		{"wave", notAVI, fccAVI, fourCC("WAVE"), 8, false},
		{"empty", nil, fccRIFF, FourCC{}, 0, true},
		{"short", []byte("RIFF\x00\x00"), fccAVI, FourCC{}, 8, true},
		{"wrong terminal", wrongTerminal, fccIdx1, fccMovi, 24, false},
		{"no terminal", noTerminal, fccIdx1, FourCC{}, 24, true},
		{"no chain", []byte("RIFF\x00\x00\x00\x00AVI movi"), fccIdx1, fccMovi, 12, false},
		{"truncated size", []byte("RIFF\x00\x00\x00\x00AVI LIST\x04\x00"), fccIdx1, fccLIST, 12, true},
		{"no size", []byte("RIFF\x00\x00\x00\x00AVI JUNK"), fccIdx1, fccJUNK, 12, true},
	} {
		tab := tab
		t.Run(tab.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tab.data)
			require.ErrorIs(t, err, ErrMalformed)

			var malformed *MalformedError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tab.expected, malformed.Expected)
			assert.Equal(t, tab.actual, malformed.Actual)
			assert.Equal(t, tab.offset, malformed.Offset)
			if tab.readErr {
				assert.ErrorIs(t, err, ErrOutOfRange)
			}
			assert.Contains(t, err.Error(), tab.expected.String())

			_, err = Open(tab.data)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestValidateChunkSizePastEnd(t *testing.T) {
	t.Parallel()

	data := makeTestAVI(t)
	// hdrl list size
	binary.LittleEndian.PutUint32(data[16:], uint32(len(data)))

	err := Validate(data)
	require.ErrorIs(t, err, ErrMalformed)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	o := options{}
	o.setDefault()

	data := makeTestAVI(t)
	l, err := locate(data, &o)
	require.NoError(t, err)

	assert.Equal(t, int64(28), l.headerOffset)
	assert.Equal(t, int64(96), l.moviTagOffset)
	assert.Equal(t, []byte("movi"), data[l.moviTagOffset:l.moviTagOffset+4])
	assert.Equal(t, []byte("idx1"), data[l.idx1TagOffset:l.idx1TagOffset+4])
	assert.Equal(t, l.moviEnd, l.idx1TagOffset)
	assert.Equal(t, l.idx1TagOffset+8, l.indexStart)
	assert.Equal(t, int64(len(data)), l.indexEnd)
	assert.Equal(t, int64(len(testFrames)*frameRecordSize), l.indexEnd-l.indexStart)

	// JUNK chunks shift the movi list but not the header
	data = testAVI{
		frames:     testFrames,
		junkBefore: make([]byte, 10),
		junkAfter:  make([]byte, 2),
		trailer:    []byte("tail"),
	}.build(t)
	l, err = locate(data, &o)
	require.NoError(t, err)
	assert.Equal(t, int64(28), l.headerOffset)
	assert.Equal(t, int64(96+8+10), l.moviTagOffset)
	assert.Equal(t, l.moviEnd+8+2, l.idx1TagOffset)
	assert.Equal(t, int64(len(data)-4), l.indexEnd)
}

func TestLocateMissingChunks(t *testing.T) {
	t.Parallel()

	o := options{}
	o.setDefault()

	hdrl := append([]byte("hdrlavih"), make([]byte, mainHeaderChunkSize+4)...)

	noMovi := []byte("RIFF\x00\x00\x00\x00AVI ")
	noMovi = appendChunk(noMovi, "LIST", hdrl)
	noMovi = appendChunk(noMovi, "idx1", nil)
	require.NoError(t, Validate(noMovi))
	_, err := locate(noMovi, &o)
	require.ErrorIs(t, err, ErrMissingChunk)
	assert.Contains(t, err.Error(), "movi")

	noHdrl := []byte("RIFF\x00\x00\x00\x00AVI ")
	noHdrl = appendChunk(noHdrl, "JUNK", hdrl)
	noHdrl = appendChunk(noHdrl, "LIST", []byte("movi"))
	noHdrl = appendChunk(noHdrl, "idx1", nil)
	require.NoError(t, Validate(noHdrl))
	_, err = Open(noHdrl)
	require.ErrorIs(t, err, ErrMissingChunk)
	assert.Contains(t, err.Error(), "hdrl")

	// a tiny JUNK chunk has no list type to read
	tinyJunk := []byte("RIFF\x00\x00\x00\x00AVI ")
	tinyJunk = appendChunk(tinyJunk, "JUNK", []byte{0, 0})
	tinyJunk = appendChunk(tinyJunk, "LIST", hdrl)
	tinyJunk = appendChunk(tinyJunk, "LIST", []byte("movi"))
	tinyJunk = appendChunk(tinyJunk, "idx1", nil)
	l, err := locate(tinyJunk, &o)
	require.NoError(t, err)
	assert.Equal(t, int64(12+10+8+8), l.headerOffset)
}

func TestLocateIndexErrors(t *testing.T) {
	t.Parallel()

	data := makeTestAVI(t)
	sizeOffset := len(data) - len(testFrames)*frameRecordSize - 4

	truncated := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(truncated[sizeOffset:], uint32(len(testFrames)*frameRecordSize-1))
	_, err := Open(truncated)
	require.ErrorIs(t, err, ErrTruncatedIndex)

	c, err := Open(truncated, WithLenientIndex())
	require.NoError(t, err)
	assert.Equal(t, len(testFrames)-1, c.Frames().Len())

	tooLong := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(tooLong[sizeOffset:], uint32(len(testFrames)+1)*frameRecordSize)
	_, err = Open(tooLong)
	require.ErrorIs(t, err, ErrOutOfRange)

	noSize := data[:sizeOffset]
	_, err = Open(noSize)
	require.ErrorIs(t, err, ErrOutOfRange)
}
