package avi

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type testFrame struct {
	id      string
	flags   uint32
	payload []byte
}

type testAVI struct {
	frames []testFrame
	// optional JUNK chunk bodies around the movi list
	junkBefore []byte
	junkAfter  []byte
	// appended after the index
	trailer []byte
}

var testFrames = []testFrame{
	{"00dc", FlagKeyframe, []byte("key0")},
	{"01wb", 0, []byte("audio0")},
	{"00dc", 0, []byte("delta1")},
	{"00dc", 0, []byte("odd")},
	{"01wb", 0, []byte("audio1")},
	{"00dc", FlagKeyframe, []byte("key4")},
	{"00dc", 0, []byte("delta5")},
}

var testHeader = MainHeader{
	MicroSecPerFrame:    40000,
	MaxBytesPerSec:      1 << 20,
	Flags:               HeaderFlagHasIndex | HeaderFlagIsInterleaved,
	Streams:             2,
	SuggestedBufferSize: 4096,
	Width:               320,
	Height:              240,
}

func appendChunk(dst []byte, id string, body []byte) []byte {
	dst = append(dst, id...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(body)))
	dst = append(dst, body...)
	if len(body)%2 == 1 {
		dst = append(dst, 0)
	}
	return dst
}

// build returns a consistent file: RIFF size, list sizes and the header frame count match.
func (a testAVI) build(tb testing.TB) []byte {
	tb.Helper()

	var movi, idx []byte
	video := 0
	for _, f := range a.frames {
		var id FourCC
		copy(id[:], f.id)
		r := NewFrameRecord(id, f.flags, uint32(fourCCSize+len(movi)), uint32(len(f.payload)))
		if r.IsVideo() {
			video++
		}
		b, err := r.MarshalBinary()
		require.NoError(tb, err)
		idx = append(idx, b...)

		movi = appendChunk(movi, f.id, f.payload)
	}

	hdr := testHeader
	hdr.TotalFrames = uint32(video)
	hdrBytes, err := hdr.MarshalBinary()
	require.NoError(tb, err)

	var hdrl []byte
	hdrl = append(hdrl, "hdrl"...)
	hdrl = append(hdrl, "avih"...)
	hdrl = append(hdrl, hdrBytes...)
	hdrl = append(hdrl, make([]byte, mainHeaderChunkSize-(mainHeaderSize-4))...)

	var b []byte
	b = append(b, "RIFF"...)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = append(b, "AVI "...)
	b = appendChunk(b, "LIST", hdrl)
	if a.junkBefore != nil {
		b = appendChunk(b, "JUNK", a.junkBefore)
	}
	b = appendChunk(b, "LIST", append([]byte("movi"), movi...))
	if a.junkAfter != nil {
		b = appendChunk(b, "JUNK", a.junkAfter)
	}
	b = appendChunk(b, "idx1", idx)
	b = append(b, a.trailer...)

	binary.LittleEndian.PutUint32(b[riffSizeOffset:], uint32(len(b)-chunkHeaderSize))
	return b
}

func makeTestAVI(tb testing.TB) []byte {
	return testAVI{frames: testFrames}.build(tb)
}

func fourCC(s string) (f FourCC) {
	copy(f[:], s)
	return
}
