package avi

import (
	"encoding/binary"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Write returns a new file built from c with the `movi` list replaced by movieData and the
// `idx1` index replaced by frames. Everything before the `movi` list, between it and the
// index, and after the index is copied unchanged.
//
// The `LIST movi` size, the RIFF size and the header frame count (number of video entries)
// are recomputed. Frame offsets are written as given, see Remux for producing consistent ones.
// The buffer of c is not modified.
func (c *Container) Write(frames []FrameRecord, movieData []byte) ([]byte, error) {
	moviSize := int64(len(movieData)) + fourCCSize
	if err := checkFieldSize("movi list size", moviSize); err != nil {
		return nil, err
	}

	index, err := EncodeIndex(frames)
	if err != nil {
		return nil, err
	}

	// up to, not including, the `LIST movi` size
	prefix := c.data[:c.layout.moviTagOffset-fourCCSize]
	between := c.data[c.layout.moviEnd:c.layout.idx1TagOffset]
	trailer := c.data[c.layout.indexEnd:]

	total := int64(len(prefix)) + 4 + moviSize + int64(len(between)) + int64(len(index)) + int64(len(trailer))
	if err := checkFieldSize("RIFF size", total-chunkHeaderSize); err != nil {
		return nil, err
	}

	dst := make([]byte, 0, total)
	dst = append(dst, prefix...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(moviSize))
	dst = append(dst, fccMovi[:]...)
	dst = append(dst, movieData...)
	dst = append(dst, between...)
	dst = append(dst, index...)
	dst = append(dst, trailer...)

	// the final length is only known once everything is assembled
	binary.LittleEndian.PutUint32(dst[riffSizeOffset:], uint32(len(dst)-chunkHeaderSize))

	headerOffset, err := c.movedOffset(c.layout.headerOffset, len(movieData))
	if err != nil {
		return nil, err
	}
	video := countVideo(slices.All(frames))
	mainHeaderLayout[hdrTotalFrames].put(dst[headerOffset:], uint32(video))

	c.o.logger.Debug("rebuilt index",
		zap.Int("frames", len(frames)),
		zap.Int("videoFrames", video),
		zap.Int("movieDataSize", len(movieData)),
		zap.Int("size", len(dst)))

	return dst, nil
}

// movedOffset maps the position of the main header block in c to its position in the
// output of Write. The block may precede the `movi` list or sit between it and the index.
func (c *Container) movedOffset(off int64, movieDataSize int) (int64, error) {
	end := off + mainHeaderSize
	switch {
	case end <= c.layout.moviTagOffset-fourCCSize:
		return off, nil
	case off >= c.layout.moviEnd && end <= c.layout.idx1TagOffset:
		oldMovieDataSize := c.layout.moviEnd - c.layout.moviTagOffset - fourCCSize
		return off + int64(movieDataSize) - oldMovieDataSize, nil
	default:
		return 0, fmt.Errorf("%w: main header at %d overlaps a rewritten region", ErrMalformed, off)
	}
}

// RebuildIndex is Write followed by replacing the buffer of c with the result.
// On error c is left unchanged.
func (c *Container) RebuildIndex(frames []FrameRecord, movieData []byte) error {
	dst, err := c.Write(frames, movieData)
	if err != nil {
		return err
	}

	l, err := locate(dst, &c.o)
	if err != nil {
		return fmt.Errorf("failed to locate chunks in rebuilt container: %w", err)
	}

	c.data = dst
	c.layout = l
	return nil
}
