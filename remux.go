package avi

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Chunk returns the data chunk, header included, that r points to.
//
// Most muxers write offsets relative to the `movi` tag, some write absolute file offsets;
// the relative interpretation is tried first. The chunk id must match r.
func (c *Container) Chunk(r FrameRecord) ([]byte, error) {
	id := r.FourCC()
	for _, base := range []int64{c.layout.moviTagOffset, 0} {
		pos := base + int64(r.Offset)
		if pos+chunkHeaderSize > int64(len(c.data)) {
			continue
		}
		if !bytes.Equal(c.data[pos:pos+fourCCSize], id[:]) {
			continue
		}
		size := int64(binary.LittleEndian.Uint32(c.data[pos+fourCCSize:]))
		end := pos + chunkHeaderSize + size
		if end > int64(len(c.data)) {
			return nil, fmt.Errorf("%w: chunk %q at %d: %d bytes past the end of the buffer",
				ErrOutOfRange, id, pos, end-int64(len(c.data)))
		}
		return c.data[pos:end:end], nil
	}
	return nil, fmt.Errorf("%w: chunk %q at offset %d", ErrMissingChunk, id, r.Offset)
}

// Payload returns the data of the chunk r points to.
func (c *Container) Payload(r FrameRecord) ([]byte, error) {
	chunk, err := c.Chunk(r)
	if err != nil {
		return nil, err
	}
	return chunk[chunkHeaderSize:], nil
}

// Digest returns the XXH64 digest of the chunk data r points to.
func (c *Container) Digest(r FrameRecord) (uint64, error) {
	p, err := c.Payload(r)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(p), nil
}

// Remux copies the chunks of frames, in order, into a new `movi` body and returns it with
// matching index entries (offsets relative to the `movi` tag). Frames may be dropped,
// reordered or repeated. The result is meant for Write or RebuildIndex.
func (c *Container) Remux(frames []FrameRecord) (movieData []byte, records []FrameRecord, err error) {
	records = make([]FrameRecord, 0, len(frames))

	// the first chunk follows the `movi` tag
	offset := int64(fourCCSize)
	for i, r := range frames {
		chunk, err := c.Chunk(r)
		if err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if err := checkFieldSize("chunk offset", offset); err != nil {
			return nil, nil, err
		}

		records = append(records, FrameRecord{
			ID:     r.ID,
			Flags:  r.Flags,
			Offset: uint32(offset),
			Length: uint32(len(chunk) - chunkHeaderSize),
		})

		movieData = append(movieData, chunk...)
		// chunks are word aligned
		if len(chunk)%2 == 1 {
			movieData = append(movieData, 0)
		}
		offset = int64(fourCCSize) + int64(len(movieData))
	}

	c.o.logger.Debug("remuxed frames",
		zap.Int("frames", len(records)),
		zap.Int("movieDataSize", len(movieData)))

	return movieData, records, nil
}
