package avi

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Container is a decoded AVI file. It borrows the buffer passed to Open;
// the header and the frame index are views into that buffer.
//
// A Container must not be used concurrently with RebuildIndex.
type Container struct {
	data   []byte
	layout layout

	o options
}

// Open validates data and locates the main header, the `movi` list and the `idx1` index.
// Structural failures are reported as *MalformedError, a missing `hdrl` or `movi` list as
// ErrMissingChunk.
func Open(data []byte, opts ...Option) (*Container, error) {
	c := Container{data: data}

	c.o.setDefault()
	for _, o := range opts {
		err := o(&c.o)
		if err != nil {
			return nil, err
		}
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	l, err := locate(data, &c.o)
	if err != nil {
		return nil, err
	}
	c.layout = l

	c.o.logger.Debug("opened container",
		zap.Int("size", len(data)),
		zap.Object("header", c.headerPtr()),
		zap.Int("frames", c.Frames().Len()))

	return &c, nil
}

func (c *Container) headerPtr() *MainHeader {
	h := c.Header()
	return &h
}

// Header decodes the main header.
func (c *Container) Header() (h MainHeader) {
	// bounds were checked by locate
	_ = h.UnmarshalBinary(c.data[c.layout.headerOffset : c.layout.headerOffset+mainHeaderSize])
	return
}

// Frames returns the index entries.
func (c *Container) Frames() FrameIndex {
	return newFrameIndex(c.data[c.layout.indexStart:c.layout.indexEnd])
}

// MovieData returns the body of the `movi` list following the `movi` tag.
func (c *Container) MovieData() []byte {
	return c.data[c.layout.moviTagOffset+fourCCSize : c.layout.moviEnd]
}

// Bytes returns the whole buffer.
func (c *Container) Bytes() []byte {
	return c.data
}

// Len returns the buffer size.
func (c *Container) Len() int {
	return len(c.data)
}

// Check reports every disagreement between the derived fields and the contents:
// RIFF size, the header frame count and index entries that do not resolve to a chunk.
func (c *Container) Check() error {
	var errs error

	riffSize := int64(binary.LittleEndian.Uint32(c.data[riffSizeOffset:]))
	if want := int64(len(c.data)) - chunkHeaderSize; riffSize != want {
		errs = multierr.Append(errs, fmt.Errorf("RIFF size mismatch %d vs %d", riffSize, want))
	}

	frames := c.Frames()
	hdr := c.Header()
	if video := frames.VideoFrames(); int64(hdr.TotalFrames) != int64(video) {
		errs = multierr.Append(errs, fmt.Errorf("total frames mismatch %d vs %d", hdr.TotalFrames, video))
	}

	for i, r := range frames.All() {
		if _, err := c.Chunk(r); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("index entry %d: %w", i, err))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInconsistent, errs)
	}
	return nil
}
