package avi

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

var _ io.Seeker = (*Cursor)(nil)

// Cursor is a bounds-checked sequential reader over an in-memory buffer.
//
// Seeking past the end of the buffer is allowed, the following read fails instead.
type Cursor struct {
	data []byte
	pos  int64
}

func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Position returns the current offset.
func (c *Cursor) Position() int64 {
	return c.pos
}

// Seek sets the offset for the next read. Only io.SeekStart and io.SeekCurrent are supported.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		if offset > 0 && c.pos > math.MaxInt64-offset {
			return c.pos, fmt.Errorf("%w: %d + %d", ErrOverflow, c.pos, offset)
		}
		newOffset = c.pos + offset
	default:
		return c.pos, fmt.Errorf("unsupported whence: %d", whence)
	}

	if newOffset < 0 {
		return c.pos, fmt.Errorf("%w: offset before the start of the buffer: %d (%d + %d)",
			ErrOverflow, newOffset, c.pos, offset)
	}

	c.pos = newOffset
	return c.pos, nil
}

// ReadExact returns the next n bytes and advances past them.
// The returned slice aliases the underlying buffer.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	remaining := int64(len(c.data)) - c.pos
	if n < 0 || int64(n) > remaining {
		if remaining < 0 {
			remaining = 0
		}
		return nil, fmt.Errorf("%w: %d bytes at %d, %d available", ErrOutOfRange, n, c.pos, remaining)
	}
	p := c.data[c.pos : c.pos+int64(n) : c.pos+int64(n)]
	c.pos += int64(n)
	return p, nil
}

func (c *Cursor) readFourCC() (fcc FourCC, err error) {
	p, err := c.ReadExact(fourCCSize)
	if err != nil {
		return
	}
	copy(fcc[:], p)
	return
}

func (c *Cursor) readUint32() (uint32, error) {
	p, err := c.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}
