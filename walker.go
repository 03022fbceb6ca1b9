package avi

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// layout holds the offsets discovered by walking the top-level chunks.
type layout struct {
	// position of the `avih` chunk size, start of the main header block
	headerOffset int64
	// position of the `movi` list type
	moviTagOffset int64
	// end of the `LIST movi` body
	moviEnd int64
	// position of the `idx1` tag
	idx1TagOffset int64
	// `idx1` payload
	indexStart int64
	indexEnd   int64
}

func isSkippable(tag FourCC) bool {
	return tag == fccLIST || tag == fccJUNK
}

func expectTag(c *Cursor, want FourCC) error {
	off := c.Position()
	got, err := c.readFourCC()
	if err != nil {
		return &MalformedError{Expected: want, Offset: off, Err: err}
	}
	if got != want {
		return &MalformedError{Expected: want, Actual: got, Offset: off}
	}
	return nil
}

// Validate checks the top-level structure: `RIFF`, file size, `AVI `, a chain of `LIST`
// and `JUNK` chunks and then `idx1`. The file size is not checked.
func Validate(data []byte) error {
	c := NewCursor(data)
	if err := expectTag(c, fccRIFF); err != nil {
		return err
	}
	if _, err := c.Seek(4, io.SeekCurrent); err != nil {
		return err
	}
	if err := expectTag(c, fccAVI); err != nil {
		return err
	}

	off := c.Position()
	tag, err := c.readFourCC()
	for err == nil && isSkippable(tag) {
		var size uint32
		size, err = c.readUint32()
		if err != nil {
			return &MalformedError{Expected: fccIdx1, Actual: tag, Offset: off,
				Err: fmt.Errorf("failed to read %q size at %d: %w", tag, off+fourCCSize, err)}
		}
		if _, err = c.Seek(int64(size), io.SeekCurrent); err != nil {
			return err
		}
		off = c.Position()
		tag, err = c.readFourCC()
	}
	if err != nil {
		return &MalformedError{Expected: fccIdx1, Offset: off, Err: err}
	}
	if tag != fccIdx1 {
		return &MalformedError{Expected: fccIdx1, Actual: tag, Offset: off}
	}
	return nil
}

// locate finds the main header, the `movi` list and the `idx1` payload.
// data must have passed Validate.
func locate(data []byte, o *options) (l layout, err error) {
	l.headerOffset, l.moviTagOffset = -1, -1

	c := NewCursor(data)
	if _, err = c.Seek(riffHeaderSize, io.SeekStart); err != nil {
		return
	}

	tag, err := c.readFourCC()
	if err != nil {
		return
	}
	for isSkippable(tag) {
		chunkOffset := c.Position() - fourCCSize

		var size uint32
		if size, err = c.readUint32(); err != nil {
			return
		}

		skip := int64(size)
		if size >= fourCCSize {
			var listType FourCC
			if listType, err = c.readFourCC(); err != nil {
				return
			}
			skip -= fourCCSize

			o.logger.Debug("visiting chunk",
				zap.Stringer("tag", tag), zap.Stringer("type", listType),
				zap.Int64("offset", chunkOffset), zap.Uint32("size", size))

			if tag == fccLIST {
				switch listType {
				case fccHdrl:
					// skip the `avih` tag, the header block starts at its size field
					l.headerOffset = c.Position() + fourCCSize
				case fccMovi:
					l.moviTagOffset = c.Position() - fourCCSize
					l.moviEnd = l.moviTagOffset + int64(size)
				}
			}
		}

		if _, err = c.Seek(skip, io.SeekCurrent); err != nil {
			return
		}
		if tag, err = c.readFourCC(); err != nil {
			return
		}
	}

	if tag != fccIdx1 {
		return l, &MalformedError{Expected: fccIdx1, Actual: tag, Offset: c.Position() - fourCCSize}
	}
	l.idx1TagOffset = c.Position() - fourCCSize

	if l.headerOffset < 0 {
		return l, fmt.Errorf("%w: %q list not found", ErrMissingChunk, fccHdrl)
	}
	if l.moviTagOffset < 0 {
		return l, fmt.Errorf("%w: %q list not found", ErrMissingChunk, fccMovi)
	}

	size, err := c.readUint32()
	if err != nil {
		return l, fmt.Errorf("failed to read %q size at %d: %w", fccIdx1, l.idx1TagOffset+fourCCSize, err)
	}
	if size%frameRecordSize != 0 && !o.lenientIndex {
		return l, fmt.Errorf("%w: index size %d is not a multiple of %d", ErrTruncatedIndex, size, frameRecordSize)
	}
	l.indexStart = c.Position()
	if _, err = c.ReadExact(int(size)); err != nil {
		return l, fmt.Errorf("failed to read %q payload: %w", fccIdx1, err)
	}
	l.indexEnd = c.Position()

	if _, err = c.Seek(l.headerOffset, io.SeekStart); err != nil {
		return
	}
	if _, err = c.ReadExact(mainHeaderSize); err != nil {
		return l, fmt.Errorf("failed to read main header: %w", err)
	}

	o.logger.Debug("located chunks",
		zap.Int64("headerOffset", l.headerOffset),
		zap.Int64("moviTagOffset", l.moviTagOffset),
		zap.Int64("moviEnd", l.moviEnd),
		zap.Int64("idx1TagOffset", l.idx1TagOffset),
		zap.Int64("indexSize", l.indexEnd-l.indexStart))
	return l, nil
}
