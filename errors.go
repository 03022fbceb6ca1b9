package avi

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a read needs more bytes than the buffer has left.
	ErrOutOfRange = errors.New("avi: read out of range")
	// ErrOverflow is returned when a seek cannot be applied to the current position.
	ErrOverflow = errors.New("avi: seek overflow")
	// ErrMalformed is matched by every *MalformedError.
	ErrMalformed = errors.New("avi: malformed container")
	// ErrMissingChunk is returned when a required chunk is never found.
	ErrMissingChunk = errors.New("avi: missing chunk")
	// ErrTruncatedIndex is returned when the index size is not a multiple of the entry size.
	ErrTruncatedIndex = errors.New("avi: truncated index")
	// ErrEncodeOverflow is returned when a size or count does not fit its 32-bit field.
	ErrEncodeOverflow = errors.New("avi: field overflow")
	// ErrInconsistent wraps the findings of Container.Check.
	ErrInconsistent = errors.New("avi: inconsistent container")
)

// MalformedError reports a structural tag that was missing or out of order.
type MalformedError struct {
	// Expected is the tag required at Offset.
	Expected FourCC
	// Actual is the tag found, zero if it could not be read.
	Actual FourCC
	// Offset is the position in the buffer where Expected was required.
	Offset int64
	// Err is the read failure, if any.
	Err error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("avi: malformed container: expected %q at offset %d: %v", e.Expected, e.Offset, e.Err)
	}
	return fmt.Sprintf("avi: malformed container: expected %q at offset %d, got %q", e.Expected, e.Offset, e.Actual)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
