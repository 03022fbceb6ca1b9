package avi

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// MainHeader is the `avih` main AVI header. Values are passed through uninterpreted.
//
// https://learn.microsoft.com/en-us/previous-versions/windows/desktop/api/aviriff/ns-aviriff-avimainheader
type MainHeader struct {
	// MicroSecPerFrame is the number of microseconds between frames.
	MicroSecPerFrame uint32
	// MaxBytesPerSec is the approximate maximum data rate of the file.
	MaxBytesPerSec uint32
	// PaddingGranularity is the data alignment in bytes.
	PaddingGranularity uint32
	// Flags is a combination of the HeaderFlag constants.
	Flags uint32
	// TotalFrames is the number of video frames in the file.
	TotalFrames uint32
	// InitialFrames is the initial frame for interleaved files, zero otherwise.
	InitialFrames uint32
	// Streams is the number of streams in the file.
	Streams uint32
	// SuggestedBufferSize is the suggested read buffer size.
	SuggestedBufferSize uint32
	// Width of the video in pixels.
	Width uint32
	// Height of the video in pixels.
	Height uint32
}

// UnmarshalBinary decodes the 44-byte block starting at the `avih` chunk size.
// The chunk size itself is skipped.
func (h *MainHeader) UnmarshalBinary(p []byte) error {
	if len(p) < mainHeaderSize {
		return fmt.Errorf("main header length mismatch %d vs %d", len(p), mainHeaderSize)
	}
	h.MicroSecPerFrame = mainHeaderLayout[hdrMicroSecPerFrame].get(p)
	h.MaxBytesPerSec = mainHeaderLayout[hdrMaxBytesPerSec].get(p)
	h.PaddingGranularity = mainHeaderLayout[hdrPaddingGranularity].get(p)
	h.Flags = mainHeaderLayout[hdrFlags].get(p)
	h.TotalFrames = mainHeaderLayout[hdrTotalFrames].get(p)
	h.InitialFrames = mainHeaderLayout[hdrInitialFrames].get(p)
	h.Streams = mainHeaderLayout[hdrStreams].get(p)
	h.SuggestedBufferSize = mainHeaderLayout[hdrSuggestedBufferSize].get(p)
	h.Width = mainHeaderLayout[hdrWidth].get(p)
	h.Height = mainHeaderLayout[hdrHeight].get(p)
	return nil
}

// MarshalBinary encodes the 44-byte block with the standard `avih` chunk size.
// The reserved tail of the chunk is not included.
func (h *MainHeader) MarshalBinary() ([]byte, error) {
	dst := make([]byte, mainHeaderSize)
	mainHeaderLayout[hdrStructSize].put(dst, mainHeaderChunkSize)
	mainHeaderLayout[hdrMicroSecPerFrame].put(dst, h.MicroSecPerFrame)
	mainHeaderLayout[hdrMaxBytesPerSec].put(dst, h.MaxBytesPerSec)
	mainHeaderLayout[hdrPaddingGranularity].put(dst, h.PaddingGranularity)
	mainHeaderLayout[hdrFlags].put(dst, h.Flags)
	mainHeaderLayout[hdrTotalFrames].put(dst, h.TotalFrames)
	mainHeaderLayout[hdrInitialFrames].put(dst, h.InitialFrames)
	mainHeaderLayout[hdrStreams].put(dst, h.Streams)
	mainHeaderLayout[hdrSuggestedBufferSize].put(dst, h.SuggestedBufferSize)
	mainHeaderLayout[hdrWidth].put(dst, h.Width)
	mainHeaderLayout[hdrHeight].put(dst, h.Height)
	return dst, nil
}

func (h *MainHeader) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("MicroSecPerFrame", h.MicroSecPerFrame)
	enc.AddUint32("MaxBytesPerSec", h.MaxBytesPerSec)
	enc.AddUint32("PaddingGranularity", h.PaddingGranularity)
	enc.AddUint32("Flags", h.Flags)
	enc.AddUint32("TotalFrames", h.TotalFrames)
	enc.AddUint32("InitialFrames", h.InitialFrames)
	enc.AddUint32("Streams", h.Streams)
	enc.AddUint32("SuggestedBufferSize", h.SuggestedBufferSize)
	enc.AddUint32("Width", h.Width)
	enc.AddUint32("Height", h.Height)
	return nil
}

// FrameDuration returns the display time of a single frame.
func (h *MainHeader) FrameDuration() time.Duration {
	return time.Duration(h.MicroSecPerFrame) * time.Microsecond
}

// Duration returns TotalFrames times FrameDuration.
func (h *MainHeader) Duration() time.Duration {
	return time.Duration(h.TotalFrames) * h.FrameDuration()
}

func (h *MainHeader) HasIndex() bool {
	return h.Flags&HeaderFlagHasIndex != 0
}

func (h *MainHeader) IsInterleaved() bool {
	return h.Flags&HeaderFlagIsInterleaved != 0
}
