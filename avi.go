package avi

import (
	"encoding/binary"
	"fmt"
	"math"
)

/*
The container is a RIFF file of form type `AVI `. Only the top level of the chunk tree
is walked, and only two payloads are decoded: the main header inside `LIST hdrl` and the
`idx1` frame index.

	|`RIFF`   |`File_Size`|`AVI `   |`[LIST/JUNK chunks]`|`idx1`   |`Index_Size`|`[Index_Entries]`|
	|---------|-----------|---------|--------------------|---------|------------|-----------------|
	| 4 bytes | 4 bytes   | 4 bytes | 8+n bytes each     | 4 bytes | 4 bytes    | 16 bytes each   |

File_Size

Size of the file not including the `RIFF` tag and the `File_Size` field itself, little-endian.

LIST/JUNK chunks

	|`LIST` or `JUNK`|`Chunk_Size`|`List_Type`|`Body`           |
	|----------------|------------|-----------|-----------------|
	| 4 bytes        | 4 bytes    | 4 bytes   | Chunk_Size-4    |

`Chunk_Size` counts `List_Type` and `Body`. The `LIST hdrl` body starts with the `avih`
main header chunk, the `LIST movi` body holds the interleaved stream data chunks.

Index_Size

Size in bytes of `Index_Entries`, i.e. 16 times the number of entries, little-endian.

https://learn.microsoft.com/en-us/windows/win32/directshow/avi-riff-file-reference
*/
const (
	fourCCSize = 4

	// RIFF + File_Size + AVI
	riffHeaderSize = 12

	// offset of File_Size
	riffSizeOffset = 4

	chunkHeaderSize = 8

	frameRecordSize = 16

	// size field of the avih chunk followed by its first 10 fields
	mainHeaderSize = 44

	// avih chunk size as written by every known muxer: 10 fields + 4 reserved
	mainHeaderChunkSize = 56

	// maximum value of any size or count field
	maxFieldValue int64 = math.MaxUint32
)

func checkFieldSize(name string, v int64) error {
	if v > maxFieldValue {
		return fmt.Errorf("%w: %s %d > %d", ErrEncodeOverflow, name, v, maxFieldValue)
	}
	return nil
}

// FourCC is a four character code identifying a chunk or a list.
type FourCC [4]byte

func (f FourCC) String() string {
	return string(f[:])
}

var (
	fccRIFF = FourCC{'R', 'I', 'F', 'F'}
	fccAVI  = FourCC{'A', 'V', 'I', ' '}
	fccLIST = FourCC{'L', 'I', 'S', 'T'}
	fccJUNK = FourCC{'J', 'U', 'N', 'K'}
	fccHdrl = FourCC{'h', 'd', 'r', 'l'}
	fccMovi = FourCC{'m', 'o', 'v', 'i'}
	fccIdx1 = FourCC{'i', 'd', 'x', '1'}
)

// Index entry flags.
const (
	// FlagList marks an entry pointing to a `LIST rec ` rather than a data chunk.
	FlagList uint32 = 0x00000001
	// FlagKeyframe marks the chunk as a keyframe.
	FlagKeyframe uint32 = 0x00000010
	// FlagFirstPart marks a chunk that needs the chunks following it.
	FlagFirstPart uint32 = 0x00000020
	// FlagLastPart marks a chunk that needs the chunks preceding it.
	FlagLastPart uint32 = 0x00000040
	// FlagNoTime marks a chunk with zero duration.
	FlagNoTime uint32 = 0x00000100
)

// Main header flags.
const (
	HeaderFlagHasIndex       uint32 = 0x00000010
	HeaderFlagMustUseIndex   uint32 = 0x00000020
	HeaderFlagIsInterleaved  uint32 = 0x00000100
	HeaderFlagWasCaptureFile uint32 = 0x00010000
	HeaderFlagCopyrighted    uint32 = 0x00020000
)

/*
fieldLayout describes one fixed-position 32-bit field of a binary block.

Main header block, starting at the `avih` chunk size:

	| # | Field                 | Offset | Order  |
	|---|-----------------------|--------|--------|
	| 0 | StructSize            | 0      | little |
	| 1 | MicroSecPerFrame      | 4      | little |
	| 2 | MaxBytesPerSec        | 8      | little |
	| 3 | PaddingGranularity    | 12     | little |
	| 4 | Flags                 | 16     | little |
	| 5 | TotalFrames           | 20     | little |
	| 6 | InitialFrames         | 24     | little |
	| 7 | Streams               | 28     | little |
	| 8 | SuggestedBufferSize   | 32     | little |
	| 9 | Width                 | 36     | little |
	|10 | Height                | 40     | little |

Index entry:

	| # | Field  | Offset | Order  |
	|---|--------|--------|--------|
	| 0 | ID     | 0      | big    |
	| 1 | Flags  | 4      | little |
	| 2 | Offset | 8      | little |
	| 3 | Length | 12     | little |
*/
type fieldLayout struct {
	Name   string
	Offset int
	Width  int
	Order  binary.ByteOrder
}

func (f fieldLayout) get(p []byte) uint32 {
	return f.Order.Uint32(p[f.Offset : f.Offset+f.Width])
}

func (f fieldLayout) put(p []byte, v uint32) {
	f.Order.PutUint32(p[f.Offset:f.Offset+f.Width], v)
}

const (
	hdrStructSize = iota
	hdrMicroSecPerFrame
	hdrMaxBytesPerSec
	hdrPaddingGranularity
	hdrFlags
	hdrTotalFrames
	hdrInitialFrames
	hdrStreams
	hdrSuggestedBufferSize
	hdrWidth
	hdrHeight
)

var mainHeaderLayout = [...]fieldLayout{
	hdrStructSize:          {"StructSize", 0, 4, binary.LittleEndian},
	hdrMicroSecPerFrame:    {"MicroSecPerFrame", 4, 4, binary.LittleEndian},
	hdrMaxBytesPerSec:      {"MaxBytesPerSec", 8, 4, binary.LittleEndian},
	hdrPaddingGranularity:  {"PaddingGranularity", 12, 4, binary.LittleEndian},
	hdrFlags:               {"Flags", 16, 4, binary.LittleEndian},
	hdrTotalFrames:         {"TotalFrames", 20, 4, binary.LittleEndian},
	hdrInitialFrames:       {"InitialFrames", 24, 4, binary.LittleEndian},
	hdrStreams:             {"Streams", 28, 4, binary.LittleEndian},
	hdrSuggestedBufferSize: {"SuggestedBufferSize", 32, 4, binary.LittleEndian},
	hdrWidth:               {"Width", 36, 4, binary.LittleEndian},
	hdrHeight:              {"Height", 40, 4, binary.LittleEndian},
}

const (
	recID = iota
	recFlags
	recOffset
	recLength
)

var frameRecordLayout = [...]fieldLayout{
	recID:     {"ID", 0, 4, binary.BigEndian},
	recFlags:  {"Flags", 4, 4, binary.LittleEndian},
	recOffset: {"Offset", 8, 4, binary.LittleEndian},
	recLength: {"Length", 12, 4, binary.LittleEndian},
}
