// Package persistence wraps the compact binary filter encodings in a
// checksummed, optionally compressed snapshot envelope suitable for files
// and object storage. The inner encodings are exactly the wire formats of
// the filter types themselves; the envelope only adds integrity and
// compression around them.
package persistence

import "errors"

const (
	// MagicNumber identifies bloomgo snapshot files (ASCII: "BLM0").
	MagicNumber = 0x424C4D30
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000
)

// FilterType tags which filter encoding a snapshot payload holds.
type FilterType uint8

const (
	// FilterTypeBloom is a fixed-capacity BloomFilter payload.
	FilterTypeBloom FilterType = 1
	// FilterTypeScalable is a ScalableBloomFilter payload.
	FilterTypeScalable FilterType = 2
	// FilterTypeDynamic is a DynamicBloomFilter payload.
	FilterTypeDynamic FilterType = 3
)

// String returns a string representation of the FilterType.
func (ft FilterType) String() string {
	switch ft {
	case FilterTypeBloom:
		return "Bloom"
	case FilterTypeScalable:
		return "Scalable"
	case FilterTypeDynamic:
		return "Dynamic"
	default:
		return "Unknown"
	}
}

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrInvalidFilterType  = errors.New("invalid filter type")
	ErrUnknownCompression = errors.New("unknown compression type")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrPayloadTruncated   = errors.New("snapshot payload truncated")
)

// Header is the fixed 48-byte header at the start of every snapshot.
type Header struct {
	Magic            uint32 // 0x424C4D30 ("BLM0")
	Version          uint32 // Snapshot format version
	FilterType       uint8  // 1=Bloom, 2=Scalable, 3=Dynamic
	Compression      uint8  // 0=None, 1=LZ4, 2=ZSTD
	Padding1         [2]byte
	UncompressedSize uint64 // Inner encoding length in bytes
	PayloadSize      uint64 // Stored payload length in bytes
	Checksum         uint32 // CRC32 (IEEE) of the stored payload
	Padding2         [4]byte
	Reserved         [12]byte // Future use
}
