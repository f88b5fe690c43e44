package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used for a snapshot
// payload.
type CompressionType uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD CompressionType = 2
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress encodes data with the requested algorithm and returns the
// payload together with the algorithm actually applied. Data that does
// not shrink is stored uncompressed so the reader never pays a
// decompression penalty for nothing.
func compress(ct CompressionType, data []byte) ([]byte, CompressionType, error) {
	switch ct {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 || n >= len(data) {
			// Incompressible.
			return data, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil

	case CompressionZSTD:
		enc := getZstdEncoder()
		dst := enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
		if len(dst) >= len(data) {
			return data, CompressionNone, nil
		}
		return dst, CompressionZSTD, nil

	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, ct)
	}
}

// decompress decodes a payload stored with the given algorithm into its
// uncompressedSize original bytes.
func decompress(ct CompressionType, payload []byte, uncompressedSize uint64) ([]byte, error) {
	switch ct {
	case CompressionNone:
		if uint64(len(payload)) != uncompressedSize {
			return nil, ErrPayloadTruncated
		}
		return payload, nil

	case CompressionLZ4:
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, err
		}
		if uint64(n) != uncompressedSize {
			return nil, ErrPayloadTruncated
		}
		return dst, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		dst, err := dec.DecodeAll(payload, nil)
		putZstdDecoder(dec)
		if err != nil {
			return nil, err
		}
		if uint64(len(dst)) != uncompressedSize {
			return nil, ErrPayloadTruncated
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, ct)
	}
}
