package bloomgo

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"iter"
)

// hasher derives the per-slice bit positions for a key. The digest
// algorithm and the width of each drawn value are fixed by the filter
// geometry, and the salts are derived from their index alone, so two
// hashers built with the same parameters produce identical position
// sequences on any platform.
type hasher struct {
	numSlices    uint64
	bitsPerSlice uint64
	chunkSize    int
	newDigest    func() hash.Hash
	salts        [][]byte
}

func newHasher(numSlices, bitsPerSlice uint64) *hasher {
	// Smallest chunk width that can represent bitsPerSlice-1.
	var chunkSize int
	switch {
	case bitsPerSlice >= 1<<31:
		chunkSize = 8
	case bitsPerSlice >= 1<<15:
		chunkSize = 4
	default:
		chunkSize = 2
	}

	// Smallest digest that yields numSlices values of chunkSize bytes
	// from as few invocations as possible.
	totalHashBits := 8 * numSlices * uint64(chunkSize)
	var newDigest func() hash.Hash
	switch {
	case totalHashBits > 384:
		newDigest = sha512.New
	case totalHashBits > 256:
		newDigest = sha512.New384
	case totalHashBits > 160:
		newDigest = sha256.New
	case totalHashBits > 128:
		newDigest = sha1.New
	default:
		newDigest = md5.New
	}

	valuesPerDigest := uint64(newDigest().Size() / chunkSize)
	numSalts := (numSlices + valuesPerDigest - 1) / valuesPerDigest

	salts := make([][]byte, numSalts)
	for i := range salts {
		d := newDigest()
		var seed [4]byte
		binary.LittleEndian.PutUint32(seed[:], uint32(i)) //nolint:gosec // i < numSalts << 2^32
		d.Write(seed[:])
		salts[i] = d.Sum(nil)
	}

	return &hasher{
		numSlices:    numSlices,
		bitsPerSlice: bitsPerSlice,
		chunkSize:    chunkSize,
		newDigest:    newDigest,
		salts:        salts,
	}
}

// positions returns a lazy sequence of exactly numSlices values, one per
// slice, each in [0, bitsPerSlice). Every call starts from fresh digest
// state, so the sequence is restartable per invocation. A salt's digest
// may be only partially consumed when numSlices is reached.
func (h *hasher) positions(key []byte) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		emitted := uint64(0)
		for _, salt := range h.salts {
			d := h.newDigest()
			d.Write(salt)
			d.Write(key)
			sum := d.Sum(nil)

			for off := 0; off+h.chunkSize <= len(sum); off += h.chunkSize {
				var v uint64
				switch h.chunkSize {
				case 8:
					v = binary.LittleEndian.Uint64(sum[off:])
				case 4:
					v = uint64(binary.LittleEndian.Uint32(sum[off:]))
				default:
					v = uint64(binary.LittleEndian.Uint16(sum[off:]))
				}
				if !yield(v % h.bitsPerSlice) {
					return
				}
				emitted++
				if emitted >= h.numSlices {
					return
				}
			}
		}
	}
}
