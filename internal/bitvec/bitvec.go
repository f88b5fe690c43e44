// Package bitvec provides a packed, bounds-checked bit vector backed by
// uint64 words. It is the storage primitive for bloom filters and is not
// safe for concurrent mutation; callers own their vectors exclusively.
package bitvec

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Vector is a fixed-length bit vector packed into uint64 words.
// Bits are numbered from 0 and laid out little-endian: bit i lives in
// byte i/8 at position i%8, which keeps the byte serialization identical
// across word sizes and platforms.
type Vector struct {
	words []uint64
	nbits uint64
}

// New creates a zeroed Vector holding nbits bits.
func New(nbits uint64) *Vector {
	return &Vector{
		words: make([]uint64, (nbits+63)/64),
		nbits: nbits,
	}
}

// Len returns the length of the vector in bits.
func (v *Vector) Len() uint64 {
	return v.nbits
}

// Test returns true if bit i is set. Out-of-range indexes report false.
func (v *Vector) Test(i uint64) bool {
	if i >= v.nbits {
		return false
	}
	return v.words[i>>6]&(1<<(i&63)) != 0
}

// Set sets bit i. Out-of-range indexes are ignored.
func (v *Vector) Set(i uint64) {
	if i >= v.nbits {
		return
	}
	v.words[i>>6] |= 1 << (i & 63)
}

// TestAndSet sets bit i and returns true if it was already set.
func (v *Vector) TestAndSet(i uint64) bool {
	if i >= v.nbits {
		return false
	}
	mask := uint64(1) << (i & 63)
	word := i >> 6
	prev := v.words[word]&mask != 0
	v.words[word] |= mask
	return prev
}

// Count returns the number of set bits.
func (v *Vector) Count() uint64 {
	var count uint64
	for _, w := range v.words {
		if w != 0 {
			count += uint64(bits.OnesCount64(w))
		}
	}
	return count
}

// Or merges o into v bit-wise. Both vectors must have the same length.
func (v *Vector) Or(o *Vector) error {
	if v.nbits != o.nbits {
		return fmt.Errorf("bitvec: length mismatch: %d != %d", v.nbits, o.nbits)
	}
	for i := range v.words {
		v.words[i] |= o.words[i]
	}
	return nil
}

// And intersects v with o bit-wise. Both vectors must have the same length.
func (v *Vector) And(o *Vector) error {
	if v.nbits != o.nbits {
		return fmt.Errorf("bitvec: length mismatch: %d != %d", v.nbits, o.nbits)
	}
	for i := range v.words {
		v.words[i] &= o.words[i]
	}
	return nil
}

// Clone returns an independent deep copy of v.
func (v *Vector) Clone() *Vector {
	c := &Vector{
		words: make([]uint64, len(v.words)),
		nbits: v.nbits,
	}
	copy(c.words, v.words)
	return c
}

// Equal reports whether v and o have identical length and bits.
func (v *Vector) Equal(o *Vector) bool {
	if v.nbits != o.nbits {
		return false
	}
	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// ByteLen returns the number of bytes needed to hold the vector,
// rounded up to a whole byte.
func (v *Vector) ByteLen() uint64 {
	return (v.nbits + 7) / 8
}

// Bytes returns the packed little-endian byte representation of the
// vector, ByteLen bytes long. The returned slice is a copy.
func (v *Vector) Bytes() []byte {
	buf := make([]byte, len(v.words)*8)
	for i, w := range v.words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return buf[:v.ByteLen()]
}

// FromBytes reconstructs a Vector of nbits bits from its packed
// little-endian byte representation. data must be exactly
// ceil(nbits/8) bytes long. Padding bits beyond nbits in the final
// byte are cleared.
func FromBytes(nbits uint64, data []byte) (*Vector, error) {
	want := (nbits + 7) / 8
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("bitvec: bit length mismatch: got %d bytes, want %d", len(data), want)
	}
	v := New(nbits)
	buf := make([]byte, len(v.words)*8)
	copy(buf, data)
	for i := range v.words {
		v.words[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	if rem := nbits & 63; rem != 0 && len(v.words) > 0 {
		v.words[len(v.words)-1] &= (1 << rem) - 1
	}
	return v, nil
}
