package bloomgo

import (
	"fmt"

	"github.com/hupe1980/bloomgo/internal/bitvec"
)

// Compile-time check to ensure BloomFilter satisfies the Filter interface.
var _ Filter = (*BloomFilter)(nil)

// BloomFilter is a space-efficient probabilistic set-membership structure
// with a fixed capacity. It must be able to hold at least capacity
// elements while keeping the false-positive probability at or below the
// configured error rate; inserting beyond capacity greatly increases the
// chance of false positives.
//
// The bit vector is partitioned into numSlices contiguous slices of
// bitsPerSlice bits, one slice per hash function. A BloomFilter is not
// safe for concurrent use; callers requiring concurrency must serialize
// access externally.
type BloomFilter struct {
	errorRate    float64
	numSlices    uint64
	bitsPerSlice uint64
	capacity     uint64
	count        uint64
	bits         *bitvec.Vector
	hash         *hasher
}

// NewBloomFilter creates a filter sized for capacity elements at the
// target false-positive rate.
func NewBloomFilter(capacity int, errorRate float64) (*BloomFilter, error) {
	numSlices, bitsPerSlice, err := optimalParameters(capacity, errorRate)
	if err != nil {
		return nil, err
	}
	return newBloomFilter(errorRate, numSlices, bitsPerSlice, uint64(capacity), 0), nil
}

// newBloomFilter assembles a filter from final parameters. The bit vector
// starts zeroed; deserialization overwrites it afterwards.
func newBloomFilter(errorRate float64, numSlices, bitsPerSlice, capacity, count uint64) *BloomFilter {
	return &BloomFilter{
		errorRate:    errorRate,
		numSlices:    numSlices,
		bitsPerSlice: bitsPerSlice,
		capacity:     capacity,
		count:        count,
		bits:         bitvec.New(numSlices * bitsPerSlice),
		hash:         newHasher(numSlices, bitsPerSlice),
	}
}

// ErrorRate returns the target false-positive probability.
func (f *BloomFilter) ErrorRate() float64 { return f.errorRate }

// Capacity returns the intended maximum element count.
func (f *BloomFilter) Capacity() uint64 { return f.capacity }

// Count returns the number of elements inserted so far.
func (f *BloomFilter) Count() uint64 { return f.count }

// NumSlices returns the number of hash functions / bit-vector slices.
func (f *BloomFilter) NumSlices() uint64 { return f.numSlices }

// BitsPerSlice returns the number of bits in each slice.
func (f *BloomFilter) BitsPerSlice() uint64 { return f.bitsPerSlice }

// NumBits returns the total bit-vector length.
func (f *BloomFilter) NumBits() uint64 { return f.numSlices * f.bitsPerSlice }

// Contains tests a key's membership in this filter.
func (f *BloomFilter) Contains(key []byte) bool {
	var offset uint64
	for pos := range f.hash.positions(key) {
		if !f.bits.Test(offset + pos) {
			return false
		}
		offset += f.bitsPerSlice
	}
	return true
}

// ContainsString tests a UTF-8 string key's membership.
func (f *BloomFilter) ContainsString(key string) bool {
	return f.Contains([]byte(key))
}

// Add inserts a key and reports true if it was already present. It
// returns ErrCapacityExceeded once count has exceeded capacity; the
// check is strict, so a filter accepts one insertion beyond nominal
// capacity before failing on the next.
func (f *BloomFilter) Add(key []byte) (bool, error) {
	return f.add(key, false)
}

// AddString inserts a UTF-8 string key.
func (f *BloomFilter) AddString(key string) (bool, error) {
	return f.Add([]byte(key))
}

// add sets the per-slice bits for key. With skipCheck the membership
// check is bypassed: the call always reports "newly added" and
// unconditionally increments count. Growth orchestrators use this mode
// after they have already established the key is absent.
func (f *BloomFilter) add(key []byte, skipCheck bool) (bool, error) {
	if f.count > f.capacity {
		return false, ErrCapacityExceeded
	}

	foundAllBits := true
	var offset uint64
	for pos := range f.hash.positions(key) {
		if !f.bits.TestAndSet(offset + pos) {
			foundAllBits = false
		}
		offset += f.bitsPerSlice
	}

	if skipCheck || !foundAllBits {
		f.count++
		return false, nil
	}
	return true, nil
}

// Copy returns an independent deep copy of the filter.
func (f *BloomFilter) Copy() *BloomFilter {
	c := newBloomFilter(f.errorRate, f.numSlices, f.bitsPerSlice, f.capacity, f.count)
	c.bits = f.bits.Clone()
	return c
}

// Union returns a new filter whose bit vector is the bit-wise OR of both
// operands. The operands must share capacity and error rate. The result's
// count is re-estimated from the merged fill level, not recounted.
func (f *BloomFilter) Union(other *BloomFilter) (*BloomFilter, error) {
	if err := f.checkCompatible(other); err != nil {
		return nil, err
	}
	merged := f.Copy()
	if err := merged.bits.Or(other.bits); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMismatchedFilters, err)
	}
	merged.count = estimateCount(merged.bits.Count(), merged.bits.Len(), merged.numSlices)
	return merged, nil
}

// Intersection returns a new filter whose bit vector is the bit-wise AND
// of both operands. The operands must share capacity and error rate. The
// result's count is re-estimated from the merged fill level.
func (f *BloomFilter) Intersection(other *BloomFilter) (*BloomFilter, error) {
	if err := f.checkCompatible(other); err != nil {
		return nil, err
	}
	merged := f.Copy()
	if err := merged.bits.And(other.bits); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMismatchedFilters, err)
	}
	merged.count = estimateCount(merged.bits.Count(), merged.bits.Len(), merged.numSlices)
	return merged, nil
}

func (f *BloomFilter) checkCompatible(other *BloomFilter) error {
	if f.capacity != other.capacity || f.errorRate != other.errorRate {
		return fmt.Errorf("%w: capacity %d vs %d, error rate %g vs %g",
			ErrMismatchedFilters, f.capacity, other.capacity, f.errorRate, other.errorRate)
	}
	return nil
}
