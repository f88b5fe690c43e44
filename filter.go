package bloomgo

import "math"

// Filter is the capability set shared by all membership filters in this
// package: the fixed-capacity BloomFilter and the growing
// ScalableBloomFilter and DynamicBloomFilter.
type Filter interface {
	// Contains tests a key's membership. False positives occur at the
	// configured rate; false negatives do not occur for inserted keys.
	Contains(key []byte) bool

	// Add inserts a key and reports true if it was already present.
	Add(key []byte) (bool, error)

	// Count returns the number of elements inserted so far.
	Count() uint64
}

// estimateCount recovers an approximate element count from the fill level
// of a bit vector after a union or intersection, per Papapetrou et al.,
// "Cardinality estimation and dynamic length adaptation for Bloom filters".
// When the closed form is undefined (degenerate vector sizes or a fully
// set vector) it falls back to the total bit count. This is a documented
// approximation, not an exact recount.
func estimateCount(setBits, totalBits, numSlices uint64) uint64 {
	m := float64(totalBits)
	num := math.Log(1.0 - float64(setBits)/m)
	denom := float64(numSlices) * math.Log(1.0-1.0/m)
	if denom == 0 || math.IsNaN(num) || math.IsInf(num, 0) || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return totalBits
	}
	return uint64(num / denom)
}
