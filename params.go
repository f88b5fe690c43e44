package bloomgo

import "math"

// optimalParameters derives the slice count and per-slice bit count for a
// filter that holds capacity elements at the target false-positive rate.
//
// Given M = total bits, k = slice count, P = error rate and n = capacity,
// the bit-minimizing relations are
//
//	k = log2(1/P)
//	n ~= M * (ln(2)^2 / |ln(P)|)
//
// which solved for m = bits per slice (M = k*m) gives
//
//	m = n * |ln(P)| / (k * ln(2)^2)
//
// both rounded up to whole numbers.
func optimalParameters(capacity int, errorRate float64) (numSlices, bitsPerSlice uint64, err error) {
	if capacity <= 0 {
		return 0, 0, ErrInvalidCapacity
	}
	if errorRate <= 0 || errorRate >= 1 {
		return 0, 0, ErrInvalidErrorRate
	}

	numSlices = uint64(math.Ceil(math.Log2(1.0 / errorRate)))
	bitsPerSlice = uint64(math.Ceil(
		(float64(capacity) * math.Abs(math.Log(errorRate))) /
			(float64(numSlices) * (math.Ln2 * math.Ln2))))

	return numSlices, bitsPerSlice, nil
}
