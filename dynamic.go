package bloomgo

import (
	"fmt"
	"math"
)

// DynamicOptions contains configuration options for a DynamicBloomFilter.
type DynamicOptions struct {
	// BaseCapacity is the capacity of every individual sub-filter.
	BaseCapacity int

	// MaxCapacity is the most elements the filter is expected to hold.
	// Together with ErrorRate and BaseCapacity it determines the error
	// rate of the individual sub-filters.
	MaxCapacity uint64

	// ErrorRate is the maximum false-positive probability; it holds as
	// long as the element count stays under MaxCapacity.
	ErrorRate float64
}

// DefaultDynamicOptions contains the default configuration options for a
// DynamicBloomFilter.
var DefaultDynamicOptions = DynamicOptions{
	BaseCapacity: 100,
	MaxCapacity:  1000000,
	ErrorRate:    0.001,
}

// Compile-time check to ensure DynamicBloomFilter satisfies the Filter interface.
var _ Filter = (*DynamicBloomFilter)(nil)

// DynamicBloomFilter grows like a ScalableBloomFilter but is built out of
// sub-filters of uniform size and uniform error rate, which makes union
// and intersection across two such filters well-defined.
type DynamicBloomFilter struct {
	baseCapacity        uint64
	maxCapacity         uint64
	maxErrorRate        float64
	individualErrorRate float64
	filters             []*BloomFilter
}

// NewDynamicBloomFilter creates an empty dynamic filter. The individual
// sub-filter error rate is derived once so that the union bound over the
// worst-case sub-filter count ceil(MaxCapacity/BaseCapacity) stays under
// ErrorRate.
func NewDynamicBloomFilter(optFns ...func(o *DynamicOptions)) (*DynamicBloomFilter, error) {
	opts := DefaultDynamicOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BaseCapacity <= 0 || opts.MaxCapacity == 0 {
		return nil, ErrInvalidCapacity
	}
	if opts.ErrorRate <= 0 || opts.ErrorRate >= 1 {
		return nil, ErrInvalidErrorRate
	}

	d := &DynamicBloomFilter{
		baseCapacity: uint64(opts.BaseCapacity),
		maxCapacity:  opts.MaxCapacity,
		maxErrorRate: opts.ErrorRate,
	}
	d.individualErrorRate = individualErrorRate(d.baseCapacity, d.maxCapacity, d.maxErrorRate)
	return d, nil
}

func individualErrorRate(baseCapacity, maxCapacity uint64, maxErrorRate float64) float64 {
	numFilters := math.Ceil(float64(maxCapacity) / float64(baseCapacity))
	return 1.0 - math.Exp(math.Log(1.0-maxErrorRate)/numFilters)
}

// BaseCapacity returns the capacity of each individual sub-filter.
func (d *DynamicBloomFilter) BaseCapacity() uint64 { return d.baseCapacity }

// MaxCapacity returns the intended maximum total element count.
func (d *DynamicBloomFilter) MaxCapacity() uint64 { return d.maxCapacity }

// MaxErrorRate returns the overall target false-positive probability.
func (d *DynamicBloomFilter) MaxErrorRate() float64 { return d.maxErrorRate }

// IndividualErrorRate returns the derived per-sub-filter error rate.
func (d *DynamicBloomFilter) IndividualErrorRate() float64 { return d.individualErrorRate }

// NumFilters returns the number of sub-filters currently owned.
func (d *DynamicBloomFilter) NumFilters() int { return len(d.filters) }

// Capacity returns the total capacity across all sub-filters.
func (d *DynamicBloomFilter) Capacity() uint64 {
	var total uint64
	for _, f := range d.filters {
		total += f.capacity
	}
	return total
}

// Count returns the total number of elements across all sub-filters.
func (d *DynamicBloomFilter) Count() uint64 {
	var total uint64
	for _, f := range d.filters {
		total += f.count
	}
	return total
}

// Contains tests a key's membership, scanning sub-filters
// most-recently-created first and short-circuiting on the first hit.
func (d *DynamicBloomFilter) Contains(key []byte) bool {
	for i := len(d.filters) - 1; i >= 0; i-- {
		if d.filters[i].Contains(key) {
			return true
		}
	}
	return false
}

// ContainsString tests a UTF-8 string key's membership.
func (d *DynamicBloomFilter) ContainsString(key string) bool {
	return d.Contains([]byte(key))
}

// Add inserts a key and reports true if it was already present. Routing
// matches ScalableBloomFilter, except every new sub-filter uses the fixed
// base capacity and individual error rate.
func (d *DynamicBloomFilter) Add(key []byte) (bool, error) {
	if d.Contains(key) {
		return true, nil
	}

	target, err := d.activeFilter()
	if err != nil {
		return false, err
	}
	if _, err := target.add(key, true); err != nil {
		return false, err
	}
	return false, nil
}

// AddString inserts a UTF-8 string key.
func (d *DynamicBloomFilter) AddString(key string) (bool, error) {
	return d.Add([]byte(key))
}

func (d *DynamicBloomFilter) activeFilter() (*BloomFilter, error) {
	if n := len(d.filters); n > 0 && d.filters[n-1].count < d.filters[n-1].capacity {
		return d.filters[n-1], nil
	}
	f, err := NewBloomFilter(int(d.baseCapacity), d.individualErrorRate)
	if err != nil {
		return nil, err
	}
	d.filters = append(d.filters, f)
	return f, nil
}

// Union returns a new dynamic filter combining both operands, which must
// share base capacity and individual error rate. Sub-filters of the
// receiver are greedily merged into copies of other's sub-filters: for
// each, the merged list is scanned from the end backward for the first
// slot whose bit-wise OR merge keeps the estimated count under the base
// capacity; when no such slot exists the sub-filter is appended as a new
// slot. Counts of merged slots are estimates; if a slot's count exceeds
// its capacity after the union, the effective error rate grows.
func (d *DynamicBloomFilter) Union(other *DynamicBloomFilter) (*DynamicBloomFilter, error) {
	if err := d.checkCompatible(other); err != nil {
		return nil, err
	}

	merged := make([]*BloomFilter, 0, len(other.filters)+len(d.filters))
	for _, f := range other.filters {
		merged = append(merged, f.Copy())
	}

	for _, mine := range d.filters {
		foundMate := false
		for j := len(merged) - 1; j >= 0; j-- {
			u, err := mine.Union(merged[j])
			if err != nil {
				return nil, err
			}
			if u.count < d.baseCapacity {
				merged[j] = u
				foundMate = true
				break
			}
		}
		if !foundMate {
			merged = append(merged, mine.Copy())
		}
	}

	result := d.emptyLike()
	result.filters = merged
	return result, nil
}

// Intersection returns a new dynamic filter approximating the common
// elements of both operands, which must share base capacity and
// individual error rate. For each sub-filter of the receiver an
// accumulator collects the union of its pairwise intersections with
// every sub-filter of other and is appended to the result, even when
// empty. The
// fold pairs each sub-filter against all of other's rather than by
// position, so the resulting counts may over-estimate.
func (d *DynamicBloomFilter) Intersection(other *DynamicBloomFilter) (*DynamicBloomFilter, error) {
	if err := d.checkCompatible(other); err != nil {
		return nil, err
	}

	result := d.emptyLike()
	for _, mine := range d.filters {
		acc, err := NewBloomFilter(int(d.baseCapacity), d.individualErrorRate)
		if err != nil {
			return nil, err
		}
		for _, theirs := range other.filters {
			step, err := mine.Intersection(theirs)
			if err != nil {
				return nil, err
			}
			if acc, err = acc.Union(step); err != nil {
				return nil, err
			}
		}
		result.filters = append(result.filters, acc)
	}
	return result, nil
}

// emptyLike returns a fresh filter with the receiver's parameters and no
// sub-filters.
func (d *DynamicBloomFilter) emptyLike() *DynamicBloomFilter {
	return &DynamicBloomFilter{
		baseCapacity:        d.baseCapacity,
		maxCapacity:         d.maxCapacity,
		maxErrorRate:        d.maxErrorRate,
		individualErrorRate: d.individualErrorRate,
	}
}

func (d *DynamicBloomFilter) checkCompatible(other *DynamicBloomFilter) error {
	if d.baseCapacity != other.baseCapacity || d.individualErrorRate != other.individualErrorRate {
		return fmt.Errorf("%w: base capacity %d vs %d, individual error rate %g vs %g",
			ErrMismatchedFilters, d.baseCapacity, other.baseCapacity,
			d.individualErrorRate, other.individualErrorRate)
	}
	return nil
}
