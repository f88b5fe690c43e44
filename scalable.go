package bloomgo

// tighteningRatio shrinks each successive sub-filter's error budget so
// the compounded false-positive probability of the whole sequence stays
// near the requested rate.
const tighteningRatio = 0.9

// GrowthFactor selects how fast sub-filter capacity scales when a
// ScalableBloomFilter grows.
type GrowthFactor int32

const (
	// SmallSetGrowth grows slower but takes up less memory.
	SmallSetGrowth GrowthFactor = 2
	// LargeSetGrowth grows faster but consumes memory faster.
	LargeSetGrowth GrowthFactor = 4
)

// ScalableOptions contains configuration options for a ScalableBloomFilter.
type ScalableOptions struct {
	// InitialCapacity is the capacity of the first sub-filter.
	InitialCapacity int

	// ErrorRate is the overall target false-positive probability.
	ErrorRate float64

	// Growth selects the capacity growth factor for new sub-filters.
	Growth GrowthFactor
}

// DefaultScalableOptions contains the default configuration options for a
// ScalableBloomFilter.
var DefaultScalableOptions = ScalableOptions{
	InitialCapacity: 100,
	ErrorRate:       0.001,
	Growth:          SmallSetGrowth,
}

// Compile-time check to ensure ScalableBloomFilter satisfies the Filter interface.
var _ Filter = (*ScalableBloomFilter)(nil)

// ScalableBloomFilter grows as more items are added while maintaining a
// steady false-positive rate. It owns an ordered sequence of BloomFilters
// with geometrically increasing capacity and a tightening per-filter
// error budget; a new sub-filter is allocated lazily once the current one
// fills. Capacity and count are always derived from the sequence, never
// stored.
type ScalableBloomFilter struct {
	growth          GrowthFactor
	ratio           float64
	initialCapacity uint64
	errorRate       float64
	filters         []*BloomFilter
}

// NewScalableBloomFilter creates an empty scalable filter.
func NewScalableBloomFilter(optFns ...func(o *ScalableOptions)) (*ScalableBloomFilter, error) {
	opts := DefaultScalableOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.InitialCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if opts.ErrorRate <= 0 || opts.ErrorRate >= 1 {
		return nil, ErrInvalidErrorRate
	}
	if opts.Growth != SmallSetGrowth && opts.Growth != LargeSetGrowth {
		return nil, ErrInvalidGrowthFactor
	}

	return &ScalableBloomFilter{
		growth:          opts.Growth,
		ratio:           tighteningRatio,
		initialCapacity: uint64(opts.InitialCapacity),
		errorRate:       opts.ErrorRate,
	}, nil
}

// ErrorRate returns the overall target false-positive probability.
func (s *ScalableBloomFilter) ErrorRate() float64 { return s.errorRate }

// InitialCapacity returns the capacity of the first sub-filter.
func (s *ScalableBloomFilter) InitialCapacity() uint64 { return s.initialCapacity }

// Growth returns the configured capacity growth factor.
func (s *ScalableBloomFilter) Growth() GrowthFactor { return s.growth }

// NumFilters returns the number of sub-filters currently owned.
func (s *ScalableBloomFilter) NumFilters() int { return len(s.filters) }

// Capacity returns the total capacity across all sub-filters.
func (s *ScalableBloomFilter) Capacity() uint64 {
	var total uint64
	for _, f := range s.filters {
		total += f.capacity
	}
	return total
}

// Count returns the total number of elements across all sub-filters.
func (s *ScalableBloomFilter) Count() uint64 {
	var total uint64
	for _, f := range s.filters {
		total += f.count
	}
	return total
}

// Contains tests a key's membership, scanning sub-filters
// most-recently-created first and short-circuiting on the first hit.
func (s *ScalableBloomFilter) Contains(key []byte) bool {
	for i := len(s.filters) - 1; i >= 0; i-- {
		if s.filters[i].Contains(key) {
			return true
		}
	}
	return false
}

// ContainsString tests a UTF-8 string key's membership.
func (s *ScalableBloomFilter) ContainsString(key string) bool {
	return s.Contains([]byte(key))
}

// Add inserts a key and reports true if it was already present. The
// duplicate check runs across the whole sequence before routing; the
// actual insertion uses skip-check mode against the current sub-filter,
// growing the sequence first when that filter is full.
func (s *ScalableBloomFilter) Add(key []byte) (bool, error) {
	if s.Contains(key) {
		return true, nil
	}

	target, err := s.activeFilter()
	if err != nil {
		return false, err
	}
	if _, err := target.add(key, true); err != nil {
		return false, err
	}
	return false, nil
}

// AddString inserts a UTF-8 string key.
func (s *ScalableBloomFilter) AddString(key string) (bool, error) {
	return s.Add([]byte(key))
}

// activeFilter returns the sub-filter the next insert routes to,
// allocating the first sub-filter or the next growth step as needed.
func (s *ScalableBloomFilter) activeFilter() (*BloomFilter, error) {
	if len(s.filters) == 0 {
		f, err := NewBloomFilter(int(s.initialCapacity), s.errorRate*(1.0-s.ratio))
		if err != nil {
			return nil, err
		}
		s.filters = append(s.filters, f)
		return f, nil
	}

	last := s.filters[len(s.filters)-1]
	if last.count >= last.capacity {
		f, err := NewBloomFilter(int(last.capacity)*int(s.growth), last.errorRate*s.ratio)
		if err != nil {
			return nil, err
		}
		s.filters = append(s.filters, f)
		return f, nil
	}
	return last, nil
}
