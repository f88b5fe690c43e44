package bloomgo

import (
	"encoding"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/bloomgo/internal/bitvec"
)

// Compile-time checks for the text serialization interfaces.
var (
	_ encoding.TextMarshaler   = (*BloomFilter)(nil)
	_ encoding.TextUnmarshaler = (*BloomFilter)(nil)
	_ encoding.TextMarshaler   = (*ScalableBloomFilter)(nil)
	_ encoding.TextUnmarshaler = (*ScalableBloomFilter)(nil)
	_ encoding.TextMarshaler   = (*DynamicBloomFilter)(nil)
	_ encoding.TextUnmarshaler = (*DynamicBloomFilter)(nil)
)

// bitEndianness tags the bit order of the hex-encoded vector bytes. Only
// little (LSB-first within each byte) is produced or accepted.
const bitEndianness = "little"

// MarshalText encodes the filter as colon-delimited fields:
// error rate, slice count, bits per slice, capacity, count, endianness
// tag and the hex-encoded bit-vector bytes. The form is intended for
// human-readable transport between programs and round-trips exactly.
func (f *BloomFilter) MarshalText() ([]byte, error) {
	fields := []string{
		strconv.FormatFloat(f.errorRate, 'g', -1, 64),
		strconv.FormatUint(f.numSlices, 10),
		strconv.FormatUint(f.bitsPerSlice, 10),
		strconv.FormatUint(f.capacity, 10),
		strconv.FormatUint(f.count, 10),
		bitEndianness,
		hex.EncodeToString(f.bits.Bytes()),
	}
	return []byte(strings.Join(fields, ":")), nil
}

// UnmarshalText decodes the form produced by MarshalText, replacing the
// receiver's state.
func (f *BloomFilter) UnmarshalText(text []byte) error {
	fields := strings.Split(string(text), ":")
	if len(fields) != 7 {
		return fmt.Errorf("%w: expected 7 fields, got %d", ErrCorruptData, len(fields))
	}

	errorRate, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("%w: error rate: %w", ErrCorruptData, err)
	}
	numSlices, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: slice count: %w", ErrCorruptData, err)
	}
	bitsPerSlice, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bits per slice: %w", ErrCorruptData, err)
	}
	capacity, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: capacity: %w", ErrCorruptData, err)
	}
	count, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: count: %w", ErrCorruptData, err)
	}
	if fields[5] != bitEndianness {
		return fmt.Errorf("%w: unsupported endianness %q", ErrCorruptData, fields[5])
	}

	if numSlices == 0 || bitsPerSlice == 0 {
		return fmt.Errorf("%w: zero slice geometry", ErrCorruptData)
	}
	if bitsPerSlice > math.MaxUint64/numSlices {
		return fmt.Errorf("%w: bit vector length overflows", ErrCorruptData)
	}
	if errorRate <= 0 || errorRate >= 1 || math.IsNaN(errorRate) {
		return fmt.Errorf("%w: error rate %g out of range", ErrCorruptData, errorRate)
	}

	data, err := hex.DecodeString(fields[6])
	if err != nil {
		return fmt.Errorf("%w: bit vector hex: %w", ErrCorruptData, err)
	}
	bits, err := bitvec.FromBytes(numSlices*bitsPerSlice, data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	nf := newBloomFilter(errorRate, numSlices, bitsPerSlice, capacity, count)
	nf.bits = bits
	*f = *nf
	return nil
}

// MarshalText encodes the scalable filter as comma-delimited header
// fields followed by the sub-filter texts joined by "|".
func (s *ScalableBloomFilter) MarshalText() ([]byte, error) {
	joined, err := joinFilterTexts(s.filters)
	if err != nil {
		return nil, err
	}
	fields := []string{
		strconv.FormatInt(int64(s.growth), 10),
		strconv.FormatFloat(s.ratio, 'g', -1, 64),
		strconv.FormatUint(s.initialCapacity, 10),
		strconv.FormatFloat(s.errorRate, 'g', -1, 64),
		joined,
	}
	return []byte(strings.Join(fields, ",")), nil
}

// UnmarshalText decodes the form produced by MarshalText, replacing the
// receiver's state.
func (s *ScalableBloomFilter) UnmarshalText(text []byte) error {
	fields := strings.SplitN(string(text), ",", 5)
	if len(fields) != 5 {
		return fmt.Errorf("%w: expected 5 fields, got %d", ErrCorruptData, len(fields))
	}

	scale, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: growth factor: %w", ErrCorruptData, err)
	}
	if GrowthFactor(scale) != SmallSetGrowth && GrowthFactor(scale) != LargeSetGrowth {
		return fmt.Errorf("%w: growth factor %d", ErrCorruptData, scale)
	}
	ratio, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("%w: tightening ratio: %w", ErrCorruptData, err)
	}
	initialCapacity, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: initial capacity: %w", ErrCorruptData, err)
	}
	if initialCapacity == 0 {
		return fmt.Errorf("%w: zero initial capacity", ErrCorruptData)
	}
	errorRate, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("%w: error rate: %w", ErrCorruptData, err)
	}
	if errorRate <= 0 || errorRate >= 1 || math.IsNaN(errorRate) {
		return fmt.Errorf("%w: error rate %g out of range", ErrCorruptData, errorRate)
	}

	filters, err := splitFilterTexts(fields[4])
	if err != nil {
		return err
	}

	*s = ScalableBloomFilter{
		growth:          GrowthFactor(scale),
		ratio:           ratio,
		initialCapacity: initialCapacity,
		errorRate:       errorRate,
		filters:         filters,
	}
	return nil
}

// MarshalText encodes the dynamic filter as comma-delimited header fields
// followed by the sub-filter texts joined by "|".
func (d *DynamicBloomFilter) MarshalText() ([]byte, error) {
	joined, err := joinFilterTexts(d.filters)
	if err != nil {
		return nil, err
	}
	fields := []string{
		strconv.FormatUint(d.baseCapacity, 10),
		strconv.FormatUint(d.maxCapacity, 10),
		strconv.FormatFloat(d.maxErrorRate, 'g', -1, 64),
		joined,
	}
	return []byte(strings.Join(fields, ",")), nil
}

// UnmarshalText decodes the form produced by MarshalText, replacing the
// receiver's state.
func (d *DynamicBloomFilter) UnmarshalText(text []byte) error {
	fields := strings.SplitN(string(text), ",", 4)
	if len(fields) != 4 {
		return fmt.Errorf("%w: expected 4 fields, got %d", ErrCorruptData, len(fields))
	}

	baseCapacity, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: base capacity: %w", ErrCorruptData, err)
	}
	if baseCapacity == 0 {
		return fmt.Errorf("%w: zero base capacity", ErrCorruptData)
	}
	maxCapacity, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: max capacity: %w", ErrCorruptData, err)
	}
	if maxCapacity == 0 {
		return fmt.Errorf("%w: zero max capacity", ErrCorruptData)
	}
	maxErrorRate, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("%w: error rate: %w", ErrCorruptData, err)
	}
	if maxErrorRate <= 0 || maxErrorRate >= 1 || math.IsNaN(maxErrorRate) {
		return fmt.Errorf("%w: error rate %g out of range", ErrCorruptData, maxErrorRate)
	}

	filters, err := splitFilterTexts(fields[3])
	if err != nil {
		return err
	}

	*d = DynamicBloomFilter{
		baseCapacity:        baseCapacity,
		maxCapacity:         maxCapacity,
		maxErrorRate:        maxErrorRate,
		individualErrorRate: individualErrorRate(baseCapacity, maxCapacity, maxErrorRate),
		filters:             filters,
	}
	return nil
}

func joinFilterTexts(filters []*BloomFilter) (string, error) {
	texts := make([]string, len(filters))
	for i, f := range filters {
		t, err := f.MarshalText()
		if err != nil {
			return "", err
		}
		texts[i] = string(t)
	}
	return strings.Join(texts, "|"), nil
}

func splitFilterTexts(joined string) ([]*BloomFilter, error) {
	if joined == "" {
		return nil, nil
	}
	parts := strings.Split(joined, "|")
	filters := make([]*BloomFilter, 0, len(parts))
	for _, part := range parts {
		var f BloomFilter
		if err := f.UnmarshalText([]byte(part)); err != nil {
			return nil, err
		}
		filters = append(filters, &f)
	}
	return filters, nil
}
