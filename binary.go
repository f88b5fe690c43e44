package bloomgo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/bloomgo/internal/bitvec"
)

// Compile-time checks for the serialization interfaces.
var (
	_ io.WriterTo   = (*BloomFilter)(nil)
	_ io.ReaderFrom = (*BloomFilter)(nil)
	_ io.WriterTo   = (*ScalableBloomFilter)(nil)
	_ io.ReaderFrom = (*ScalableBloomFilter)(nil)
	_ io.WriterTo   = (*DynamicBloomFilter)(nil)
	_ io.ReaderFrom = (*DynamicBloomFilter)(nil)
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// bloomFilterHeader is the fixed 40-byte little-endian record that
// precedes the raw bit-vector bytes.
type bloomFilterHeader struct {
	ErrorRate    float64
	NumSlices    uint64
	BitsPerSlice uint64
	Capacity     uint64
	Count        uint64
}

// WriteTo writes the filter in its compact binary form: the 40-byte
// little-endian header followed by the packed bit-vector bytes, rounded
// up to a whole byte.
func (f *BloomFilter) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	hdr := bloomFilterHeader{
		ErrorRate:    f.errorRate,
		NumSlices:    f.numSlices,
		BitsPerSlice: f.bitsPerSlice,
		Capacity:     f.capacity,
		Count:        f.count,
	}
	if err := binary.Write(cw, binary.LittleEndian, hdr); err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(f.bits.Bytes()); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom reads a filter previously written with WriteTo, replacing the
// receiver's state. It returns ErrCorruptData when the header fields are
// inconsistent or the bit-vector bytes are truncated.
func (f *BloomFilter) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}

	var hdr bloomFilterHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return cr.n, fmt.Errorf("%w: short header: %w", ErrCorruptData, err)
	}
	if hdr.NumSlices == 0 || hdr.BitsPerSlice == 0 {
		return cr.n, fmt.Errorf("%w: zero slice geometry", ErrCorruptData)
	}
	if hdr.BitsPerSlice > math.MaxUint64/hdr.NumSlices {
		return cr.n, fmt.Errorf("%w: bit vector length overflows", ErrCorruptData)
	}
	if hdr.ErrorRate <= 0 || hdr.ErrorRate >= 1 || math.IsNaN(hdr.ErrorRate) {
		return cr.n, fmt.Errorf("%w: error rate %g out of range", ErrCorruptData, hdr.ErrorRate)
	}

	totalBits := hdr.NumSlices * hdr.BitsPerSlice
	data := make([]byte, (totalBits+7)/8)
	if _, err := io.ReadFull(cr, data); err != nil {
		return cr.n, fmt.Errorf("%w: bit vector truncated: %w", ErrCorruptData, err)
	}
	bits, err := bitvec.FromBytes(totalBits, data)
	if err != nil {
		return cr.n, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	nf := newBloomFilter(hdr.ErrorRate, hdr.NumSlices, hdr.BitsPerSlice, hdr.Capacity, hdr.Count)
	nf.bits = bits
	*f = *nf
	return cr.n, nil
}

// scalableHeader is the packed little-endian record preceding the
// sub-filter table: growth factor, tightening ratio, initial capacity
// and target error rate.
type scalableHeader struct {
	Scale           int32
	Ratio           float64
	InitialCapacity uint64
	ErrorRate       float64
}

// WriteTo writes the scalable filter: its header, the sub-filter count,
// a table of per-sub-filter byte lengths and the concatenated sub-filter
// encodings.
func (s *ScalableBloomFilter) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	hdr := scalableHeader{
		Scale:           int32(s.growth),
		Ratio:           s.ratio,
		InitialCapacity: s.initialCapacity,
		ErrorRate:       s.errorRate,
	}
	if err := binary.Write(cw, binary.LittleEndian, hdr); err != nil {
		return cw.n, err
	}
	if err := writeFilterTable(cw, s.filters); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom reads a scalable filter previously written with WriteTo,
// replacing the receiver's state.
func (s *ScalableBloomFilter) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}

	var hdr scalableHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return cr.n, fmt.Errorf("%w: short header: %w", ErrCorruptData, err)
	}
	if hdr.Scale != int32(SmallSetGrowth) && hdr.Scale != int32(LargeSetGrowth) {
		return cr.n, fmt.Errorf("%w: growth factor %d", ErrCorruptData, hdr.Scale)
	}
	if hdr.InitialCapacity == 0 {
		return cr.n, fmt.Errorf("%w: zero initial capacity", ErrCorruptData)
	}
	if hdr.ErrorRate <= 0 || hdr.ErrorRate >= 1 || math.IsNaN(hdr.ErrorRate) {
		return cr.n, fmt.Errorf("%w: error rate %g out of range", ErrCorruptData, hdr.ErrorRate)
	}

	filters, err := readFilterTable(cr)
	if err != nil {
		return cr.n, err
	}

	*s = ScalableBloomFilter{
		growth:          GrowthFactor(hdr.Scale),
		ratio:           hdr.Ratio,
		initialCapacity: hdr.InitialCapacity,
		errorRate:       hdr.ErrorRate,
		filters:         filters,
	}
	return cr.n, nil
}

// dynamicHeader is the packed little-endian record preceding the
// sub-filter table: base capacity, max capacity and max error rate.
type dynamicHeader struct {
	BaseCapacity int32
	MaxCapacity  uint64
	MaxErrorRate float64
}

// WriteTo writes the dynamic filter in the same table layout as
// ScalableBloomFilter.WriteTo, with the dynamic header fields.
func (d *DynamicBloomFilter) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	hdr := dynamicHeader{
		BaseCapacity: int32(d.baseCapacity), //nolint:gosec // validated at construction
		MaxCapacity:  d.maxCapacity,
		MaxErrorRate: d.maxErrorRate,
	}
	if err := binary.Write(cw, binary.LittleEndian, hdr); err != nil {
		return cw.n, err
	}
	if err := writeFilterTable(cw, d.filters); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom reads a dynamic filter previously written with WriteTo,
// replacing the receiver's state. The individual sub-filter error rate is
// re-derived from the header fields.
func (d *DynamicBloomFilter) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}

	var hdr dynamicHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return cr.n, fmt.Errorf("%w: short header: %w", ErrCorruptData, err)
	}
	if hdr.BaseCapacity <= 0 || hdr.MaxCapacity == 0 {
		return cr.n, fmt.Errorf("%w: capacity fields out of range", ErrCorruptData)
	}
	if hdr.MaxErrorRate <= 0 || hdr.MaxErrorRate >= 1 || math.IsNaN(hdr.MaxErrorRate) {
		return cr.n, fmt.Errorf("%w: error rate %g out of range", ErrCorruptData, hdr.MaxErrorRate)
	}

	filters, err := readFilterTable(cr)
	if err != nil {
		return cr.n, err
	}

	*d = DynamicBloomFilter{
		baseCapacity:        uint64(hdr.BaseCapacity),
		maxCapacity:         hdr.MaxCapacity,
		maxErrorRate:        hdr.MaxErrorRate,
		individualErrorRate: individualErrorRate(uint64(hdr.BaseCapacity), hdr.MaxCapacity, hdr.MaxErrorRate),
		filters:             filters,
	}
	return cr.n, nil
}

// writeFilterTable writes the sub-filter count as int32, then, when
// non-empty, a table of little-endian uint64 byte lengths followed by
// each sub-filter's binary encoding in order.
func writeFilterTable(w io.Writer, filters []*BloomFilter) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(filters))); err != nil { //nolint:gosec
		return err
	}
	if len(filters) == 0 {
		return nil
	}

	// Sub-filter sizes must precede the encodings, so buffer them first
	// rather than seeking back the way a file-backed writer could.
	encoded := make([][]byte, len(filters))
	sizes := make([]uint64, len(filters))
	for i, f := range filters {
		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			return err
		}
		encoded[i] = buf.Bytes()
		sizes[i] = uint64(buf.Len())
	}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return err
	}
	for _, enc := range encoded {
		if _, err := w.Write(enc); err != nil {
			return err
		}
	}
	return nil
}

// readFilterTable reads the structure written by writeFilterTable. Every
// sub-filter must consume exactly its table entry's byte length.
func readFilterTable(r io.Reader) ([]*BloomFilter, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: short filter count: %w", ErrCorruptData, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative filter count %d", ErrCorruptData, count)
	}
	if count == 0 {
		return nil, nil
	}

	sizes := make([]uint64, count)
	if err := binary.Read(r, binary.LittleEndian, sizes); err != nil {
		return nil, fmt.Errorf("%w: short length table: %w", ErrCorruptData, err)
	}

	filters := make([]*BloomFilter, 0, count)
	for _, size := range sizes {
		if size > math.MaxInt64 {
			return nil, fmt.Errorf("%w: sub-filter length %d overflows", ErrCorruptData, size)
		}
		var f BloomFilter
		n, err := f.ReadFrom(io.LimitReader(r, int64(size)))
		if err != nil {
			if errors.Is(err, ErrCorruptData) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		if n != int64(size) {
			return nil, fmt.Errorf("%w: sub-filter length mismatch: read %d, table says %d", ErrCorruptData, n, size)
		}
		filters = append(filters, &f)
	}
	return filters, nil
}
