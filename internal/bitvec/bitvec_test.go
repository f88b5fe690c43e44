package bitvec

import (
	"testing"
)

func TestVector(t *testing.T) {
	v := New(100)

	if v.Len() != 100 {
		t.Errorf("expected len 100, got %d", v.Len())
	}

	v.Set(10)
	if !v.Test(10) {
		t.Errorf("expected bit 10 to be set")
	}

	if v.Count() != 1 {
		t.Errorf("expected count 1, got %d", v.Count())
	}

	v.Set(0)
	v.Set(63)
	v.Set(64)
	v.Set(99)

	if v.Count() != 5 {
		t.Errorf("expected count 5, got %d", v.Count())
	}
}

func TestVector_Bounds(t *testing.T) {
	v := New(100)

	v.Set(100) // out of range, ignored
	v.Set(1 << 32)

	if v.Count() != 0 {
		t.Errorf("expected out-of-range sets to be ignored, count %d", v.Count())
	}
	if v.Test(100) || v.Test(1<<32) {
		t.Errorf("expected out-of-range tests to report false")
	}
}

func TestVector_TestAndSet(t *testing.T) {
	v := New(100)
	if v.TestAndSet(42) {
		t.Errorf("expected TestAndSet(42) to return false (was unset)")
	}
	if !v.TestAndSet(42) {
		t.Errorf("expected TestAndSet(42) to return true (was set)")
	}
}

func TestVector_OrAnd(t *testing.T) {
	a := New(130)
	b := New(130)
	a.Set(1)
	a.Set(65)
	b.Set(65)
	b.Set(129)

	u := a.Clone()
	if err := u.Or(b); err != nil {
		t.Fatalf("Or failed: %v", err)
	}
	if u.Count() != 3 || !u.Test(1) || !u.Test(65) || !u.Test(129) {
		t.Errorf("unexpected union bits")
	}

	i := a.Clone()
	if err := i.And(b); err != nil {
		t.Fatalf("And failed: %v", err)
	}
	if i.Count() != 1 || !i.Test(65) {
		t.Errorf("unexpected intersection bits")
	}

	if err := a.Or(New(10)); err == nil {
		t.Errorf("expected length mismatch error")
	}
	if err := a.And(New(10)); err == nil {
		t.Errorf("expected length mismatch error")
	}
}

func TestVector_CloneIndependence(t *testing.T) {
	a := New(64)
	a.Set(7)
	c := a.Clone()
	c.Set(8)

	if a.Test(8) {
		t.Errorf("mutating clone should not affect original")
	}
	if !c.Test(7) {
		t.Errorf("clone lost bit 7")
	}
}

func TestVector_BytesRoundTrip(t *testing.T) {
	v := New(107)
	for _, i := range []uint64{0, 7, 8, 63, 64, 100, 106} {
		v.Set(i)
	}

	data := v.Bytes()
	if uint64(len(data)) != v.ByteLen() {
		t.Fatalf("expected %d bytes, got %d", v.ByteLen(), len(data))
	}

	got, err := FromBytes(107, data)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("round trip lost bits")
	}
}

func TestVector_ByteLayout(t *testing.T) {
	// Bit i must live in byte i/8 at position i%8 (LSB-first).
	v := New(16)
	v.Set(0)
	v.Set(9)

	data := v.Bytes()
	if data[0] != 0x01 || data[1] != 0x02 {
		t.Errorf("unexpected byte layout: %x", data)
	}
}

func TestVector_FromBytesErrors(t *testing.T) {
	if _, err := FromBytes(16, make([]byte, 3)); err == nil {
		t.Errorf("expected error for oversized data")
	}
	if _, err := FromBytes(16, make([]byte, 1)); err == nil {
		t.Errorf("expected error for undersized data")
	}
}

func TestVector_FromBytesClearsPadding(t *testing.T) {
	// High bits of the final byte beyond nbits must be dropped.
	got, err := FromBytes(4, []byte{0xFF})
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if got.Count() != 4 {
		t.Errorf("expected padding bits cleared, count %d", got.Count())
	}
}
