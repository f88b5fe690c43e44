package bloomgo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalableBloomFilter_Defaults(t *testing.T) {
	s, err := NewScalableBloomFilter()
	require.NoError(t, err)

	assert.Equal(t, uint64(100), s.InitialCapacity())
	assert.Equal(t, 0.001, s.ErrorRate())
	assert.Equal(t, SmallSetGrowth, s.Growth())
	assert.Equal(t, 0, s.NumFilters())
	assert.Equal(t, uint64(0), s.Capacity())
	assert.Equal(t, uint64(0), s.Count())
}

func TestScalableBloomFilter_InvalidOptions(t *testing.T) {
	_, err := NewScalableBloomFilter(func(o *ScalableOptions) {
		o.InitialCapacity = 0
	})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewScalableBloomFilter(func(o *ScalableOptions) {
		o.ErrorRate = 1.0
	})
	assert.ErrorIs(t, err, ErrInvalidErrorRate)

	_, err = NewScalableBloomFilter(func(o *ScalableOptions) {
		o.Growth = 3
	})
	assert.ErrorIs(t, err, ErrInvalidGrowthFactor)
}

func TestScalableBloomFilter_AddContains(t *testing.T) {
	s, err := NewScalableBloomFilter()
	require.NoError(t, err)

	assert.False(t, s.ContainsString("hello"))

	present, err := s.AddString("hello")
	require.NoError(t, err)
	assert.False(t, present)
	assert.True(t, s.ContainsString("hello"))

	present, err = s.AddString("hello")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, uint64(1), s.Count())
}

func TestScalableBloomFilter_Grows(t *testing.T) {
	s, err := NewScalableBloomFilter(func(o *ScalableOptions) {
		o.InitialCapacity = 100
	})
	require.NoError(t, err)

	for i := 0; i < 250; i++ {
		_, err := s.AddString(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	// 100 + 200 capacity fills around insert 250, so at least a second
	// sub-filter exists by now.
	assert.GreaterOrEqual(t, s.NumFilters(), 2)
	assert.Greater(t, s.Capacity(), uint64(250))
	// A rare false positive during insert can swallow a key, so allow
	// a sliver of slack on the exact count.
	assert.InDelta(t, 250, float64(s.Count()), 1)

	for i := 0; i < 250; i++ {
		assert.True(t, s.ContainsString(fmt.Sprintf("key-%d", i)), "no false negatives across growth")
	}
}

func TestScalableBloomFilter_GrowthParameters(t *testing.T) {
	s, err := NewScalableBloomFilter(func(o *ScalableOptions) {
		o.InitialCapacity = 10
		o.ErrorRate = 0.01
		o.Growth = LargeSetGrowth
	})
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, err := s.AddString(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	require.GreaterOrEqual(t, s.NumFilters(), 2)

	// First sub-filter carries rate * (1 - r), successors shrink by the
	// tightening ratio while capacity scales by the growth factor.
	first := s.filters[0]
	second := s.filters[1]
	assert.Equal(t, uint64(10), first.Capacity())
	assert.InDelta(t, 0.01*(1.0-tighteningRatio), first.ErrorRate(), 1e-12)
	assert.Equal(t, uint64(40), second.Capacity())
	assert.InDelta(t, first.ErrorRate()*tighteningRatio, second.ErrorRate(), 1e-12)
}

func TestScalableBloomFilter_FalsePositiveRate(t *testing.T) {
	s, err := NewScalableBloomFilter(func(o *ScalableOptions) {
		o.InitialCapacity = 100
		o.ErrorRate = 0.01
	})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		_, err := s.AddString(fmt.Sprintf("member-%d", i))
		require.NoError(t, err)
	}

	falsePositives := 0
	const probes = 10000
	for i := 0; i < probes; i++ {
		if s.ContainsString(fmt.Sprintf("non-member-%d", i)) {
			falsePositives++
		}
	}

	rate := float64(falsePositives) / float64(probes)
	assert.Less(t, rate, 0.03, "observed false-positive rate %.4f", rate)
}
