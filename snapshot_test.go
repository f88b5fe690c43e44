package bloomgo

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hupe1980/bloomgo/blobstore"
	"github.com/hupe1980/bloomgo/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore_Bloom(t *testing.T) {
	f, err := NewBloomFilter(1000, 0.001)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		_, err := f.AddString(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := Snapshot(&buf, f)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	restored, err := Restore(&buf)
	require.NoError(t, err)

	rf, ok := restored.(*BloomFilter)
	require.True(t, ok)

	assert.Equal(t, f.Count(), rf.Count())
	assert.Equal(t, f.Capacity(), rf.Capacity())

	for i := 0; i < 500; i++ {
		assert.True(t, rf.ContainsString(fmt.Sprintf("key-%d", i)))
	}
}

func TestSnapshotRestore_Scalable(t *testing.T) {
	s, err := NewScalableBloomFilter(func(o *ScalableOptions) {
		o.InitialCapacity = 50
	})
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		_, err := s.AddString(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	_, err = Snapshot(&buf, s, func(o *SnapshotOptions) {
		o.Compression = persistence.CompressionLZ4
	})
	require.NoError(t, err)

	restored, err := Restore(&buf)
	require.NoError(t, err)

	rs, ok := restored.(*ScalableBloomFilter)
	require.True(t, ok)

	assert.Equal(t, s.Count(), rs.Count())
	assert.Equal(t, s.NumFilters(), rs.NumFilters())

	for i := 0; i < 200; i++ {
		assert.True(t, rs.ContainsString(fmt.Sprintf("key-%d", i)))
	}
}

func TestSnapshotRestore_Dynamic(t *testing.T) {
	d, err := NewDynamicBloomFilter(func(o *DynamicOptions) {
		o.BaseCapacity = 25
	})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, err := d.AddString(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	_, err = Snapshot(&buf, d)
	require.NoError(t, err)

	restored, err := Restore(&buf)
	require.NoError(t, err)

	rd, ok := restored.(*DynamicBloomFilter)
	require.True(t, ok)

	assert.Equal(t, d.Count(), rd.Count())
	assert.Equal(t, d.NumFilters(), rd.NumFilters())

	for i := 0; i < 100; i++ {
		assert.True(t, rd.ContainsString(fmt.Sprintf("key-%d", i)))
	}
}

func TestSnapshotFile_RoundTrip(t *testing.T) {
	f, err := NewBloomFilter(100, 0.01)
	require.NoError(t, err)
	_, err = f.AddString("on disk")
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "filter.snapshot")
	require.NoError(t, SnapshotToFile(filename, f))

	restored, err := RestoreFromFile(filename)
	require.NoError(t, err)
	assert.True(t, restored.Contains([]byte("on disk")))
}

func TestSaveLoadSnapshot_BlobStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	f, err := NewBloomFilter(100, 0.01)
	require.NoError(t, err)
	_, err = f.AddString("stored")
	require.NoError(t, err)

	require.NoError(t, SaveSnapshot(ctx, store, "urls.snapshot", f))

	restored, err := LoadSnapshot(ctx, store, "urls.snapshot")
	require.NoError(t, err)
	assert.True(t, restored.Contains([]byte("stored")))

	_, err = LoadSnapshot(ctx, store, "missing.snapshot")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestSaveLoadSnapshots_Parallel(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	filters := make(map[string]Filter)
	var names []string

	for i := 0; i < 10; i++ {
		f, err := NewBloomFilter(100, 0.01)
		require.NoError(t, err)
		_, err = f.AddString(fmt.Sprintf("member-%d", i))
		require.NoError(t, err)

		name := fmt.Sprintf("shards/%d.snapshot", i)
		filters[name] = f
		names = append(names, name)
	}

	require.NoError(t, SaveSnapshots(ctx, store, filters))

	loaded, err := LoadSnapshots(ctx, store, names)
	require.NoError(t, err)
	require.Len(t, loaded, 10)

	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("shards/%d.snapshot", i)
		require.Contains(t, loaded, name)
		assert.True(t, loaded[name].Contains([]byte(fmt.Sprintf("member-%d", i))))
	}
}

func TestLoadSnapshots_MissingBlobFails(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := LoadSnapshots(ctx, store, []string{"nope.snapshot"})
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
