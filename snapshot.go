package bloomgo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/bloomgo/blobstore"
	"github.com/hupe1980/bloomgo/persistence"
	"golang.org/x/sync/errgroup"
)

// SnapshotOptions control how filters are wrapped in snapshot envelopes.
type SnapshotOptions struct {
	// Compression selects the payload compression. Bloom bit arrays of
	// sparsely filled filters compress very well.
	Compression persistence.CompressionType
}

// DefaultSnapshotOptions are the snapshot defaults.
var DefaultSnapshotOptions = SnapshotOptions{
	Compression: persistence.CompressionZSTD,
}

// Snapshot writes f to w wrapped in a checksummed snapshot envelope.
func Snapshot(w io.Writer, f Filter, optFns ...func(o *SnapshotOptions)) (int64, error) {
	opts := DefaultSnapshotOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	ft, src, err := snapshotSource(f)
	if err != nil {
		return 0, err
	}

	return persistence.WriteSnapshot(w, ft, opts.Compression, src)
}

// Restore reads a snapshot envelope from r and reconstructs the filter
// it holds. The concrete type is determined by the envelope's filter
// type tag.
func Restore(r io.Reader) (Filter, error) {
	ft, data, err := persistence.ReadSnapshot(r)
	if err != nil {
		return nil, err
	}

	switch ft {
	case persistence.FilterTypeBloom:
		f := &BloomFilter{}
		if _, err := f.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		return f, nil
	case persistence.FilterTypeScalable:
		s := &ScalableBloomFilter{}
		if _, err := s.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		return s, nil
	case persistence.FilterTypeDynamic:
		d := &DynamicBloomFilter{}
		if _, err := d.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %d", persistence.ErrInvalidFilterType, ft)
	}
}

// SnapshotToFile writes f to filename as a snapshot, atomically via a
// temp file in the same directory.
func SnapshotToFile(filename string, f Filter, optFns ...func(o *SnapshotOptions)) error {
	return persistence.SaveToFile(filename, func(w io.Writer) error {
		_, err := Snapshot(w, f, optFns...)
		return err
	})
}

// RestoreFromFile reads a snapshot from filename.
func RestoreFromFile(filename string) (Filter, error) {
	var f Filter

	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		var err error
		f, err = Restore(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

// SaveSnapshot writes f to the named blob in store.
func SaveSnapshot(ctx context.Context, store blobstore.BlobStore, name string, f Filter, optFns ...func(o *SnapshotOptions)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := Snapshot(&buf, f, optFns...); err != nil {
		return err
	}

	return store.Put(ctx, name, buf.Bytes())
}

// LoadSnapshot reads the named blob from store and reconstructs the
// filter it holds.
func LoadSnapshot(ctx context.Context, store blobstore.BlobStore, name string) (Filter, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}

	return Restore(bytes.NewReader(data))
}

// snapshotConcurrency bounds parallel blob operations to avoid FD
// exhaustion or object store rate limits.
const snapshotConcurrency = 16

// SaveSnapshots writes a set of named filters to store in parallel. On
// error some blobs may already have been written; callers that need
// all-or-nothing semantics should write to a staging prefix first.
func SaveSnapshots(ctx context.Context, store blobstore.BlobStore, filters map[string]Filter, optFns ...func(o *SnapshotOptions)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	for name, f := range filters {
		g.Go(func() error {
			if err := SaveSnapshot(ctx, store, name, f, optFns...); err != nil {
				return fmt.Errorf("save snapshot %q: %w", name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// LoadSnapshots reads the named blobs from store in parallel and returns
// the reconstructed filters keyed by blob name.
func LoadSnapshots(ctx context.Context, store blobstore.BlobStore, names []string) (map[string]Filter, error) {
	filters := make(map[string]Filter, len(names))

	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	for _, name := range names {
		g.Go(func() error {
			f, err := LoadSnapshot(ctx, store, name)
			if err != nil {
				return fmt.Errorf("load snapshot %q: %w", name, err)
			}

			mu.Lock()
			filters[name] = f
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func snapshotSource(f Filter) (persistence.FilterType, io.WriterTo, error) {
	switch v := f.(type) {
	case *BloomFilter:
		return persistence.FilterTypeBloom, v, nil
	case *ScalableBloomFilter:
		return persistence.FilterTypeScalable, v, nil
	case *DynamicBloomFilter:
		return persistence.FilterTypeDynamic, v, nil
	default:
		return 0, nil, fmt.Errorf("%w: %T", persistence.ErrInvalidFilterType, f)
	}
}
