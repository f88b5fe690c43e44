// Package bloomgo provides a family of Bloom filters for Go.
//
// A Bloom filter answers set-membership queries in constant space with a
// configurable false-positive rate and no false negatives. Three filter
// types cover the common workloads:
//
//   - BloomFilter: fixed capacity, minimal memory, fails closed once full
//   - ScalableBloomFilter: grows geometrically, steady false-positive rate
//   - DynamicBloomFilter: grows in uniform steps, supports Union and Intersection
//
// # Filter Selection
//
// Choose the right filter for your dataset:
//   - BloomFilter: element count known up front, tightest memory
//   - ScalableBloomFilter: unbounded or unknown element count
//   - DynamicBloomFilter: growing sets that must be merged or intersected
//
// # Quick Start
//
// Create a fixed-capacity filter and insert keys:
//
//	f, err := bloomgo.NewBloomFilter(100000, 0.001)
//	if err != nil {
//	    panic(err)
//	}
//
//	present, _ := f.AddString("alice@example.com")
//	fmt.Println(present)                             // false, newly added
//	fmt.Println(f.ContainsString("alice@example.com")) // true
//
// Growing filters take functional options:
//
//	s, err := bloomgo.NewScalableBloomFilter(func(o *bloomgo.ScalableOptions) {
//	    o.InitialCapacity = 1000
//	    o.ErrorRate = 0.0001
//	    o.Growth = bloomgo.LargeSetGrowth
//	})
//
//	d, err := bloomgo.NewDynamicBloomFilter(func(o *bloomgo.DynamicOptions) {
//	    o.BaseCapacity = 1000
//	    o.MaxCapacity = 10_000_000
//	})
//
// Dynamic filters of equal parameters combine set-wise:
//
//	union, err := d1.Union(d2)
//	common, err := d1.Intersection(d2)
//
// # Serialization
//
// Every filter implements io.WriterTo / io.ReaderFrom for a compact
// binary form and encoding.TextMarshaler / TextUnmarshaler for a
// colon-delimited text form. For files and object storage, Snapshot and
// Restore wrap the binary form in a checksummed, optionally compressed
// envelope:
//
//	err = bloomgo.SnapshotToFile("urls.snapshot", f)
//	restored, err := bloomgo.RestoreFromFile("urls.snapshot")
//
//	store := blobstore.NewLocalStore("/var/lib/filters")
//	err = bloomgo.SaveSnapshot(ctx, store, "urls.snapshot", f)
//
// S3, MinIO and in-memory blob stores live under the blobstore package.
//
// # Concurrency
//
// Filters are not safe for concurrent mutation; guard them with a mutex
// when sharing across goroutines. The blob stores and snapshot helpers
// are safe for concurrent use.
package bloomgo
