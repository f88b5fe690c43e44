// Package s3 provides an Amazon S3 implementation of the
// blobstore.BlobStore interface for filter snapshots.
//
// # Usage
//
//	client, err := s3.NewDefaultClient(ctx)
//	store := s3.NewStore(client, "my-bucket", "filters/")
//
//	err = bloomgo.SaveSnapshot(ctx, store, "seen-urls.blm", filter)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Managed (multipart-capable) uploads for streaming writes
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Optional DynamoDB commit store for atomically publishing the
//     latest snapshot pointer across concurrent writers
package s3
