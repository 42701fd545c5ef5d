package storage

import (
	"context"
	"io"
)

// ObjectStore holds model artifacts. Keys are slash separated paths within a
// bucket.
type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	DownloadObject(ctx context.Context, bucket, key, filename string) error
}
