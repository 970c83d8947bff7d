package storage

import (
	"context"
	"errors"
)

var ErrStorage = errors.New("storage error")

// AWSRepository moves episode sources and HLS output to and from the bucket.
type AWSRepository interface {
	// Download writes the object at key to the local file dest.
	Download(ctx context.Context, bucket, key, dest string) error
	// UploadDirectory uploads every file under dir, keyed by prefix plus the
	// slash-separated path relative to dir. It returns the uploaded keys.
	UploadDirectory(ctx context.Context, bucket, dir, prefix string) ([]string, error)
	RemoveObject(ctx context.Context, bucket, key string) error
}
