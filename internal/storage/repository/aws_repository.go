package repository

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/episode-transcoder/internal/storage"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

var contentTypes = map[string]string{
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
}

type awsRepository struct {
	client *s3.Client
}

func NewAwsRepository(awsClient *s3.Client) storage.AWSRepository {
	return &awsRepository{client: awsClient}
}

func (a *awsRepository) Download(ctx context.Context, bucket, key, dest string) error {
	res, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return storageErr(err, "failed to download %s", key)
	}
	defer res.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return storageErr(err, "failed to create %s", dest)
	}
	if _, err := io.Copy(out, res.Body); err != nil {
		out.Close()
		return storageErr(err, "failed to write %s", dest)
	}
	if err := out.Close(); err != nil {
		return storageErr(err, "failed to close %s", dest)
	}
	return nil
}

func (a *awsRepository) UploadDirectory(ctx context.Context, bucket, dir, prefix string) ([]string, error) {
	var keys []string
	stack := []string{dir}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current)
		if err != nil {
			return keys, storageErr(err, "failed to read %s", current)
		}
		for _, e := range entries {
			full := filepath.Join(current, e.Name())
			if e.IsDir() {
				stack = append(stack, full)
				continue
			}
			rel, err := filepath.Rel(dir, full)
			if err != nil {
				return keys, storageErr(err, "failed to resolve %s", full)
			}
			key := path.Join(prefix, filepath.ToSlash(rel))
			if err := a.putFile(ctx, bucket, key, full); err != nil {
				return keys, err
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (a *awsRepository) putFile(ctx context.Context, bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return storageErr(err, "failed to open %s", file)
	}
	defer f.Close()

	contentType := ContentType(file)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
		Body:        f,
	})
	if err != nil {
		return storageErr(err, "failed to upload %s", key)
	}
	return nil
}

func (a *awsRepository) RemoveObject(ctx context.Context, bucket, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return storageErr(err, "failed to remove %s", key)
	}
	return nil
}

// ContentType picks the upload Content-Type for a file by extension.
func ContentType(file string) string {
	ext := strings.ToLower(filepath.Ext(file))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func storageErr(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %v", storage.ErrStorage, errors.Wrapf(err, format, args...))
}
