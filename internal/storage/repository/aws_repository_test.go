package repository

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/amankumarsingh77/episode-transcoder/internal/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	objects  map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Content-Type")})
	body, ok := f.objects[r.URL.Path]
	f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = io.WriteString(w, body)
	case http.MethodPut:
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestRepo(t *testing.T, objects map[string]string) (storage.AWSRepository, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: objects}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})
	return NewAwsRepository(client), fake
}

func TestDownload(t *testing.T) {
	repo, _ := newTestRepo(t, map[string]string{"/media/episodes/ep-1": "video-bytes"})
	dest := filepath.Join(t.TempDir(), "source")

	require.NoError(t, repo.Download(context.Background(), "media", "episodes/ep-1", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}

func TestDownloadMissingObject(t *testing.T) {
	repo, _ := newTestRepo(t, map[string]string{})
	err := repo.Download(context.Background(), "media", "episodes/none", filepath.Join(t.TempDir(), "source"))
	assert.True(t, errors.Is(err, storage.ErrStorage))
}

func TestUploadDirectory(t *testing.T) {
	repo, fake := newTestRepo(t, nil)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "playlist.m3u8"), []byte("#EXTM3U"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "720p_000.ts"), []byte("ts"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "extra"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra", "thumb.jpg"), []byte("jpg"), 0o644))

	keys, err := repo.UploadDirectory(context.Background(), "media", dir, "processed/ep-1")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{
		"processed/ep-1/720p_000.ts",
		"processed/ep-1/extra/thumb.jpg",
		"processed/ep-1/playlist.m3u8",
	}, keys)

	types := map[string]string{}
	for _, r := range fake.requests {
		require.Equal(t, http.MethodPut, r.method)
		types[r.path] = r.contentType
	}
	assert.Equal(t, "application/vnd.apple.mpegurl", types["/media/processed/ep-1/playlist.m3u8"])
	assert.Equal(t, "video/mp2t", types["/media/processed/ep-1/720p_000.ts"])
	assert.Equal(t, "image/jpeg", types["/media/processed/ep-1/extra/thumb.jpg"])
}

func TestRemoveObject(t *testing.T) {
	repo, fake := newTestRepo(t, nil)
	require.NoError(t, repo.RemoveObject(context.Background(), "media", "episodes/ep-1"))
	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodDelete, fake.requests[0].method)
	assert.Equal(t, "/media/episodes/ep-1", fake.requests[0].path)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/vnd.apple.mpegurl", ContentType("a/B.M3U8"))
	assert.Equal(t, "video/mp2t", ContentType("144p_001.ts"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
