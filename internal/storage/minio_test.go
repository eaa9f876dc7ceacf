package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 accepts bucket creation and object uploads and records them.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string
	types   map[string]string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{buckets: map[string]bool{}, objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		_, _ = io.Copy(io.Discard, r.Body)
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = string(body)
		f.types[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newStorage(t *testing.T, srv *httptest.Server, publicURL string) *MinioAvatarStorage {
	t.Helper()
	log, _ := test.NewNullLogger()
	s, err := NewMinioAvatarStorage(MinioConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "avatars",
		Region:    "us-east-1",
		PublicURL: publicURL,
	}, log)
	require.NoError(t, err)
	return s
}

func TestMinioAvatarStorage_EnsureBucket(t *testing.T) {
	fake, srv := newFakeS3(t)
	s := newStorage(t, srv, "")

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.True(t, fake.buckets["avatars"])
	require.NoError(t, s.EnsureBucket(context.Background()))
}

func TestMinioAvatarStorage_Put(t *testing.T) {
	fake, srv := newFakeS3(t)
	s := newStorage(t, srv, "https://cdn.example.com/")

	url, err := s.Put(context.Background(), "avatars/u1/a.png", "image/png", strings.NewReader("png-bytes"), int64(len("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/avatars/u1/a.png", url)
	assert.Equal(t, "image/png", fake.types["avatars/avatars/u1/a.png"])
}

func TestMinioAvatarStorage_DefaultURL(t *testing.T) {
	_, srv := newFakeS3(t)
	s := newStorage(t, srv, "")
	assert.Equal(t, srv.URL+"/avatars/k.webp", s.URL("k.webp"))
}
