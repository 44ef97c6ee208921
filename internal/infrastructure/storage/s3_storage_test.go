package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Endpoint:        endpoint,
		Region:          "us-east-1",
		Bucket:          "exports",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	cfg := validConfig("")
	cfg.Bucket = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "bucket is required")

	cfg = validConfig("")
	cfg.SecretAccessKey = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "secret access key")

	s, err := NewS3ObjectStorage(validConfig("minio:9000"))
	require.NoError(t, err)
	assert.Equal(t, "exports", s.Bucket())
	assert.Equal(t, defaultPresignExpiry, s.presignExpiry)
}

func TestS3ObjectStorage_PresignDownload(t *testing.T) {
	cfg := validConfig("http://localhost:9000")
	cfg.PresignExpiry = 5 * time.Minute
	s, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)

	link, expiresAt, err := s.PresignDownload(context.Background(), "sales/2026/register.xlsx")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/exports/sales/2026/register.xlsx", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	_, _, err = s.PresignDownload(context.Background(), "")
	assert.Error(t, err)
}

// fakeS3 accepts PUT object requests and records what it received
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256") {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.objects[r.URL.Path] = body
	f.types[r.URL.Path] = r.Header.Get("Content-Type")
	f.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func TestS3ObjectStorage_Put(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3ObjectStorage(validConfig(srv.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "sales/register.xlsx", []byte("xlsx-bytes"), "application/octet-stream"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "xlsx-bytes", string(fake.objects["/exports/sales/register.xlsx"]))
	assert.Equal(t, "application/octet-stream", fake.types["/exports/sales/register.xlsx"])

	assert.Error(t, s.Put(context.Background(), "", nil, ""))
}

func TestS3ObjectStorage_PutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewS3ObjectStorage(validConfig(srv.URL))
	require.NoError(t, err)
	err = s.Put(context.Background(), "k", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload k")
}
