package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"https://abc123.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.eu-west-1.amazonaws.com", StorageTypeS3},
		{"http://localhost:9000", StorageTypeS3Compatible},
		{"", StorageTypeS3Compatible},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, detectStorageType(tt.endpoint))
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:9000", normalizeEndpoint("http://localhost:9000/"))
	assert.Equal(t, "s3.amazonaws.com", normalizeEndpoint("https://s3.amazonaws.com/bucket/key"))
	assert.Equal(t, "minio:9000", normalizeEndpoint("minio:9000"))
}

func TestNewStorage_SelectsClient(t *testing.T) {
	s, err := NewStorage(&Config{Type: StorageTypeMinIO, Endpoint: "localhost:9000", Bucket: "reports"})
	require.NoError(t, err)
	assert.IsType(t, &MinIOStorage{}, s)

	cfg := &Config{Endpoint: "http://localhost:9000", Bucket: "reports"}
	s, err = NewStorage(cfg)
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, s)
	assert.Equal(t, StorageTypeS3Compatible, cfg.Type)
}

func TestGetURL(t *testing.T) {
	s3s, err := NewS3Storage(&Config{Endpoint: "localhost:9000", Bucket: "reports"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/reports/runs/abc.json", s3s.GetURL("runs/abc.json"))

	public, err := NewS3Storage(&Config{Endpoint: "localhost:9000", Bucket: "reports", PublicURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/abc.json", public.GetURL("abc.json"))

	m, err := NewMinIOStorage(&Config{Endpoint: "https://minio.example.com", Bucket: "reports", UseSSL: true})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.example.com/reports/abc.json", m.GetURL("abc.json"))
}

func TestS3Storage_Upload(t *testing.T) {
	var method, path, contentType string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	s, err := NewS3Storage(&Config{
		Endpoint:  srv.URL,
		Bucket:    "reports",
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	payload := []byte(`{"run_id":"abc"}`)
	err = s.Upload(context.Background(), "runs/abc.json", bytes.NewReader(payload), int64(len(payload)), "application/json")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/reports/runs/abc.json", path)
	assert.Equal(t, "application/json", contentType)
	assert.True(t, strings.Contains(string(body), `"run_id":"abc"`))
}
