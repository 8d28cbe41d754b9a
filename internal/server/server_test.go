package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userhub/apiserver/config"
)

func TestNewRouterServesHealthz(t *testing.T) {
	router := NewRouter(nil, nil, "", nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenStorageDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := openStorage(context.Background(), config.Config{
		StorageBackend: config.StorageDisk,
		UploadsDir:     dir,
	})
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "abc"), s.Location("abc"))
	assert.Equal(t, dir, s.Bucket())
}

func TestOpenStorageRejectsIncompleteConfig(t *testing.T) {
	ctx := context.Background()

	_, err := openStorage(ctx, config.Config{StorageBackend: config.StorageGCS})
	assert.ErrorContains(t, err, "gcs bucket is required")

	_, err = openStorage(ctx, config.Config{StorageBackend: config.StorageMinio})
	assert.ErrorContains(t, err, "minio endpoint is required")
}

func TestUnknownBackends(t *testing.T) {
	ctx := context.Background()

	_, err := openStorage(ctx, config.Config{StorageBackend: "tape"})
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = openMQ(ctx, config.Config{MQ: config.MQConfig{Backend: "carrier-pigeon"}})
	assert.ErrorContains(t, err, "unknown mq backend")

	_, err = openRepositories(ctx, config.Config{StoreBackend: "csv"})
	assert.ErrorContains(t, err, "unknown store backend")
}
