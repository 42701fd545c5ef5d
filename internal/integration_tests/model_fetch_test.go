//go:build integration
// +build integration

package integrationtests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stage-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelBucket = "test-model-bucket"

func setupTestObjectStore(t *testing.T, ctx context.Context) *storage.S3ObjectStore {
	t.Helper()

	endpoint := setupMinioContainer(t, ctx)

	objectStore, err := storage.NewS3ObjectStore(storage.S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)
	return objectStore
}

func TestS3UploadAndFetchModel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestObjectStore(t, ctx)

	srcDir := t.TempDir()
	modelPath := filepath.Join(srcDir, "modelo_lstm.onnx")
	modelData := []byte("not really an onnx graph")
	require.NoError(t, os.WriteFile(modelPath, modelData, 0644))

	require.NoError(t, storage.UploadModel(ctx, store, modelBucket, "v1/modelo_lstm.onnx", modelPath))

	destDir := t.TempDir()
	localPath, err := storage.FetchModel(ctx, store, modelBucket, "v1/modelo_lstm.onnx", destDir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "modelo_lstm.onnx"), localPath)

	data, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, modelData, data)

	_, err = os.Stat(localPath + ".download")
	assert.True(t, os.IsNotExist(err))
}

func TestS3FetchModelMissingKey(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	store := setupTestObjectStore(t, ctx)
	require.NoError(t, store.CreateBucket(ctx, modelBucket))

	destDir := t.TempDir()
	_, err := storage.FetchModel(ctx, store, modelBucket, "missing.onnx", destDir, false)
	require.Error(t, err)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
