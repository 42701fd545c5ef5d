package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// FetchModel downloads bucket/key into destDir and returns the local path. An
// existing file is reused unless overwrite is set.
func FetchModel(ctx context.Context, store ObjectStore, bucket, key, destDir string, overwrite bool) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("model bucket and key are required")
	}

	localPath := filepath.Join(destDir, path.Base(key))

	if info, err := os.Stat(localPath); err == nil && !info.IsDir() && !overwrite {
		slog.Info("model already present locally, skipping download", "path", localPath)
		return localPath, nil
	}

	// download next to the destination and rename so a partial file is never loaded
	tmpPath := localPath + ".download"
	if err := store.DownloadObject(ctx, bucket, key, tmpPath); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return "", fmt.Errorf("error downloading model %s/%s: %w", bucket, key, err)
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		return "", fmt.Errorf("error moving downloaded model into place: %w", err)
	}

	slog.Info("model downloaded", "bucket", bucket, "key", key, "path", localPath)
	return localPath, nil
}

// UploadModel stores the local model file under bucket/key, creating the bucket
// if needed.
func UploadModel(ctx context.Context, store ObjectStore, bucket, key, modelPath string) error {
	file, err := os.Open(modelPath)
	if err != nil {
		return fmt.Errorf("error opening model file %s: %w", modelPath, err)
	}
	defer file.Close()

	if err := store.CreateBucket(ctx, bucket); err != nil {
		return err
	}

	if err := store.PutObject(ctx, bucket, key, file); err != nil {
		return fmt.Errorf("error uploading model %s: %w", modelPath, err)
	}
	return nil
}
