package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// localStorageFullpath resolves bucket/key under baseDir and refuses keys that
// escape it.
func localStorageFullpath(baseDir, bucket, key string) (string, error) {
	path := filepath.Join(baseDir, bucket, filepath.FromSlash(key))
	if path != baseDir && !strings.HasPrefix(path, baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("key %s/%s resolves outside of %s", bucket, key, baseDir)
	}
	return path, nil
}
