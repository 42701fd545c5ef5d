package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"stage-backend/cmd"
	"stage-backend/internal/storage"

	"github.com/caarlos0/env/v11"
)

func main() {
	modelPath := flag.String("model", "", "path to the onnx model file")
	bucket := flag.String("bucket", "", "destination bucket")
	key := flag.String("key", "", "destination key (defaults to the model file name)")
	cmd.LoadEnvFile()

	if *modelPath == "" || *bucket == "" {
		log.Fatalf("-model and -bucket are required")
	}
	if *key == "" {
		*key = filepath.Base(*modelPath)
	}

	var cfg cmd.ObjectStoreConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	store := cmd.CreateObjectStore(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := storage.UploadModel(ctx, store, *bucket, *key, *modelPath); err != nil {
		log.Fatalf("error uploading model: %v", err)
	}

	log.Printf("uploaded %s to %s/%s", *modelPath, *bucket, *key)
}
