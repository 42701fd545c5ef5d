package cmd

import (
	"flag"
	"log"
	"log/slog"

	"stage-backend/internal/messaging"
	"stage-backend/internal/storage"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

type ObjectStoreConfig struct {
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	LocalStoreDir     string `env:"LOCAL_STORE_DIR"`
}

// CreateObjectStore returns a directory backed store when LOCAL_STORE_DIR is
// set and an S3 store otherwise.
func CreateObjectStore(cfg ObjectStoreConfig) storage.ObjectStore {
	if cfg.LocalStoreDir != "" {
		store, err := storage.NewLocalObjectStore(cfg.LocalStoreDir)
		if err != nil {
			log.Fatalf("Failed to create local object store: %v", err)
		}
		slog.Info("using local object store", "dir", cfg.LocalStoreDir)
		return store
	}

	store, err := storage.NewS3ObjectStore(storage.S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 object store: %v", err)
	}
	return store
}

// CreatePublisher connects to RabbitMQ when a url is given. Without one it
// falls back to an in-memory queue which is also returned as the receiver so
// the caller can drain it in process.
func CreatePublisher(rabbitMQURL string) (messaging.Publisher, messaging.Reciever) {
	if rabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, prediction events are handled in process")
		queue := messaging.NewInMemoryQueue()
		return queue, queue
	}

	publisher, err := messaging.NewRabbitMQPublisher(rabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	return publisher, nil
}
