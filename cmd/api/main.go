package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"stage-backend/cmd"
	"stage-backend/internal/api"
	"stage-backend/internal/core"
	"stage-backend/internal/database"
	"stage-backend/internal/messaging"
	"stage-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	ort "github.com/yalue/onnxruntime_go"
)

type APIConfig struct {
	Host               string        `env:"HOST" envDefault:"0.0.0.0"`
	Port               int           `env:"PORT" envDefault:"5000"`
	ModelDir           string        `env:"MODEL_DIR" envDefault:"./model"`
	ModelFile          string        `env:"MODEL_FILE" envDefault:"modelo_lstm.onnx"`
	ModelInputName     string        `env:"MODEL_INPUT_NAME" envDefault:"input"`
	ModelOutputName    string        `env:"MODEL_OUTPUT_NAME" envDefault:"output"`
	ModelBucket        string        `env:"MODEL_BUCKET"`
	ModelKey           string        `env:"MODEL_KEY" envDefault:"modelo_lstm.onnx"`
	OnnxRuntimeDylib   string        `env:"ONNX_RUNTIME_DYLIB,required"`
	DatabaseURL        string        `env:"DATABASE_URL" envDefault:"sqlite://./data/predictions.db"`
	RabbitMQURL        string        `env:"RABBITMQ_URL"`
	CorsAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	BatchWorkers       int           `env:"BATCH_WORKERS" envDefault:"4"`

	ObjectStore cmd.ObjectStoreConfig
}

func loadPredictor(cfg APIConfig) *core.Predictor {
	modelPath := filepath.Join(cfg.ModelDir, cfg.ModelFile)

	if cfg.ModelBucket != "" {
		store := cmd.CreateObjectStore(cfg.ObjectStore)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		path, err := storage.FetchModel(ctx, store, cfg.ModelBucket, cfg.ModelKey, cfg.ModelDir, false)
		if err != nil {
			log.Fatalf("Failed to fetch model: %v", err)
		}
		modelPath = path
	}

	classes := core.DefaultClassMapping()

	log.Printf("Loading model from %s", modelPath)
	classifier, err := core.LoadOnnxClassifier(modelPath, cfg.ModelInputName, cfg.ModelOutputName, classes.Len())
	if err != nil {
		log.Fatalf("could not load model: %v", err)
	}
	log.Println("Model loaded")

	predictor := core.NewPredictor(classifier, classes)
	if err := predictor.WarmUp(); err != nil {
		log.Fatalf("model warm-up failed: %v", err)
	}

	return predictor
}

func main() {
	log.Println("Starting prediction server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	ort.SetSharedLibraryPath(cfg.OnnxRuntimeDylib)
	if err := ort.InitializeEnvironment(); err != nil {
		log.Fatalf("could not init ONNX Runtime: %v", err)
	}
	defer func() {
		if err := ort.DestroyEnvironment(); err != nil {
			slog.Error("error destroying onnx runtime environment", "error", err)
		}
	}()

	predictor := loadPredictor(cfg)
	defer predictor.Release()

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	publisher, receiver := cmd.CreatePublisher(cfg.RabbitMQURL)
	defer publisher.Close()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if receiver != nil {
		go messaging.ConsumePredictionEvents(consumerCtx, receiver, messaging.LogPredictionEvent)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	service := api.NewPredictionService(predictor, db, publisher, api.Options{
		ModelFile:    cfg.ModelFile,
		InputName:    cfg.ModelInputName,
		OutputName:   cfg.ModelOutputName,
		BatchWorkers: cfg.BatchWorkers,
	})
	service.AddRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Could not listen on %s: %v", addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("API server listening on %s (cors origins: %s)", addr, strings.Join(cfg.CorsAllowedOrigins, ","))
	if err := serve(ctx, server, listener, 30*time.Second); err != nil {
		// requests may still be running on the model, exit without releasing it
		log.Fatalf("%v", err)
	}

	log.Println("Server stopped.")
}
