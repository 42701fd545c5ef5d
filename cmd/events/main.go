package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stage-backend/cmd"
	"stage-backend/internal/messaging"

	"github.com/caarlos0/env/v11"
)

type EventsConfig struct {
	RabbitMQURL string `env:"RABBITMQ_URL,required"`
}

func main() {
	cmd.LoadEnvFile()

	var cfg EventsConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("consuming prediction events", "queue", messaging.PredictionEventsQueue)
	messaging.ConsumePredictionEvents(ctx, receiver, messaging.LogPredictionEvent)
	slog.Info("prediction event consumer stopped")
}
