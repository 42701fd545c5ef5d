package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	PredictionEventsQueue = "prediction_events"
	RetryDelay            = 5 * time.Second
	MaxConnectRetry       = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// PredictionEventPayload is published after every successful prediction.
type PredictionEventPayload struct {
	PredictionId   uuid.UUID `json:"prediction_id"`
	PredictedClass string    `json:"predicted_class"`
	ClassIndex     int       `json:"class_index"`
	Features       []float32 `json:"features"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishPredictionEvent(ctx context.Context, payload PredictionEventPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
