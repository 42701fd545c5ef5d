package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
)

type EventHandler func(ctx context.Context, event PredictionEventPayload) error

// ConsumePredictionEvents dispatches prediction events from the receiver to
// handler until the task channel closes or ctx is cancelled. Malformed payloads
// are rejected, handler failures are nacked.
func ConsumePredictionEvents(ctx context.Context, receiver Reciever, handler EventHandler) {
	tasks := receiver.Tasks()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}

			if task.Type() != PredictionEventsQueue {
				slog.Warn("received task from unexpected queue", "queue", task.Type())
				if err := task.Reject(); err != nil {
					slog.Error("error rejecting task", "error", err)
				}
				continue
			}

			var event PredictionEventPayload
			if err := json.Unmarshal(task.Payload(), &event); err != nil {
				slog.Error("error parsing prediction event", "error", err)
				if err := task.Reject(); err != nil {
					slog.Error("error rejecting task", "error", err)
				}
				continue
			}

			if err := handler(ctx, event); err != nil {
				slog.Error("error handling prediction event", "prediction_id", event.PredictionId, "error", err)
				if err := task.Nack(); err != nil {
					slog.Error("error nacking task", "error", err)
				}
				continue
			}

			if err := task.Ack(); err != nil {
				slog.Error("error acking task", "prediction_id", event.PredictionId, "error", err)
			}
		}
	}
}

// LogPredictionEvent is the default handler, it writes each event to the log.
func LogPredictionEvent(_ context.Context, event PredictionEventPayload) error {
	slog.Info("prediction event", "prediction_id", event.PredictionId, "class", event.PredictedClass, "class_index", event.ClassIndex, "source", event.Source)
	return nil
}
