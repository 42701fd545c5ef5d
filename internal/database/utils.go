package database

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type PredictionFilter struct {
	Limit  int
	Offset int
	Class  string
}

func SavePrediction(ctx context.Context, txn *gorm.DB, prediction *Prediction) error {
	if err := txn.WithContext(ctx).Create(prediction).Error; err != nil {
		slog.Error("error saving prediction", "prediction_id", prediction.Id, "error", err)
		return err
	}
	return nil
}

func GetPrediction(ctx context.Context, txn *gorm.DB, id uuid.UUID) (Prediction, error) {
	var prediction Prediction
	err := txn.WithContext(ctx).First(&prediction, "id = ?", id).Error
	return prediction, err
}

// ListPredictions returns predictions newest first. A non-positive limit uses
// DefaultListLimit and larger limits are capped at MaxListLimit.
func ListPredictions(ctx context.Context, txn *gorm.DB, filter PredictionFilter) ([]Prediction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	query := txn.WithContext(ctx).Order("creation_time DESC").Limit(limit).Offset(max(filter.Offset, 0))
	if filter.Class != "" {
		query = query.Where("predicted_class = ?", filter.Class)
	}

	var predictions []Prediction
	if err := query.Find(&predictions).Error; err != nil {
		slog.Error("error listing predictions", "error", err)
		return nil, err
	}
	return predictions, nil
}
