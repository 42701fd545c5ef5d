package api

import (
	"encoding/json"
	"log/slog"
	"stage-backend/internal/database"
	"stage-backend/pkg/api"
)

func convertPrediction(p database.Prediction) api.Prediction {
	out := api.Prediction{
		Id:                 p.Id,
		Edad:               p.Edad,
		Estatura:           p.Estatura,
		Peso:               p.Peso,
		DosisQuimioterapia: p.DosisQuimioterapia,
		PredictedClass:     p.PredictedClass,
		Error:              p.Error.String,
		Source:             p.Source,
		CreationTime:       p.CreationTime,
	}

	if p.ClassIndex.Valid {
		idx := int(p.ClassIndex.Int64)
		out.ClassIndex = &idx
	}

	if len(p.Scores) > 0 {
		if err := json.Unmarshal(p.Scores, &out.Scores); err != nil {
			slog.Warn("unable to decode stored scores", "prediction_id", p.Id, "error", err)
		}
	}

	return out
}

func convertPredictions(ps []database.Prediction) []api.Prediction {
	predictions := make([]api.Prediction, 0, len(ps))
	for _, p := range ps {
		predictions = append(predictions, convertPrediction(p))
	}
	return predictions
}
