package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"stage-backend/internal/core"
	"stage-backend/internal/core/utils"
	"stage-backend/internal/database"
	"stage-backend/internal/messaging"
	"stage-backend/pkg/api"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxBatchSize        = 256
	defaultBatchWorkers = 4
)

type Options struct {
	ModelFile    string
	InputName    string
	OutputName   string
	BatchWorkers int
}

// PredictionService serves predictions from a loaded model. The predictor and
// its class mapping are shared read-only across requests.
type PredictionService struct {
	predictor    *core.Predictor
	db           *gorm.DB
	publisher    messaging.Publisher
	batchWorkers int
	modelInfo    api.ModelInfo
}

func NewPredictionService(predictor *core.Predictor, db *gorm.DB, publisher messaging.Publisher, opts Options) *PredictionService {
	workers := opts.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	return &PredictionService{
		predictor:    predictor,
		db:           db,
		publisher:    publisher,
		batchWorkers: workers,
		modelInfo: api.ModelInfo{
			ModelFile:  opts.ModelFile,
			InputName:  opts.InputName,
			OutputName: opts.OutputName,
			InputShape: core.InputShape(),
			Features:   core.RequiredFields(),
			Classes:    predictor.Classes().Labels(),
		},
	}
}

func (s *PredictionService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Get("/model", RestHandler(s.GetModel))
	r.Route("/predict", func(r chi.Router) {
		r.Get("/", RestHandler(s.PredictStub))
		r.Post("/", RestHandler(s.Predict))
		r.Post("/batch", RestHandler(s.PredictBatch))
	})
	r.Route("/predictions", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListPredictions))
		r.Get("/{prediction_id}", RestHandler(s.GetPrediction))
	})
}

func (s *PredictionService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "ok"}, nil
}

func (s *PredictionService) GetModel(r *http.Request) (any, error) {
	return s.modelInfo, nil
}

// PredictStub answers GET /predict with a fixed label without running the
// model. Older clients use it as a reachability probe.
func (s *PredictionService) PredictStub(r *http.Request) (any, error) {
	return api.PredictResponse{PredictedClass: s.predictor.Classes().Label(0)}, nil
}

func (s *PredictionService) Predict(r *http.Request) (any, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}

	slog.Info("received prediction request", "body", string(body))

	var instance map[string]json.RawMessage
	if err := json.Unmarshal(body, &instance); err != nil || instance == nil {
		if err == nil {
			err = errors.New("got null")
		}
		return nil, CodedErrorf(http.StatusBadRequest, "request body must be a JSON object: %v", err)
	}

	prediction, err := s.predictInstance(r.Context(), instance, database.SourceSingle)
	if err != nil {
		return nil, err
	}

	return api.PredictResponse{PredictedClass: prediction.Label}, nil
}

func (s *PredictionService) PredictBatch(r *http.Request) (any, error) {
	req, err := ParseRequest[api.BatchPredictRequest](r)
	if err != nil {
		return nil, err
	}

	if len(req.Instances) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "instances must contain at least one item")
	}
	if len(req.Instances) > MaxBatchSize {
		return nil, CodedErrorf(http.StatusBadRequest, "instances must contain at most %d items, got %d", MaxBatchSize, len(req.Instances))
	}

	ctx := r.Context()
	results := utils.RunInPool(func(instance map[string]json.RawMessage) (core.Prediction, error) {
		return s.predictInstance(ctx, instance, database.SourceBatch)
	}, req.Instances, s.batchWorkers)

	predictions := make([]api.BatchPrediction, len(results))
	for i, res := range results {
		if res.Error != nil {
			predictions[i] = api.BatchPrediction{Error: res.Error.Error()}
		} else {
			predictions[i] = api.BatchPrediction{PredictedClass: res.Result.Label}
		}
	}

	return api.BatchPredictResponse{Predictions: predictions}, nil
}

// predictInstance validates one decoded request object and runs it through the
// model. Missing or non-numeric fields are client errors, model failures are
// internal errors.
func (s *PredictionService) predictInstance(ctx context.Context, instance map[string]json.RawMessage, source string) (core.Prediction, error) {
	features, err := core.ParseFeatures(instance)
	if err != nil {
		return core.Prediction{}, CodedError(http.StatusBadRequest, err)
	}

	prediction, err := s.predictor.Predict(features)
	id := s.recordPrediction(ctx, features, prediction, err, source)
	if err != nil {
		slog.Error("prediction failed", "prediction_id", id, "error", err)
		return core.Prediction{}, CodedError(http.StatusInternalServerError, err)
	}

	s.publishPrediction(ctx, id, features, prediction, source)

	return prediction, nil
}

func (s *PredictionService) recordPrediction(ctx context.Context, features core.Features, prediction core.Prediction, predictErr error, source string) uuid.UUID {
	record := database.Prediction{
		Id:                 uuid.New(),
		Edad:               features.Edad,
		Estatura:           features.Estatura,
		Peso:               features.Peso,
		DosisQuimioterapia: features.DosisQuimioterapia,
		Source:             source,
		CreationTime:       time.Now().UTC(),
	}

	if predictErr != nil {
		record.Error = sql.NullString{String: predictErr.Error(), Valid: true}
	} else {
		record.PredictedClass = prediction.Label
		record.ClassIndex = sql.NullInt64{Int64: int64(prediction.Index), Valid: true}
		if scores, err := json.Marshal(prediction.Scores); err == nil {
			record.Scores = scores
		}
	}

	// history is best effort and never changes the response
	_ = database.SavePrediction(ctx, s.db, &record)

	return record.Id
}

func (s *PredictionService) publishPrediction(ctx context.Context, id uuid.UUID, features core.Features, prediction core.Prediction, source string) {
	payload := messaging.PredictionEventPayload{
		PredictionId:   id,
		PredictedClass: prediction.Label,
		ClassIndex:     prediction.Index,
		Features:       features.Vector(),
		Source:         source,
		Timestamp:      time.Now().UTC(),
	}

	if err := s.publisher.PublishPredictionEvent(ctx, payload); err != nil {
		slog.Error("error publishing prediction event", "prediction_id", id, "error", err)
	}
}

func (s *PredictionService) ListPredictions(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListPredictionsParams](r)
	if err != nil {
		return nil, err
	}

	if params.Limit < 0 || params.Offset < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit and offset must be non-negative")
	}

	predictions, err := database.ListPredictions(r.Context(), s.db, database.PredictionFilter{
		Limit:  params.Limit,
		Offset: params.Offset,
		Class:  params.Class,
	})
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving predictions")
	}

	return convertPredictions(predictions), nil
}

func (s *PredictionService) GetPrediction(r *http.Request) (any, error) {
	id, err := URLParamUUID(r, "prediction_id")
	if err != nil {
		return nil, err
	}

	prediction, err := database.GetPrediction(r.Context(), s.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "prediction not found")
		}
		slog.Error("error getting prediction", "prediction_id", id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving prediction record")
	}

	return convertPrediction(prediction), nil
}
