package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// PredictRequest is the typed form of a prediction body. The server decodes
// bodies loosely so that missing keys can be reported, clients send this.
type PredictRequest struct {
	Edad               float64 `json:"edad"`
	Estatura           float64 `json:"estatura"`
	Peso               float64 `json:"peso"`
	DosisQuimioterapia float64 `json:"dosis_quimioterapia"`
}

type PredictResponse struct {
	PredictedClass string `json:"predicted_class"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type BatchPredictRequest struct {
	Instances []map[string]json.RawMessage `json:"instances"`
}

type BatchPrediction struct {
	PredictedClass string `json:"predicted_class,omitempty"`
	Error          string `json:"error,omitempty"`
}

type BatchPredictResponse struct {
	Predictions []BatchPrediction `json:"predictions"`
}

type ListPredictionsParams struct {
	Limit  int    `schema:"limit"`
	Offset int    `schema:"offset"`
	Class  string `schema:"class"`
}

type Prediction struct {
	Id                 uuid.UUID `json:"id"`
	Edad               float32   `json:"edad"`
	Estatura           float32   `json:"estatura"`
	Peso               float32   `json:"peso"`
	DosisQuimioterapia float32   `json:"dosis_quimioterapia"`
	PredictedClass     string    `json:"predicted_class,omitempty"`
	ClassIndex         *int      `json:"class_index,omitempty"`
	Scores             []float32 `json:"scores,omitempty"`
	Error              string    `json:"error,omitempty"`
	Source             string    `json:"source"`
	CreationTime       time.Time `json:"creation_time"`
}

type ModelInfo struct {
	ModelFile  string   `json:"model_file"`
	InputName  string   `json:"input_name"`
	OutputName string   `json:"output_name"`
	InputShape []int64  `json:"input_shape"`
	Features   []string `json:"features"`
	Classes    []string `json:"classes"`
}
