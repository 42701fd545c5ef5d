package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stage-backend/pkg/api"
	"stage-backend/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *client.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return client.New(server.URL)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestPredict(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"edad":45,"estatura":160,"peso":65,"dosis_quimioterapia":3}`, string(body))

		writeJSON(w, http.StatusOK, api.PredictResponse{PredictedClass: "IIIB"})
	})

	label, err := c.Predict(context.Background(), api.PredictRequest{Edad: 45, Estatura: 160, Peso: 65, DosisQuimioterapia: 3})
	require.NoError(t, err)
	assert.Equal(t, "IIIB", label)
}

func TestPredictError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "missing required fields: edad"})
	})

	_, err := c.Predict(context.Background(), api.PredictRequest{})
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "missing required fields: edad", apiErr.Message)
}

func TestPredictBatch(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict/batch", r.URL.Path)

		var req struct {
			Instances []api.PredictRequest `json:"instances"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Instances, 2)

		writeJSON(w, http.StatusOK, api.BatchPredictResponse{Predictions: []api.BatchPrediction{
			{PredictedClass: "IA1"}, {Error: "boom"},
		}})
	})

	preds, err := c.PredictBatch(context.Background(), []api.PredictRequest{{Edad: 1}, {Edad: 2}})
	require.NoError(t, err)
	assert.Equal(t, []api.BatchPrediction{{PredictedClass: "IA1"}, {Error: "boom"}}, preds)
}

func TestHealthAndListPredictions(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
		case "/predictions":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "IB", r.URL.Query().Get("class"))
			assert.False(t, r.URL.Query().Has("offset"))
			writeJSON(w, http.StatusOK, []api.Prediction{{PredictedClass: "IB", Source: "single"}})
		default:
			http.NotFound(w, r)
		}
	})

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	preds, err := c.ListPredictions(context.Background(), api.ListPredictionsParams{Limit: 5, Class: "IB"})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "IB", preds[0].PredictedClass)

	_, err = c.Model(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
