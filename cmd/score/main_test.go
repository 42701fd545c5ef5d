package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	backend "stage-backend/internal/api"
	"stage-backend/pkg/api"
	"stage-backend/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	input := "id,peso,edad,estatura,dosis_quimioterapia\n" +
		"a,70,45,170,2.5\n" +
		"b, 60 ,30,160,0\n"

	header, rows, err := readRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "peso", "edad", "estatura", "dosis_quimioterapia"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, api.PredictRequest{Edad: 45, Estatura: 170, Peso: 70, DosisQuimioterapia: 2.5}, rows[0].request)
	assert.Equal(t, api.PredictRequest{Edad: 30, Estatura: 160, Peso: 60, DosisQuimioterapia: 0}, rows[1].request)
}

func TestReadRowsMissingColumns(t *testing.T) {
	_, _, err := readRows(strings.NewReader("edad,peso\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estatura, dosis_quimioterapia")
}

func TestReadRowsInvalidValue(t *testing.T) {
	_, _, err := readRows(strings.NewReader("edad,estatura,peso,dosis_quimioterapia\n1,2,abc,4\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "peso")
}

func TestScoreBatches(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Instances []api.PredictRequest `json:"instances"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batchSizes = append(batchSizes, len(req.Instances))

		res := api.BatchPredictResponse{}
		for _, inst := range req.Instances {
			if inst.Edad < 0 {
				res.Predictions = append(res.Predictions, api.BatchPrediction{Error: "bad edad"})
			} else {
				res.Predictions = append(res.Predictions, api.BatchPrediction{PredictedClass: "IB"})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(res))
	}))
	defer server.Close()

	rows := []row{
		{request: api.PredictRequest{Edad: 1}},
		{request: api.PredictRequest{Edad: -1}},
		{request: api.PredictRequest{Edad: 2}},
	}

	labels, err := score(context.Background(), client.New(server.URL), rows, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, batchSizes)
	assert.Equal(t, []string{"IB", "error: bad edad", "IB"}, labels)
}

func TestBatchSizeLimits(t *testing.T) {
	size, err := batchSize(10)
	require.NoError(t, err)
	assert.Equal(t, 10, size)

	size, err = batchSize(backend.MaxBatchSize + 244)
	require.NoError(t, err)
	assert.Equal(t, backend.MaxBatchSize, size)

	_, err = batchSize(0)
	require.Error(t, err)
}
