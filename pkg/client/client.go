package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stage-backend/pkg/api"

	"github.com/go-resty/resty/v2"
)

// APIError is returned for any non 2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stage api returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	client *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(60*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, query map[string]string) error {
	var apiErr api.ErrorResponse
	req := c.client.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}

	if !res.IsSuccess() {
		msg := apiErr.Error
		if msg == "" {
			msg = res.String()
		}
		return &APIError{StatusCode: res.StatusCode(), Message: msg}
	}

	return nil
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var res api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &res, nil)
	return res, err
}

func (c *Client) Predict(ctx context.Context, req api.PredictRequest) (string, error) {
	var res api.PredictResponse
	if err := c.do(ctx, http.MethodPost, "/predict", req, &res, nil); err != nil {
		return "", err
	}
	return res.PredictedClass, nil
}

func (c *Client) PredictBatch(ctx context.Context, reqs []api.PredictRequest) ([]api.BatchPrediction, error) {
	var res api.BatchPredictResponse
	body := map[string]any{"instances": reqs}
	if err := c.do(ctx, http.MethodPost, "/predict/batch", body, &res, nil); err != nil {
		return nil, err
	}
	if len(res.Predictions) != len(reqs) {
		return nil, fmt.Errorf("expected %d predictions, got %d", len(reqs), len(res.Predictions))
	}
	return res.Predictions, nil
}

func (c *Client) ListPredictions(ctx context.Context, params api.ListPredictionsParams) ([]api.Prediction, error) {
	query := map[string]string{}
	if params.Limit > 0 {
		query["limit"] = strconv.Itoa(params.Limit)
	}
	if params.Offset > 0 {
		query["offset"] = strconv.Itoa(params.Offset)
	}
	if params.Class != "" {
		query["class"] = params.Class
	}

	var res []api.Prediction
	err := c.do(ctx, http.MethodGet, "/predictions", nil, &res, query)
	return res, err
}

func (c *Client) Model(ctx context.Context) (api.ModelInfo, error) {
	var res api.ModelInfo
	err := c.do(ctx, http.MethodGet, "/model", nil, &res, nil)
	return res, err
}
