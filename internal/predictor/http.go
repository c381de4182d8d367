// internal/predictor/http.go
package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPPredictor calls a remote model-serving endpoint. The model itself is a
// black box; this client only speaks its predict contract.
type HTTPPredictor struct {
	client *resty.Client
}

type predictRequest struct {
	Product string    `json:"product"`
	History []float64 `json:"history"`
}

type predictResponse struct {
	Forecast float64 `json:"forecast"`
}

// NewHTTPPredictor builds a predictor client for the given base URL. The
// timeout bounds each predict call; a timed-out call is reported as a failure
// for that product rather than blocking the batch.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &HTTPPredictor{client: client}
}

func (p *HTTPPredictor) Predict(ctx context.Context, productID string, history []float64) (float64, error) {
	var out predictResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(predictRequest{Product: productID, History: history}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return 0, fmt.Errorf("predictor call failed for %s: %w", productID, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("predictor returned %s for %s", resp.Status(), productID)
	}

	return out.Forecast, nil
}
