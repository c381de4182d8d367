// internal/predictor/predictor.go
package predictor

import "context"

// Predictor produces the next-step demand estimate for a product given its
// ordered sales history. Implementations may fail per call; callers decide
// how to recover.
type Predictor interface {
	Predict(ctx context.Context, productID string, history []float64) (float64, error)
}
