// internal/predictor/smoothing.go
package predictor

import "context"

// SmoothingPredictor is a local baseline used when no model endpoint is
// configured: a weighted-recent mean plus a simple first-third/last-third
// trend slope. It keeps the pipeline runnable without the external model.
type SmoothingPredictor struct{}

func NewSmoothingPredictor() *SmoothingPredictor {
	return &SmoothingPredictor{}
}

func (p *SmoothingPredictor) Predict(_ context.Context, _ string, history []float64) (float64, error) {
	n := len(history)
	if n == 0 {
		return 0, nil
	}
	if n == 1 {
		return history[0], nil
	}

	// Weight the most recent quarter of the series at double weight.
	recent := n / 4
	if recent < 1 {
		recent = 1
	}
	var sum, weight float64
	for i, v := range history {
		w := 1.0
		if i >= n-recent {
			w = 2.0
		}
		sum += v * w
		weight += w
	}
	base := sum / weight

	return base + trendSlope(history), nil
}

// trendSlope compares the first and last thirds of the series and returns the
// average per-step change between them.
func trendSlope(history []float64) float64 {
	n := len(history)
	third := n / 3
	if third < 1 {
		third = 1
	}

	var earlySum, lateSum float64
	for i := 0; i < third; i++ {
		earlySum += history[i]
	}
	for i := n - third; i < n; i++ {
		lateSum += history[i]
	}

	span := n - third
	if span < 1 {
		span = 1
	}
	return (lateSum/float64(third) - earlySum/float64(third)) / float64(span)
}
