// internal/forecast/orchestrator.go
package forecast

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/predictor"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Horizon bounds for a forecast run.
const (
	MinHorizon = 1
	MaxHorizon = 12
)

// Config holds per-run orchestration knobs.
type Config struct {
	// WorkerCount bounds how many products are forecast concurrently.
	WorkerCount int
	// PredictTimeout bounds each predictor call; zero disables the bound.
	PredictTimeout time.Duration
}

// Result is one product's completed forecast.
type Result struct {
	Series domain.ProductSeries
	// Raw holds the clamped, unrounded horizon values.
	Raw []float64
	// Extended is the original history with Raw appended; trend
	// classification reads this, at full precision.
	Extended []float64
	// Final holds the rounded display values.
	Final []int
}

// Orchestrator runs the autoregressive multi-step forecast across products.
type Orchestrator struct {
	predictor predictor.Predictor
	cfg       Config
}

func NewOrchestrator(p predictor.Predictor, cfg Config) *Orchestrator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &Orchestrator{predictor: p, cfg: cfg}
}

// Run forecasts every series for the given horizon. Products whose predictor
// calls fail are logged and skipped; the run fails only when the horizon is
// out of range or every product was skipped. Result order matches the input
// order regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, series []domain.ProductSeries, horizon int) ([]Result, error) {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return nil, &domain.RangeError{Horizon: horizon, Min: MinHorizon, Max: MaxHorizon}
	}

	var (
		sem     = semaphore.NewWeighted(int64(o.cfg.WorkerCount))
		wg      sync.WaitGroup
		results = make([]*Result, len(series))
	)

	for i, s := range series {
		if len(s.Rows) == 0 {
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		go func(i int, s domain.ProductSeries) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := o.forecastProduct(ctx, s, horizon)
			if err != nil {
				log.Warn().Err(err).Str("product", s.ProductID).Msg("prediction failed, skipping product")
				return
			}
			results[i] = res
		}(i, s)
	}

	wg.Wait()

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}

	if len(out) == 0 {
		return nil, domain.ErrNoValidProducts
	}
	return out, nil
}

// forecastProduct runs the autoregressive loop for one product: each step's
// clamped but unrounded value is fed back into the history before the next
// call. Rounding happens only on the Final display values.
func (o *Orchestrator) forecastProduct(ctx context.Context, s domain.ProductSeries, horizon int) (*Result, error) {
	history := s.SalesHistory()
	raw := make([]float64, 0, horizon)

	for step := 0; step < horizon; step++ {
		v, err := o.predict(ctx, s.ProductID, history)
		if err != nil {
			return nil, err
		}

		v = math.Max(0, v)
		raw = append(raw, v)
		history = append(history, v)
	}

	final := make([]int, len(raw))
	for i, v := range raw {
		final[i] = int(math.Round(v))
	}

	return &Result{Series: s, Raw: raw, Extended: history, Final: final}, nil
}

func (o *Orchestrator) predict(ctx context.Context, productID string, history []float64) (float64, error) {
	if o.cfg.PredictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.PredictTimeout)
		defer cancel()
	}
	return o.predictor.Predict(ctx, productID, history)
}
