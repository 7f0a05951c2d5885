package forecast

import (
	"context"
	"fmt"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/signals"
)

const EngineHeuristic = "heuristic"

// Heuristic is the seeded technical-indicator random walk.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Name() string { return EngineHeuristic }

// Forecast seeds a private generator from the series' last date, so equal inputs give equal paths.
func (h *Heuristic) Forecast(ctx context.Context, series models.PriceSeries, ind models.IndicatorSet, horizon int) (models.ForecastPath, error) {
	if err := ctx.Err(); err != nil {
		return models.ForecastPath{}, err
	}
	if series.Empty() {
		return models.ForecastPath{}, fmt.Errorf("%w: empty series", models.ErrInsufficientHistory)
	}

	sig := signals.Fuse(ind)
	last := series.Last().Date
	pts, err := Generate(Params{
		Start:      last,
		Price:      ind.CurrentPrice,
		Drift:      sig.AdjustedTrend,
		Volatility: ind.Volatility,
		Anchor:     ind.SMA20,
		Horizon:    horizon,
	}, NewSource(Seed(last)))
	if err != nil {
		return models.ForecastPath{}, fmt.Errorf("heuristic %s: %w", series.Symbol, err)
	}
	return models.ForecastPath{Engine: EngineHeuristic, Points: pts}, nil
}

var _ domsvc.Forecaster = (*Heuristic)(nil)
