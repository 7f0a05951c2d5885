package forecast

import (
	"context"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	applogger "PriceCast/pkg/logger"
)

// Fallback tries the primary engine and falls back to the secondary on any error.
// The returned path carries the name of the engine that produced it.
type Fallback struct {
	primary   domsvc.Forecaster
	secondary domsvc.Forecaster
	l         *applogger.Logger
}

func NewFallback(primary, secondary domsvc.Forecaster, l *applogger.Logger) *Fallback {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, l: l}
}

func (f *Fallback) Name() string { return f.primary.Name() }

func (f *Fallback) Forecast(ctx context.Context, series models.PriceSeries, ind models.IndicatorSet, horizon int) (models.ForecastPath, error) {
	path, err := f.primary.Forecast(ctx, series, ind, horizon)
	if err == nil {
		return path, nil
	}
	if ctx.Err() != nil {
		return models.ForecastPath{}, err
	}
	f.l.Warn("primary forecast engine failed, falling back",
		applogger.Symbol(series.Symbol),
		applogger.String("primary", f.primary.Name()),
		applogger.String("fallback", f.secondary.Name()),
		applogger.Error(err),
	)
	return f.secondary.Forecast(ctx, series, ind, horizon)
}

var _ domsvc.Forecaster = (*Fallback)(nil)
