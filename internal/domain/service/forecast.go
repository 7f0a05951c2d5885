package service

import (
	"context"

	"PriceCast/internal/domain/models"
)

// Forecaster projects a price path over the next horizon business days.
// Implementations must return models.ErrForecastUnavailable (wrapped) instead of a partial path.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, series models.PriceSeries, ind models.IndicatorSet, horizon int) (models.ForecastPath, error)
}
