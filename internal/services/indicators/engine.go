package indicators

import (
	"fmt"
	"math"

	"PriceCast/internal/domain/models"
)

// DefaultMinObservations is the longest indicator window (SMA20).
const DefaultMinObservations = LongSMAWindow

// Engine turns a price series into an IndicatorSet.
type Engine struct {
	minObs int
}

type Option func(*Engine)

// WithMinObservations sets the rejection threshold. Values below 2 are raised to 2.
func WithMinObservations(n int) Option {
	return func(e *Engine) {
		e.minObs = n
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{minObs: DefaultMinObservations}
	for _, opt := range opts {
		opt(e)
	}
	if e.minObs < 2 {
		e.minObs = 2
	}
	return e
}

// MinObservations returns the effective rejection threshold.
func (e *Engine) MinObservations() int { return e.minObs }

// Compute derives the indicator snapshot for series.
// Series shorter than the threshold are rejected with ErrInsufficientHistory.
// Moving averages whose window exceeds the history fall back to the mean of all closes.
func (e *Engine) Compute(series models.PriceSeries) (models.IndicatorSet, error) {
	if series.Len() < e.minObs {
		return models.IndicatorSet{}, fmt.Errorf("%w: %s has %d observations, need %d",
			models.ErrInsufficientHistory, series.Symbol, series.Len(), e.minObs)
	}

	closes := series.Closes()
	rets := Returns(closes)[1:]
	if !finite(rets...) {
		return models.IndicatorSet{}, fmt.Errorf("%w: non-finite returns for %s", models.ErrForecastUnavailable, series.Symbol)
	}

	set := models.IndicatorSet{
		RecentTrend:  trailingMean(rets, TrendWindow),
		Volatility:   sampleStdDev(rets),
		CurrentPrice: closes[len(closes)-1],
		SMA5:         latestSMA(closes, ShortSMAWindow),
		SMA20:        latestSMA(closes, LongSMAWindow),
		RSI:          last(RSI(closes, RSIWindow)),
	}
	if math.IsNaN(set.RSI) {
		set.RSI = NeutralRSI
	}

	if !finite(set.RecentTrend, set.Volatility, set.CurrentPrice, set.SMA5, set.SMA20, set.RSI) {
		return models.IndicatorSet{}, fmt.Errorf("%w: non-finite indicators for %s", models.ErrForecastUnavailable, series.Symbol)
	}
	return set, nil
}

func latestSMA(closes []float64, w int) float64 {
	if len(closes) < w {
		return trailingMean(closes, len(closes))
	}
	return last(SMA(closes, w))
}
