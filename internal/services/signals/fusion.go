package signals

import (
	"math"

	"PriceCast/internal/domain/models"
)

const (
	// OverboughtLevel and OversoldLevel bound the neutral RSI band.
	OverboughtLevel = 70.0
	OversoldLevel   = 30.0
	// RSIAdjustmentWeight scales |trend| into a counter-trend push when RSI leaves the neutral band.
	RSIAdjustmentWeight = 0.3
	// CrossoverWeight scales |trend| into a push in the direction of the SMA5/SMA20 crossover.
	CrossoverWeight = 0.1
)

// ClassifyRSI labels an RSI value.
func ClassifyRSI(rsi float64) models.RSISignal {
	switch {
	case rsi > OverboughtLevel:
		return models.RSIOverbought
	case rsi < OversoldLevel:
		return models.RSIOversold
	default:
		return models.RSINeutral
	}
}

// ClassifyTrend labels the moving-average crossover. Equal averages count as bearish.
func ClassifyTrend(sma5, sma20 float64) models.TrendDirection {
	if sma5 > sma20 {
		return models.TrendBullish
	}
	return models.TrendBearish
}

// Fuse combines RSI regime, MA crossover and recent trend into one drift estimate.
func Fuse(ind models.IndicatorSet) models.Signals {
	magnitude := math.Abs(ind.RecentTrend)

	rsiSignal := ClassifyRSI(ind.RSI)
	var adjustment float64
	switch rsiSignal {
	case models.RSIOverbought:
		adjustment = -RSIAdjustmentWeight * magnitude
	case models.RSIOversold:
		adjustment = RSIAdjustmentWeight * magnitude
	}

	trend := ClassifyTrend(ind.SMA5, ind.SMA20)
	maSignal := -CrossoverWeight * magnitude
	if trend == models.TrendBullish {
		maSignal = CrossoverWeight * magnitude
	}

	return models.Signals{
		AdjustedTrend:   ind.RecentTrend + adjustment + maSignal,
		TrendAdjustment: adjustment,
		MASignal:        maSignal,
		RSISignal:       rsiSignal,
		Trend:           trend,
	}
}
