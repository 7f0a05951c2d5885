package report

import (
	"math"

	"github.com/shopspring/decimal"

	"PriceCast/internal/domain/models"
)

const (
	PriceDecimals   int32 = 2
	PercentDecimals int32 = 1
	RSIDecimals     int32 = 1
)

// RoundTo rounds half away from zero. Non-finite values pass through unchanged.
func RoundTo(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Assemble converts an analysis result into its rounded presentation form.
// With an empty forecast the target equals the current price.
func Assemble(res models.AnalysisResult) models.AnalysisReport {
	current := res.Indicators.CurrentPrice
	target, ok := res.Forecast.Target()
	if !ok {
		target = current
	}
	change := 0.0
	if current != 0 {
		change = (target - current) / current * 100
	}

	hist := models.HistoricalView{
		Dates:  make([]string, 0, res.History.Len()),
		Prices: make([]float64, 0, res.History.Len()),
	}
	for _, p := range res.History.Points {
		hist.Dates = append(hist.Dates, p.Date.Format(models.DateLayout))
		hist.Prices = append(hist.Prices, p.Close)
	}

	n := res.Forecast.Len()
	fc := models.ForecastView{
		Dates:     make([]string, 0, n),
		Prices:    make([]float64, 0, n),
		UpperBand: make([]float64, 0, n),
		LowerBand: make([]float64, 0, n),
	}
	for _, p := range res.Forecast.Points {
		fc.Dates = append(fc.Dates, p.Date.Format(models.DateLayout))
		fc.Prices = append(fc.Prices, p.Price)
		fc.UpperBand = append(fc.UpperBand, p.Upper80)
		fc.LowerBand = append(fc.LowerBand, p.Lower80)
	}

	r := models.AnalysisReport{
		Symbol:             res.Symbol,
		Name:               res.Info.Name,
		Sector:             res.Info.Sector,
		Industry:           res.Info.Industry,
		Currency:           res.Info.Currency,
		CurrentPrice:       current,
		TargetPrice:        target,
		PriceChangePercent: change,
		RSI:                res.Indicators.RSI,
		RSISignal:          string(res.Signals.RSISignal),
		Trend:              string(res.Signals.Trend),
		Volatility:         res.Indicators.Volatility * 100,
		Historical:         hist,
		Forecast:           fc,
		Engine:             res.Forecast.Engine,
		Freshness: models.FreshnessReport{
			LastDate:   res.Freshness.LastDate.Format(models.DateLayout),
			DaysBehind: res.Freshness.DaysBehind,
			Status:     string(res.Freshness.Status),
		},
		GeneratedAt: res.GeneratedAt,
	}
	return Round(r)
}

// Round applies presentation precision to every numeric field. It is idempotent.
func Round(r models.AnalysisReport) models.AnalysisReport {
	r.CurrentPrice = RoundTo(r.CurrentPrice, PriceDecimals)
	r.TargetPrice = RoundTo(r.TargetPrice, PriceDecimals)
	r.PriceChangePercent = RoundTo(r.PriceChangePercent, PercentDecimals)
	r.RSI = RoundTo(r.RSI, RSIDecimals)
	r.Volatility = RoundTo(r.Volatility, PercentDecimals)
	r.Historical.Prices = roundAll(r.Historical.Prices, PriceDecimals)
	r.Forecast.Prices = roundAll(r.Forecast.Prices, PriceDecimals)
	r.Forecast.UpperBand = roundAll(r.Forecast.UpperBand, PriceDecimals)
	r.Forecast.LowerBand = roundAll(r.Forecast.LowerBand, PriceDecimals)
	return r
}

func roundAll(xs []float64, places int32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = RoundTo(x, places)
	}
	return out
}
