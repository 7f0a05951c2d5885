package report

import (
	"reflect"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func sampleResult() models.AnalysisResult {
	d := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	return models.AnalysisResult{
		Symbol: "AAPL",
		Info:   models.DefaultStockInfo("AAPL"),
		Indicators: models.IndicatorSet{
			RecentTrend:  0.0012345,
			Volatility:   0.0187654,
			CurrentPrice: 191.23456,
			SMA5:         190.1,
			SMA20:        185.7,
			RSI:          64.4449,
		},
		Signals: models.Signals{RSISignal: models.RSINeutral, Trend: models.TrendBullish},
		History: models.PriceSeries{Symbol: "AAPL", Points: []models.PricePoint{
			{Date: d.AddDate(0, 0, -1), Close: 190.005},
			{Date: d, Close: 191.23456},
		}},
		Forecast: models.ForecastPath{Engine: "heuristic", Points: []models.ForecastPoint{
			{Date: d.AddDate(0, 0, 3), Price: 192.3449, Upper80: 196.9951, Lower80: 187.6949},
			{Date: d.AddDate(0, 0, 4), Price: 193.0051, Upper80: 199.5, Lower80: 186.50001},
		}},
		Freshness:   models.NewFreshness(d, d.AddDate(0, 0, 2)),
		GeneratedAt: d,
	}
}

func TestAssemble(t *testing.T) {
	r := Assemble(sampleResult())
	if r.CurrentPrice != 191.23 || r.TargetPrice != 193.01 {
		t.Fatalf("unexpected prices %v %v", r.CurrentPrice, r.TargetPrice)
	}
	if r.RSI != 64.4 {
		t.Fatalf("unexpected rsi %v", r.RSI)
	}
	if r.Volatility != 1.9 {
		t.Fatalf("unexpected volatility %v", r.Volatility)
	}
	if r.PriceChangePercent != 0.9 {
		t.Fatalf("unexpected change %v", r.PriceChangePercent)
	}
	if r.Historical.Dates[1] != "2024-06-07" || r.Historical.Prices[0] != 190.01 {
		t.Fatalf("unexpected history %+v", r.Historical)
	}
	if len(r.Forecast.Dates) != 2 || r.Forecast.Dates[0] != "2024-06-10" {
		t.Fatalf("unexpected forecast dates %v", r.Forecast.Dates)
	}
	if r.Freshness.Status != "recent" || r.Freshness.DaysBehind != 2 {
		t.Fatalf("unexpected freshness %+v", r.Freshness)
	}
	if r.Name != "AAPL" || r.Sector != "Unknown" {
		t.Fatalf("unexpected metadata %+v", r)
	}
}

func TestRoundIdempotent(t *testing.T) {
	once := Assemble(sampleResult())
	twice := Round(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("rounding is not idempotent:\n%+v\n%+v", once, twice)
	}
}

func TestEmptyForecastTargetsCurrentPrice(t *testing.T) {
	res := sampleResult()
	res.Forecast.Points = nil
	r := Assemble(res)
	if r.TargetPrice != r.CurrentPrice || r.PriceChangePercent != 0 {
		t.Fatalf("unexpected target for empty path %+v", r)
	}
	if r.Forecast.Dates == nil || len(r.Forecast.Dates) != 0 {
		t.Fatalf("empty forecast must serialize as empty lists")
	}
}

func TestRoundTo(t *testing.T) {
	cases := []struct {
		in     float64
		places int32
		want   float64
	}{
		{2.675, 2, 2.68},
		{-1.25, 1, -1.3},
		{100, 2, 100},
		{0.04999, 1, 0},
	}
	for _, tc := range cases {
		if got := RoundTo(tc.in, tc.places); got != tc.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tc.in, tc.places, got, tc.want)
		}
	}
}
