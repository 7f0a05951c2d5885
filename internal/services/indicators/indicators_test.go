package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func series(closes ...float64) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return models.PriceSeries{Symbol: "TEST", Points: pts}
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rising(n int) []float64 {
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		out[i] = p
		p *= 1.01
	}
	return out
}

// zigzag alternates up and down moves of varying size around a slow drift.
func zigzag(n int) []float64 {
	out := make([]float64, n)
	p := 50.0
	for i := range out {
		step := float64(i%7) * 0.4
		if i%2 == 0 {
			p += step
		} else {
			p -= step * 0.8
		}
		out[i] = p
	}
	return out
}

func TestReturns(t *testing.T) {
	r := Returns([]float64{100, 110, 99})
	if !math.IsNaN(r[0]) {
		t.Fatalf("expected NaN at position 0, got %v", r[0])
	}
	if math.Abs(r[1]-0.1) > 1e-12 || math.Abs(r[2]+0.1) > 1e-12 {
		t.Fatalf("unexpected returns %v", r)
	}
}

func TestSMA(t *testing.T) {
	s := SMA([]float64{1, 2, 3, 4, 5, 6}, 5)
	for i := 0; i < 4; i++ {
		if !math.IsNaN(s[i]) {
			t.Fatalf("expected NaN at %d, got %v", i, s[i])
		}
	}
	if s[4] != 3 || s[5] != 4 {
		t.Fatalf("unexpected sma %v", s)
	}
}

func TestRSIBoundedOnComputedPositions(t *testing.T) {
	cases := map[string][]float64{
		"rising":  rising(40),
		"zigzag":  zigzag(60),
		"falling": {20, 19, 18.5, 18, 17, 16.5, 16, 15, 14.9, 14, 13, 12.5, 12, 11, 10, 9.5, 9},
	}
	for name, closes := range cases {
		rsi := RSI(closes, RSIWindow)
		computed := 0
		for i, v := range rsi {
			if math.IsNaN(v) {
				if i >= RSIWindow {
					t.Fatalf("%s: unexpected undefined RSI at %d", name, i)
				}
				continue
			}
			computed++
			if v < 0 || v > 100 {
				t.Fatalf("%s: rsi out of range at %d: %v", name, i, v)
			}
		}
		if computed == 0 {
			t.Fatalf("%s: no computed RSI positions", name)
		}
	}
}

func TestRSISaturation(t *testing.T) {
	up := RSI(rising(20), RSIWindow)
	if got := up[len(up)-1]; got != 100 {
		t.Fatalf("expected RSI 100 without losses, got %v", got)
	}
	down := RSI([]float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15}, RSIWindow)
	if got := down[len(down)-1]; got != 0 {
		t.Fatalf("expected RSI 0 without gains, got %v", got)
	}
	fl := RSI(flat(20, 100), RSIWindow)
	if !math.IsNaN(fl[len(fl)-1]) {
		t.Fatalf("expected undefined RSI for flat series, got %v", fl[len(fl)-1])
	}
}

func TestComputeFlatSeries(t *testing.T) {
	set, err := New().Compute(series(flat(60, 100)...))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if set.Volatility != 0 || set.RecentTrend != 0 {
		t.Fatalf("expected zero trend and volatility, got %+v", set)
	}
	if set.RSI != NeutralRSI {
		t.Fatalf("expected neutral RSI, got %v", set.RSI)
	}
	if set.CurrentPrice != 100 || set.SMA5 != 100 || set.SMA20 != 100 {
		t.Fatalf("unexpected levels %+v", set)
	}
}

func TestComputeRisingSeries(t *testing.T) {
	set, err := New().Compute(series(rising(30)...))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !(set.SMA5 > set.SMA20) {
		t.Fatalf("expected sma5 > sma20, got %+v", set)
	}
	if set.RSI <= 70 {
		t.Fatalf("expected overbought RSI, got %v", set.RSI)
	}
	if math.Abs(set.RecentTrend-0.01) > 1e-9 {
		t.Fatalf("expected trend 0.01, got %v", set.RecentTrend)
	}
}

func TestComputeRejectsShortSeries(t *testing.T) {
	_, err := New().Compute(series(100))
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	_, err = New().Compute(series(rising(19)...))
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory below default threshold, got %v", err)
	}
}

func TestMinObservationsClamp(t *testing.T) {
	e := New(WithMinObservations(0))
	if e.MinObservations() != 2 {
		t.Fatalf("expected clamp to 2, got %d", e.MinObservations())
	}
	if _, err := e.Compute(series(100)); !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("single observation must be rejected, got %v", err)
	}
	set, err := e.Compute(series(100, 101))
	if err != nil {
		t.Fatalf("two observations: %v", err)
	}
	if set.Volatility != 0 {
		t.Fatalf("single return has zero dispersion, got %v", set.Volatility)
	}
	if set.SMA20 != 100.5 {
		t.Fatalf("short history sma falls back to mean, got %v", set.SMA20)
	}
}

func TestSampleStdDev(t *testing.T) {
	got := sampleStdDev([]float64{1, 2, 3, 4})
	want := math.Sqrt(5.0 / 3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected n-1 std-dev %v, got %v", want, got)
	}
}
