package evaluation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/services/forecast"
	"PriceCast/internal/services/indicators"
)

func TestComputePerfectForecast(t *testing.T) {
	a := []float64{100, 101, 102, 101}
	m, err := Compute(a, a)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.MAE != 0 || m.RMSE != 0 || m.MAPE != 0 || m.Bias != 0 {
		t.Fatalf("expected zero errors, got %+v", m)
	}
	if m.R2 != 1 || m.DirectionalAccuracy != 100 || m.DataPoints != 4 {
		t.Fatalf("unexpected scores %+v", m)
	}
	if Grade(m) != models.QualityExcellent {
		t.Fatalf("perfect forecast must be excellent, got %s", Grade(m))
	}
}

func TestComputeKnownValues(t *testing.T) {
	a := []float64{100, 110, 120}
	p := []float64{110, 100, 130}
	m, err := Compute(a, p)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.MAE != 10 || m.RMSE != 10 {
		t.Fatalf("unexpected mae/rmse %+v", m)
	}
	wantMAPE := (0.1 + 10.0/110 + 10.0/120) / 3 * 100
	if math.Abs(m.MAPE-wantMAPE) > 1e-9 {
		t.Fatalf("mape %v want %v", m.MAPE, wantMAPE)
	}
	// actual moves up, up; predicted moves down, up
	if m.DirectionalAccuracy != 50 {
		t.Fatalf("directional accuracy %v", m.DirectionalAccuracy)
	}
	if math.Abs(m.Bias-10.0/3) > 1e-9 {
		t.Fatalf("bias %v", m.Bias)
	}
	// ss_res = 300, ss_tot = 200
	if math.Abs(m.R2-(-0.5)) > 1e-9 {
		t.Fatalf("r2 %v", m.R2)
	}
	if Grade(m) != models.QualityPoor {
		t.Fatalf("expected poor, got %s", Grade(m))
	}
}

func TestComputeDropsNaN(t *testing.T) {
	m, err := Compute([]float64{1, math.NaN(), 3}, []float64{1, 2, math.NaN()})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if m.DataPoints != 1 || m.DirectionalAccuracy != 0 {
		t.Fatalf("unexpected %+v", m)
	}
	if _, err := Compute([]float64{math.NaN()}, []float64{1}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFolds(t *testing.T) {
	folds := Folds(100, 5, 7, 30)
	if len(folds) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(folds))
	}
	last := folds[4]
	if last.End != 100 || last.TrainEnd != 93 || last.Start != 63 {
		t.Fatalf("unexpected last fold %+v", last)
	}
	first := folds[0]
	if first.End != 72 || first.TrainEnd != 65 || first.Start != 35 {
		t.Fatalf("unexpected first fold %+v", first)
	}

	short := Folds(20, 5, 7, 30)
	for _, f := range short {
		if f.Start >= f.TrainEnd {
			t.Fatalf("empty training window %+v", f)
		}
	}
	if len(short) != 2 || short[1].End != 20 || short[0].End != 13 {
		t.Fatalf("expected only the last two folds to fit, got %+v", short)
	}
}

func TestCrossValidate(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, 120)
	p := 100.0
	for i := range pts {
		if i%3 == 0 {
			p *= 0.995
		} else {
			p *= 1.006
		}
		pts[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: p}
	}
	series := models.PriceSeries{Symbol: "TEST", Points: pts}

	ev := NewEvaluator(indicators.New(), forecast.NewHeuristic())
	res, err := ev.CrossValidate(context.Background(), series, 5, 7)
	if err != nil {
		t.Fatalf("cross validate: %v", err)
	}
	if len(res.CrossValidation.Splits) != 5 {
		t.Fatalf("expected 5 splits, got %d", len(res.CrossValidation.Splits))
	}
	for _, s := range res.CrossValidation.Splits {
		if s.TrainSize != 30 || s.TestSize != 7 {
			t.Fatalf("unexpected split sizes %+v", s)
		}
	}
	if res.Overall.DataPoints != 35 {
		t.Fatalf("expected pooled 35 points, got %d", res.Overall.DataPoints)
	}
	if _, ok := res.CrossValidation.Summary["mape"]; !ok {
		t.Fatalf("summary missing mape")
	}
	if res.Quality == "" {
		t.Fatalf("quality not graded")
	}
}

func TestCrossValidateTooShort(t *testing.T) {
	series := models.PriceSeries{Symbol: "X", Points: []models.PricePoint{{Date: time.Now(), Close: 1}}}
	_, err := NewEvaluator(indicators.New(), forecast.NewHeuristic()).CrossValidate(context.Background(), series, 3, 7)
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}
