package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"PriceCast/internal/domain/models"
)

// ErrNoData is returned when no finite actual/predicted pairs remain.
var ErrNoData = errors.New("no valid data points for evaluation")

// Compute scores predicted against actual, pairwise. Pairs with a NaN on either side are dropped.
func Compute(actual, predicted []float64) (models.ForecastMetrics, error) {
	if len(actual) != len(predicted) {
		return models.ForecastMetrics{}, fmt.Errorf("length mismatch: %d actual vs %d predicted", len(actual), len(predicted))
	}
	a := make([]float64, 0, len(actual))
	p := make([]float64, 0, len(predicted))
	for i := range actual {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		a = append(a, actual[i])
		p = append(p, predicted[i])
	}
	if len(a) == 0 {
		return models.ForecastMetrics{}, ErrNoData
	}

	var absSum, sqSum, pctSum float64
	for i := range a {
		e := a[i] - p[i]
		absSum += math.Abs(e)
		sqSum += e * e
		pctSum += math.Abs(e / a[i])
	}
	n := float64(len(a))
	mae := absSum / n
	rmse := math.Sqrt(sqSum / n)
	meanActual := stat.Mean(a, nil)

	m := models.ForecastMetrics{
		MAE:                 mae,
		RMSE:                rmse,
		R2:                  rSquared(p, a),
		MAPE:                pctSum / n * 100,
		DirectionalAccuracy: directionalAccuracy(a, p),
		Bias:                stat.Mean(p, nil) - meanActual,
		NormalizedRMSE:      rmse / meanActual * 100,
		NormalizedMAE:       mae / meanActual * 100,
		DataPoints:          len(a),
	}
	return m, nil
}

// rSquared follows the convention of a constant target: 1 for a perfect fit, 0 otherwise.
func rSquared(estimates, values []float64) float64 {
	if len(values) < 2 || stat.Variance(values, nil) == 0 {
		for i := range values {
			if estimates[i] != values[i] {
				return 0
			}
		}
		return 1
	}
	return stat.RSquaredFrom(estimates, values, nil)
}

// directionalAccuracy is the percentage of consecutive moves whose sign agrees.
func directionalAccuracy(a, p []float64) float64 {
	if len(a) < 2 {
		return 0
	}
	hits := 0
	for i := 1; i < len(a); i++ {
		if (a[i]-a[i-1] > 0) == (p[i]-p[i-1] > 0) {
			hits++
		}
	}
	return float64(hits) / float64(len(a)-1) * 100
}

// Grade maps metrics onto a qualitative scale.
func Grade(m models.ForecastMetrics) models.Quality {
	switch {
	case m.MAPE < 5 && m.DirectionalAccuracy > 75 && m.R2 > 0.7:
		return models.QualityExcellent
	case m.MAPE < 10 && m.DirectionalAccuracy > 65 && m.R2 > 0.5:
		return models.QualityGood
	case m.MAPE < 20 && m.DirectionalAccuracy > 55:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}
