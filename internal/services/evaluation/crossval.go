package evaluation

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/indicators"
	applogger "PriceCast/pkg/logger"
)

// DefaultMinTrain is the training window of every fold.
const DefaultMinTrain = 30

// Fold is one rolling-origin split expressed as series indices.
type Fold struct {
	Index    int
	Start    int // first training observation
	TrainEnd int // exclusive; first test observation
	End      int // exclusive
}

// Folds lays out rolling-origin splits ending at the last observation.
// Each test window has horizon observations; folds that cannot hold a training window are skipped.
func Folds(total, splits, horizon, minTrain int) []Fold {
	out := make([]Fold, 0, splits)
	for i := 0; i < splits; i++ {
		end := total - (splits-i-1)*horizon
		start := end - horizon - minTrain
		if start < 0 {
			start = 0
		}
		if start >= end-horizon {
			continue
		}
		out = append(out, Fold{Index: i + 1, Start: start, TrainEnd: end - horizon, End: end})
	}
	return out
}

// Result is the outcome of cross-validation.
type Result struct {
	CrossValidation models.CrossValidation
	Overall         models.ForecastMetrics
	Quality         models.Quality
}

// Evaluator back-tests a forecaster on historical data.
type Evaluator struct {
	engine     *indicators.Engine
	forecaster domsvc.Forecaster
	minTrain   int
	l          *applogger.Logger
}

type Option func(*Evaluator)

func WithMinTrain(n int) Option {
	return func(e *Evaluator) { e.minTrain = n }
}

func WithLogger(l *applogger.Logger) Option {
	return func(e *Evaluator) { e.l = l }
}

func NewEvaluator(engine *indicators.Engine, forecaster domsvc.Forecaster, opts ...Option) *Evaluator {
	e := &Evaluator{engine: engine, forecaster: forecaster, minTrain: DefaultMinTrain, l: applogger.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CrossValidate forecasts each fold's test window from its training window and scores it.
// Failing folds are logged and skipped; it errors only when no fold succeeds.
func (e *Evaluator) CrossValidate(ctx context.Context, series models.PriceSeries, splits, horizon int) (Result, error) {
	if splits <= 0 || horizon <= 0 {
		return Result{}, fmt.Errorf("splits and horizon must be positive, got %d and %d", splits, horizon)
	}
	folds := Folds(series.Len(), splits, horizon, e.minTrain)
	if len(folds) == 0 {
		return Result{}, fmt.Errorf("%w: %d observations cannot hold %d folds of %d",
			models.ErrInsufficientHistory, series.Len(), splits, horizon)
	}

	var (
		results            []models.SplitResult
		allActual, allPred []float64
		lastErr            error
	)
	for _, f := range folds {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		train := series.Slice(f.Start, f.TrainEnd)
		test := series.Slice(f.TrainEnd, f.End)

		m, actual, predicted, err := e.scoreFold(ctx, train, test)
		if err != nil {
			lastErr = err
			e.l.Warn("cross-validation fold failed",
				applogger.Symbol(series.Symbol),
				applogger.Int("split", f.Index),
				applogger.Error(err),
			)
			continue
		}
		allActual = append(allActual, actual...)
		allPred = append(allPred, predicted...)
		results = append(results, models.SplitResult{
			Split:     f.Index,
			TrainSize: train.Len(),
			TestSize:  test.Len(),
			TrainEnd:  train.Last().Date.Format(models.DateLayout),
			Metrics:   m,
		})
	}
	if len(results) == 0 {
		return Result{}, fmt.Errorf("all folds failed: %w", lastErr)
	}

	overall, err := Compute(allActual, allPred)
	if err != nil {
		return Result{}, err
	}
	return Result{
		CrossValidation: models.CrossValidation{Splits: results, Summary: summarize(results)},
		Overall:         overall,
		Quality:         Grade(overall),
	}, nil
}

func (e *Evaluator) scoreFold(ctx context.Context, train, test models.PriceSeries) (models.ForecastMetrics, []float64, []float64, error) {
	ind, err := e.engine.Compute(train)
	if err != nil {
		return models.ForecastMetrics{}, nil, nil, err
	}
	path, err := e.forecaster.Forecast(ctx, train, ind, test.Len())
	if err != nil {
		return models.ForecastMetrics{}, nil, nil, err
	}
	if path.Len() < test.Len() {
		return models.ForecastMetrics{}, nil, nil, errors.New("forecast shorter than test window")
	}
	actual := test.Closes()
	predicted := make([]float64, len(actual))
	for i := range actual {
		predicted[i] = path.Points[i].Price
	}
	m, err := Compute(actual, predicted)
	return m, actual, predicted, err
}

func summarize(results []models.SplitResult) map[string]models.MetricSummary {
	cols := map[string][]float64{}
	for _, r := range results {
		cols["mae"] = append(cols["mae"], r.Metrics.MAE)
		cols["rmse"] = append(cols["rmse"], r.Metrics.RMSE)
		cols["mape"] = append(cols["mape"], r.Metrics.MAPE)
		cols["directional_accuracy"] = append(cols["directional_accuracy"], r.Metrics.DirectionalAccuracy)
		cols["r2"] = append(cols["r2"], r.Metrics.R2)
	}
	out := make(map[string]models.MetricSummary, len(cols))
	for k, xs := range cols {
		mean, std := stat.PopMeanStdDev(xs, nil)
		out[k] = models.MetricSummary{Mean: mean, Std: std}
	}
	return out
}
