package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/evaluation"
	"PriceCast/pkg/util"
)

// EvaluateUseCase back-tests the configured forecaster on a symbol's history.
type EvaluateUseCase struct {
	prices     domrepo.PriceSource
	evaluator  *evaluation.Evaluator
	forecaster domsvc.Forecaster
	metrics    domrepo.Metrics
	timeout    time.Duration
}

func NewEvaluateUseCase(prices domrepo.PriceSource, evaluator *evaluation.Evaluator, forecaster domsvc.Forecaster, metrics domrepo.Metrics, timeout time.Duration) *EvaluateUseCase {
	return &EvaluateUseCase{prices: prices, evaluator: evaluator, forecaster: forecaster, metrics: metrics, timeout: timeout}
}

type EvaluateParams struct {
	Symbol  string
	Period  domrepo.Period
	Splits  int
	Horizon int
}

func (uc *EvaluateUseCase) Evaluate(ctx context.Context, p EvaluateParams) (models.EvaluationReport, error) {
	symbol := util.NormalizeSymbol(p.Symbol)
	if symbol == "" {
		return models.EvaluationReport{}, fmt.Errorf("%w: symbol required", ErrInvalidInput)
	}
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	start := time.Now()

	period := p.Period
	if !domrepo.IsValidPeriod(period) {
		period = domrepo.Period1y
	}
	series, err := uc.prices.Fetch(ctx, symbol, period)
	if err != nil {
		return models.EvaluationReport{}, err
	}
	res, err := uc.evaluator.CrossValidate(ctx, series, p.Splits, p.Horizon)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
		if err != nil {
			uc.metrics.RecordError(ErrorKind(err))
		}
	}
	if err != nil {
		return models.EvaluationReport{}, fmt.Errorf("evaluate %s: %w", symbol, err)
	}
	return models.EvaluationReport{
		Symbol:          symbol,
		Engine:          uc.forecaster.Name(),
		Horizon:         p.Horizon,
		Observations:    series.Len(),
		RequestedSplits: p.Splits,
		CrossValidation: res.CrossValidation,
		Overall:         res.Overall,
		Quality:         res.Quality,
	}, nil
}
