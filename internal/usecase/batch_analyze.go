package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/util"
)

// BatchAnalyzeUseCase analyzes several symbols concurrently. One symbol failing does not fail the batch.
type BatchAnalyzeUseCase struct {
	analyze     *AnalyzeUseCase
	concurrency int
}

func NewBatchAnalyzeUseCase(analyze *AnalyzeUseCase, concurrency int) *BatchAnalyzeUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &BatchAnalyzeUseCase{analyze: analyze, concurrency: concurrency}
}

type BatchParams struct {
	Symbols []string
	Period  domrepo.Period
	Horizon int
}

// AnalyzeBatch keeps the order of the (deduplicated) input symbols in the report.
func (uc *BatchAnalyzeUseCase) AnalyzeBatch(ctx context.Context, p BatchParams) (models.BatchReport, error) {
	symbols := util.NormalizeSymbols(p.Symbols)
	if len(symbols) == 0 {
		return models.BatchReport{}, fmt.Errorf("%w: at least one symbol required", ErrInvalidInput)
	}
	if len(symbols) > models.MaxBatchSymbols {
		return models.BatchReport{}, fmt.Errorf("%w: at most %d symbols per batch, got %d", ErrInvalidInput, models.MaxBatchSymbols, len(symbols))
	}

	items := make([]models.BatchItem, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			items[i].Symbol = sym
			r, err := uc.analyze.Report(gctx, AnalyzeParams{Symbol: sym, Period: p.Period, Horizon: p.Horizon})
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = &r
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return models.BatchReport{}, err
	}

	out := models.BatchReport{Horizon: p.Horizon, Items: items}
	for _, it := range items {
		if it.Result != nil {
			out.Successful++
		} else {
			out.Failed++
		}
	}
	return out, nil
}
