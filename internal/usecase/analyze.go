package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/indicators"
	"PriceCast/internal/services/report"
	"PriceCast/internal/services/signals"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// ErrInvalidInput marks caller mistakes that binding-level validation cannot catch.
var ErrInvalidInput = errors.New("invalid input")

// AnalyzeUseCase runs fetch, indicators, forecast and assembly for one symbol.
type AnalyzeUseCase struct {
	prices     domrepo.PriceSource
	info       domrepo.InfoSource
	engine     *indicators.Engine
	forecaster domsvc.Forecaster
	events     domrepo.EventPublisher
	metrics    domrepo.Metrics

	window        int
	historyTail   int
	defaultPeriod domrepo.Period
	timeout       time.Duration
	now           func() time.Time
	l             *applogger.Logger
}

type AnalyzeOption func(*AnalyzeUseCase)

// WithWindow sets how many recent observations feed the indicators.
func WithWindow(n int) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.window = n }
}

// WithHistoryTail sets how many observations are echoed back as history.
func WithHistoryTail(n int) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.historyTail = n }
}

func WithDefaultPeriod(p domrepo.Period) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.defaultPeriod = p }
}

func WithTimeout(d time.Duration) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.timeout = d }
}

func WithClock(now func() time.Time) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.now = now }
}

func WithEvents(p domrepo.EventPublisher) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.events = p }
}

func WithMetrics(m domrepo.Metrics) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.metrics = m }
}

func WithLogger(l *applogger.Logger) AnalyzeOption {
	return func(uc *AnalyzeUseCase) { uc.l = l }
}

func NewAnalyzeUseCase(prices domrepo.PriceSource, info domrepo.InfoSource, engine *indicators.Engine, forecaster domsvc.Forecaster, opts ...AnalyzeOption) *AnalyzeUseCase {
	uc := &AnalyzeUseCase{
		prices:        prices,
		info:          info,
		engine:        engine,
		forecaster:    forecaster,
		window:        30,
		historyTail:   30,
		defaultPeriod: domrepo.DefaultPeriod(),
		timeout:       20 * time.Second,
		now:           time.Now,
		l:             applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type AnalyzeParams struct {
	Symbol  string
	Period  domrepo.Period
	Horizon int
}

// Analyze returns the unrounded result. It performs no publishing.
func (uc *AnalyzeUseCase) Analyze(ctx context.Context, p AnalyzeParams) (models.AnalysisResult, error) {
	symbol := util.NormalizeSymbol(p.Symbol)
	if symbol == "" {
		return models.AnalysisResult{}, fmt.Errorf("%w: symbol required", ErrInvalidInput)
	}
	if p.Horizon < 0 {
		return models.AnalysisResult{}, fmt.Errorf("%w: horizon must be non-negative, got %d", ErrInvalidInput, p.Horizon)
	}
	period := p.Period
	if !domrepo.IsValidPeriod(period) {
		period = uc.defaultPeriod
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	series, err := uc.prices.Fetch(ctx, symbol, period)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	window := series.Tail(uc.window)
	ind, err := uc.engine.Compute(window)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("indicators %s: %w", symbol, err)
	}
	path, err := uc.forecaster.Forecast(ctx, series, ind, p.Horizon)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	info := uc.info.Lookup(ctx, symbol)

	now := uc.now()
	return models.AnalysisResult{
		Symbol:      symbol,
		Info:        info,
		Indicators:  ind,
		Signals:     signals.Fuse(ind),
		History:     series.Tail(uc.historyTail),
		Forecast:    path,
		Freshness:   models.NewFreshness(series.Last().Date, now),
		GeneratedAt: now.UTC(),
	}, nil
}

// Report analyzes, rounds the result for presentation and publishes an event (best effort).
func (uc *AnalyzeUseCase) Report(ctx context.Context, p AnalyzeParams) (models.AnalysisReport, error) {
	start := time.Now()
	res, err := uc.Analyze(ctx, p)
	uc.record(res.Forecast.Engine, start, err)
	if err != nil {
		uc.l.Warn("analysis failed",
			applogger.Symbol(p.Symbol),
			applogger.Int("horizon", p.Horizon),
			applogger.Error(err),
		)
		return models.AnalysisReport{}, err
	}
	r := report.Assemble(res)
	if uc.metrics != nil {
		uc.metrics.RecordLastPrice(r.Symbol, res.Indicators.CurrentPrice)
	}
	uc.publish(ctx, r)
	return r, nil
}

func (uc *AnalyzeUseCase) publish(ctx context.Context, r models.AnalysisReport) {
	if uc.events == nil {
		return
	}
	ev := models.AnalysisEvent{
		ID:          uuid.NewString(),
		Symbol:      r.Symbol,
		Engine:      r.Engine,
		GeneratedAt: r.GeneratedAt,
		Result:      r,
	}
	if err := uc.events.PublishAnalysis(ctx, ev); err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("publish")
		}
		uc.l.Warn("publish analysis event failed", applogger.Symbol(r.Symbol), applogger.Error(err))
	}
}

func (uc *AnalyzeUseCase) record(engine string, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}
	if engine == "" {
		engine = uc.forecaster.Name()
	}
	result := "ok"
	if err != nil {
		result = ErrorKind(err)
		uc.metrics.RecordError(result)
	}
	uc.metrics.RecordAnalysis(engine, result)
	uc.metrics.RecordLatency("analyze", time.Since(start).Seconds())
}

// ErrorKind maps an analysis error onto a stable label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, models.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, models.ErrForecastUnavailable):
		return "forecast_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
