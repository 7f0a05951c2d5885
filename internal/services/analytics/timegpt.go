package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/forecast"
	"PriceCast/pkg/config"
	"PriceCast/pkg/util"
)

const (
	EngineTimeGPT = "timegpt"

	timeGPTPath      = "/timegpt"
	timeGPTFrequency = "B"
)

// TimeGPT forecasts with the hosted Nixtla model.
type TimeGPT struct {
	base            *HTTPServiceBase
	maxObservations int
	attempts        int
}

type timeGPTRequest struct {
	Y             map[string]float64 `json:"y"`
	FH            int                `json:"fh"`
	Freq          string             `json:"freq"`
	Level         []int              `json:"level"`
	CleanExFirst  bool               `json:"clean_ex_first"`
	FinetuneSteps int                `json:"finetune_steps"`
}

type timeGPTResponse struct {
	Message string `json:"message"`
	Data    struct {
		Timestamp []string  `json:"timestamp"`
		Value     []float64 `json:"value"`
		Lo80      []float64 `json:"lo-80"`
		Hi80      []float64 `json:"hi-80"`
	} `json:"data"`
}

// NewTimeGPT builds the hosted client from config.
func NewTimeGPT(cfg *config.Config) *TimeGPT {
	return &TimeGPT{
		base: NewHTTPServiceBase(cfg.TimeGPT.BaseURL, cfg.TimeGPT.Timeout,
			WithBearerToken(cfg.TimeGPT.APIKey),
			WithMaxBackoff(cfg.TimeGPT.Timeout),
		),
		maxObservations: cfg.TimeGPT.MaxObservations,
		attempts:        cfg.TimeGPT.Attempts,
	}
}

func (g *TimeGPT) Name() string { return EngineTimeGPT }

// Forecast posts the most recent observations and reads back the point forecast with its 80% band.
func (g *TimeGPT) Forecast(ctx context.Context, series models.PriceSeries, _ models.IndicatorSet, horizon int) (models.ForecastPath, error) {
	if horizon <= 0 {
		return models.ForecastPath{Engine: EngineTimeGPT, Points: []models.ForecastPoint{}}, nil
	}
	if series.Empty() {
		return models.ForecastPath{}, fmt.Errorf("%w: empty series", models.ErrInsufficientHistory)
	}
	recent := series
	if g.maxObservations > 0 {
		recent = series.Tail(g.maxObservations)
	}

	req := timeGPTRequest{
		Y:            make(map[string]float64, recent.Len()),
		FH:           horizon,
		Freq:         timeGPTFrequency,
		Level:        []int{80, 90},
		CleanExFirst: true,
	}
	for _, p := range recent.Points {
		req.Y[p.Date.Format(models.DateLayout)] = p.Close
	}

	var resp timeGPTResponse
	if err := g.base.PostJSONWithRetry(ctx, timeGPTPath, req, &resp, g.attempts); err != nil {
		return models.ForecastPath{}, fmt.Errorf("%w: timegpt %s: %v", models.ErrForecastUnavailable, series.Symbol, err)
	}
	pts, err := toForecastPoints(resp, series.Last().Date, horizon)
	if err != nil {
		return models.ForecastPath{}, fmt.Errorf("%w: timegpt %s: %v", models.ErrForecastUnavailable, series.Symbol, err)
	}
	return models.ForecastPath{Engine: EngineTimeGPT, Points: pts}, nil
}

// toForecastPoints validates the response. Bands are reordered so lower <= price <= upper.
// Missing timestamps are filled with consecutive business days after last.
// responseDay returns the date of step i: the upstream timestamp moved off weekends, or the next
// business day after prev when the timestamp is missing, unparsable or not after prev.
func responseDay(stamps []string, i int, prev time.Time) time.Time {
	next := forecast.NextBusinessDay(prev)
	if i >= len(stamps) {
		return next
	}
	ts, err := util.ParseDate(stamps[i])
	if err != nil {
		return next
	}
	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		ts = forecast.NextBusinessDay(ts)
	}
	if !ts.After(prev) {
		return next
	}
	return ts
}

func toForecastPoints(resp timeGPTResponse, last time.Time, horizon int) ([]models.ForecastPoint, error) {
	d := resp.Data
	if len(d.Value) < horizon {
		return nil, fmt.Errorf("expected %d values, got %d", horizon, len(d.Value))
	}
	pts := make([]models.ForecastPoint, horizon)
	day := last
	for i := 0; i < horizon; i++ {
		day = responseDay(d.Timestamp, i, day)
		price := d.Value[i]
		lo, hi := price, price
		if i < len(d.Lo80) {
			lo = d.Lo80[i]
		}
		if i < len(d.Hi80) {
			hi = d.Hi80[i]
		}
		if !finite(price, lo, hi) || price <= 0 {
			return nil, fmt.Errorf("invalid value at step %d", i+1)
		}
		pts[i] = models.ForecastPoint{
			Date:    day,
			Price:   price,
			Upper80: math.Max(price, math.Max(lo, hi)),
			Lower80: math.Min(price, math.Min(lo, hi)),
		}
	}
	return pts, nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

var _ domsvc.Forecaster = (*TimeGPT)(nil)
