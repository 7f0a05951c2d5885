package models

import "time"

// IndicatorSet is the per-request snapshot of technical indicators.
type IndicatorSet struct {
	RecentTrend  float64 // mean of the last returns
	Volatility   float64 // sample std-dev of all returns in the window
	CurrentPrice float64
	SMA5         float64
	SMA20        float64
	RSI          float64 // 0..100, 50 when undefined
}

type RSISignal string

const (
	RSIOverbought RSISignal = "Overbought"
	RSIOversold   RSISignal = "Oversold"
	RSINeutral    RSISignal = "Neutral"
)

type TrendDirection string

const (
	TrendBullish TrendDirection = "Bullish"
	TrendBearish TrendDirection = "Bearish"
)

// Signals is the fused view of the indicators that drives the forecaster.
type Signals struct {
	AdjustedTrend   float64
	TrendAdjustment float64
	MASignal        float64
	RSISignal       RSISignal
	Trend           TrendDirection
}

// ForecastPoint is one business day of a projected path.
type ForecastPoint struct {
	Date    time.Time
	Price   float64
	Upper80 float64
	Lower80 float64
}

// ForecastPath is an ordered projection produced by one engine.
type ForecastPath struct {
	Engine string
	Points []ForecastPoint
}

func (p ForecastPath) Len() int { return len(p.Points) }

// Target returns the final projected price, or false for an empty path.
func (p ForecastPath) Target() (float64, bool) {
	if len(p.Points) == 0 {
		return 0, false
	}
	return p.Points[len(p.Points)-1].Price, true
}

// StockInfo is best-effort company metadata.
type StockInfo struct {
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	MarketCap float64 `json:"market_cap"`
	Currency  string  `json:"currency"`
}

const unknownInfo = "Unknown"

// DefaultStockInfo is returned whenever metadata lookup fails.
func DefaultStockInfo(symbol string) StockInfo {
	return StockInfo{
		Name:     symbol,
		Sector:   unknownInfo,
		Industry: unknownInfo,
		Currency: "USD",
	}
}

// FillDefaults replaces missing fields with the defaults for symbol.
func (i StockInfo) FillDefaults(symbol string) StockInfo {
	d := DefaultStockInfo(symbol)
	if i.Name == "" {
		i.Name = d.Name
	}
	if i.Sector == "" {
		i.Sector = d.Sector
	}
	if i.Industry == "" {
		i.Industry = d.Industry
	}
	if i.Currency == "" {
		i.Currency = d.Currency
	}
	return i
}

type FreshnessStatus string

const (
	FreshnessCurrent  FreshnessStatus = "current"
	FreshnessFresh    FreshnessStatus = "fresh"
	FreshnessRecent   FreshnessStatus = "recent"
	FreshnessOutdated FreshnessStatus = "outdated"
)

// Freshness describes how far the latest observation lags behind today.
type Freshness struct {
	LastDate   time.Time
	DaysBehind int
	Status     FreshnessStatus
}

// NewFreshness classifies the gap between last and today in calendar days.
func NewFreshness(last, today time.Time) Freshness {
	days := int(Day(today).Sub(Day(last)).Hours() / 24)
	if days < 0 {
		days = 0
	}
	var status FreshnessStatus
	switch {
	case days == 0:
		status = FreshnessCurrent
	case days == 1:
		status = FreshnessFresh
	case days <= 3:
		status = FreshnessRecent
	default:
		status = FreshnessOutdated
	}
	return Freshness{LastDate: Day(last), DaysBehind: days, Status: status}
}

// AnalysisResult is the unrounded outcome of one analysis request.
type AnalysisResult struct {
	Symbol      string
	Info        StockInfo
	Indicators  IndicatorSet
	Signals     Signals
	History     PriceSeries
	Forecast    ForecastPath
	Freshness   Freshness
	GeneratedAt time.Time
}
