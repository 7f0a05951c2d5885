package models

import "time"

// AnalysisReport is the rounded, presentation-ready form of an AnalysisResult.
type AnalysisReport struct {
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	Sector             string          `json:"sector"`
	Industry           string          `json:"industry,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	CurrentPrice       float64         `json:"current_price"`
	TargetPrice        float64         `json:"target_price"`
	PriceChangePercent float64         `json:"price_change_percent"`
	RSI                float64         `json:"rsi"`
	RSISignal          string          `json:"rsi_signal"`
	Trend              string          `json:"trend"`
	Volatility         float64         `json:"volatility"` // percent
	Historical         HistoricalView  `json:"historical"`
	Forecast           ForecastView    `json:"forecast"`
	Engine             string          `json:"engine"`
	Freshness          FreshnessReport `json:"freshness"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

type HistoricalView struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

type ForecastView struct {
	Dates     []string  `json:"dates"`
	Prices    []float64 `json:"prices"`
	UpperBand []float64 `json:"upper_band"`
	LowerBand []float64 `json:"lower_band"`
}

type FreshnessReport struct {
	LastDate   string `json:"last_date"`
	DaysBehind int    `json:"days_behind"`
	Status     string `json:"status"`
}

// AnalysisEvent is published after every successful analysis.
type AnalysisEvent struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Engine      string         `json:"engine"`
	GeneratedAt time.Time      `json:"generated_at"`
	Result      AnalysisReport `json:"result"`
}

// BatchItem is one symbol's outcome within a batch analysis.
type BatchItem struct {
	Symbol string          `json:"symbol"`
	Result *AnalysisReport `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type BatchReport struct {
	Horizon    int         `json:"horizon"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Items      []BatchItem `json:"items"`
}
