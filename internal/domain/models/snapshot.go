package models

import "time"

// SymbolFreshness is one row of a snapshot refresh report.
type SymbolFreshness struct {
	Symbol     string `json:"symbol"`
	LastDate   string `json:"last_date,omitempty"`
	DaysBehind int    `json:"days_behind"`
	Rows       int    `json:"rows"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// RefreshReport summarizes one snapshot refresh run over the watchlist.
type RefreshReport struct {
	StartedAt     time.Time         `json:"started_at"`
	DurationMs    int64             `json:"duration_ms"`
	Successful    []string          `json:"successful"`
	Failed        []string          `json:"failed"`
	Symbols       []SymbolFreshness `json:"symbols"`
	MaxDaysBehind int               `json:"max_days_behind"`
}
