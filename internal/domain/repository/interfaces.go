package repository

import (
	"context"

	"PriceCast/internal/domain/models"
)

// PriceSource fetches a daily close series, truncated to the caller's current date.
// Returns models.ErrDataUnavailable (wrapped) when the symbol has no data.
type PriceSource interface {
	Fetch(ctx context.Context, symbol string, period Period) (models.PriceSeries, error)
}

// InfoSource looks up company metadata. It never fails; missing data degrades to defaults.
type InfoSource interface {
	Lookup(ctx context.Context, symbol string) models.StockInfo
}

// SnapshotStore persists flat price snapshots per symbol.
type SnapshotStore interface {
	Save(ctx context.Context, series models.PriceSeries) error
	// Load returns models.ErrDataUnavailable (wrapped) when no snapshot exists.
	Load(ctx context.Context, symbol string) (models.PriceSeries, error)
	List(ctx context.Context) ([]string, error)
}

// EventPublisher ships analysis events to downstream consumers.
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, ev models.AnalysisEvent) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(engine, result string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
