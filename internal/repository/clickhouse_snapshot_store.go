package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgch "PriceCast/pkg/clickhouse"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

const snapshotTable = "price_snapshots"

// SnapshotSchema returns the idempotent DDL for the snapshot table.
// ReplacingMergeTree keeps the newest fetch of each (symbol, date).
func SnapshotSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            symbol     LowCardinality(String),
            date       Date,
            close      Float64,
            fetched_at DateTime64(3)
        )
        ENGINE = ReplacingMergeTree(fetched_at)
        ORDER BY (symbol, date)`, database, snapshotTable),
	}
}

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
	l     *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{
		db:    ch.DB(),
		table: ch.Database() + "." + snapshotTable,
		now:   time.Now,
		l:     applogger.NewNop(),
	}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

// Save inserts the series in multi-row chunks.
func (s *CHSnapshotStore) Save(ctx context.Context, series models.PriceSeries) error {
	if series.Empty() {
		return fmt.Errorf("save snapshot %s: empty series", series.Symbol)
	}
	symbol := util.NormalizeSymbol(series.Symbol)
	fetched := s.now().UTC()

	const chunkSize = 2000
	for start := 0; start < series.Len(); start += chunkSize {
		end := start + chunkSize
		if end > series.Len() {
			end = series.Len()
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, p := range series.Points[start:end] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, symbol, p.Date, p.Close, fetched)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, date, close, fetched_at) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse snapshot insert error",
				applogger.Symbol(symbol),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert snapshot %s: %w", symbol, err)
		}
	}
	return nil
}

// Load reads the latest close per date.
func (s *CHSnapshotStore) Load(ctx context.Context, symbol string) (models.PriceSeries, error) {
	symbol = util.NormalizeSymbol(symbol)
	q := fmt.Sprintf(`
        SELECT date, argMax(close, fetched_at)
        FROM %s
        WHERE symbol = ?
        GROUP BY date
        ORDER BY date ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("query snapshot %s: %w", symbol, err)
	}
	defer rows.Close()

	pts := make([]models.PricePoint, 0, 256)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return models.PriceSeries{}, fmt.Errorf("scan snapshot %s: %w", symbol, err)
		}
		pts = append(pts, p)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("rows: %w", err)
	}

	series := models.NewPriceSeries(symbol, pts, s.now())
	if series.Empty() {
		return models.PriceSeries{}, fmt.Errorf("%w: no snapshot for %s", models.ErrDataUnavailable, symbol)
	}
	return series, nil
}

func (s *CHSnapshotStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", s.table))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)
