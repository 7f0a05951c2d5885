package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

const snapshotSuffix = "_data.csv"

// CSVSnapshotStore keeps one "<SYMBOL>_data.csv" file (Date,Close) per symbol.
type CSVSnapshotStore struct {
	dir string
	now func() time.Time
	l   *applogger.Logger
}

func NewCSVSnapshotStore(dir string) *CSVSnapshotStore {
	return &CSVSnapshotStore{dir: dir, now: time.Now, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *CSVSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CSVSnapshotStore) path(symbol string) string {
	return filepath.Join(s.dir, util.NormalizeSymbol(symbol)+snapshotSuffix)
}

// Save merges series into the symbol's file by date, the incoming close winning, and rewrites it
// atomically. Older rows survive a shorter fetch, as in the ClickHouse store.
func (s *CSVSnapshotStore) Save(ctx context.Context, series models.PriceSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if series.Empty() {
		return fmt.Errorf("save snapshot %s: empty series", series.Symbol)
	}
	series = s.merge(ctx, series)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	_ = w.Write([]string{"Date", "Close"})
	for _, p := range series.Points {
		_ = w.Write([]string{p.Date.Format(util.DateLayout), strconv.FormatFloat(p.Close, 'f', -1, 64)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot %s: %w", series.Symbol, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot %s: %w", series.Symbol, err)
	}
	if err := os.Rename(tmp.Name(), s.path(series.Symbol)); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", series.Symbol, err)
	}
	return nil
}

func (s *CSVSnapshotStore) merge(ctx context.Context, series models.PriceSeries) models.PriceSeries {
	stored, err := s.Load(ctx, series.Symbol)
	if err != nil {
		if !errors.Is(err, models.ErrDataUnavailable) {
			s.l.Warn("existing snapshot unreadable, overwriting", applogger.Symbol(series.Symbol), applogger.Error(err))
		}
		return series
	}
	pts := make([]models.PricePoint, 0, stored.Len()+series.Len())
	pts = append(pts, stored.Points...)
	pts = append(pts, series.Points...)
	return models.NewPriceSeries(series.Symbol, pts, s.now())
}

// Load parses the symbol's file. Extra columns are ignored, so full OHLCV exports load as well.
func (s *CSVSnapshotStore) Load(ctx context.Context, symbol string) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	f, err := os.Open(s.path(symbol))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.PriceSeries{}, fmt.Errorf("%w: no snapshot for %s", models.ErrDataUnavailable, symbol)
		}
		return models.PriceSeries{}, fmt.Errorf("open snapshot %s: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: snapshot %s has no header", models.ErrDataUnavailable, symbol)
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Date", "date":
			dateCol = i
		case "Close", "close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return models.PriceSeries{}, fmt.Errorf("snapshot %s: missing Date/Close columns", symbol)
	}

	var pts []models.PricePoint
	skipped := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("read snapshot %s: %w", symbol, err)
		}
		if len(rec) <= dateCol || len(rec) <= closeCol {
			skipped++
			continue
		}
		d, derr := util.ParseDate(rec[dateCol])
		c, cerr := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if derr != nil || cerr != nil {
			skipped++
			continue
		}
		pts = append(pts, models.PricePoint{Date: d, Close: c})
	}
	if skipped > 0 {
		s.l.Warn("snapshot rows skipped", applogger.Symbol(symbol), applogger.Int("rows", skipped))
	}

	series := models.NewPriceSeries(util.NormalizeSymbol(symbol), pts, s.now())
	if series.Empty() {
		return models.PriceSeries{}, fmt.Errorf("%w: snapshot %s is empty", models.ErrDataUnavailable, symbol)
	}
	return series, nil
}

// List returns the symbols that have a snapshot, sorted.
func (s *CSVSnapshotStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, snapshotSuffix))
	}
	sort.Strings(out)
	return out, nil
}

var _ domrepo.SnapshotStore = (*CSVSnapshotStore)(nil)
