package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/service/cache"
)

func sampleSeries(symbol string) models.PriceSeries {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	return models.PriceSeries{Symbol: symbol, Points: []models.PricePoint{
		{Date: d, Close: 100.5},
		{Date: d.AddDate(0, 0, 1), Close: 101.25},
		{Date: d.AddDate(0, 0, 2), Close: 99.75},
	}}
}

func TestCSVSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSnapshotStore(dir)
	ctx := context.Background()

	if err := s.Save(ctx, sampleSeries("AAPL")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "AAPL_data.csv")); err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}
	got, err := s.Load(ctx, "aapl")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := sampleSeries("AAPL").Points
	if got.Symbol != "AAPL" || got.Len() != len(want) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	for i, p := range got.Points {
		if !p.Date.Equal(want[i].Date) || p.Close != want[i].Close {
			t.Fatalf("point %d: got %+v want %+v", i, p, want[i])
		}
	}

	_ = s.Save(ctx, sampleSeries("MSFT"))
	syms, err := s.List(ctx)
	if err != nil || !reflect.DeepEqual(syms, []string{"AAPL", "MSFT"}) {
		t.Fatalf("unexpected list %v %v", syms, err)
	}
}

func TestCSVSnapshotLoadsExternalExport(t *testing.T) {
	dir := t.TempDir()
	body := "Date,Open,High,Low,Close,Volume\n" +
		"2024-06-04 00:00:00-04:00,1,1,1,101.5,10\n" +
		"2024-06-03 00:00:00-04:00,1,1,1,100.5,10\n" +
		"garbage,1,1,1,x,10\n" +
		"2999-01-01,1,1,1,500,10\n"
	if err := os.WriteFile(filepath.Join(dir, "SPY_data.csv"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewCSVSnapshotStore(dir).Load(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// sorted, garbage and future rows dropped
	if got.Len() != 2 || got.Points[0].Close != 100.5 || got.Last().Close != 101.5 {
		t.Fatalf("unexpected series %+v", got.Points)
	}
}

func TestCSVSnapshotMissing(t *testing.T) {
	s := NewCSVSnapshotStore(filepath.Join(t.TempDir(), "nope"))
	if _, err := s.Load(context.Background(), "X"); !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if syms, err := s.List(context.Background()); err != nil || len(syms) != 0 {
		t.Fatalf("missing dir must list empty, got %v %v", syms, err)
	}
}

type fakeSource struct {
	series models.PriceSeries
	err    error
	calls  int
}

func (f *fakeSource) Fetch(_ context.Context, symbol string, _ domrepo.Period) (models.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return models.PriceSeries{}, f.err
	}
	s := f.series
	s.Symbol = symbol
	return s, nil
}

func TestCachingPriceSourceCachesAndSaves(t *testing.T) {
	live := &fakeSource{series: sampleSeries("")}
	store := NewCSVSnapshotStore(t.TempDir())
	src := NewCachingPriceSource(live, cache.NewTTLCache(), store, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := src.Fetch(ctx, "AAPL", domrepo.Period6mo)
		if err != nil || s.Len() != 3 {
			t.Fatalf("fetch %d: %v %+v", i, err, s)
		}
	}
	if live.calls != 1 {
		t.Fatalf("expected one live call, got %d", live.calls)
	}
	if _, err := store.Load(ctx, "AAPL"); err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}
}

func TestCachingPriceSourceFallsBackToSnapshot(t *testing.T) {
	store := NewCSVSnapshotStore(t.TempDir())
	ctx := context.Background()
	_ = store.Save(ctx, sampleSeries("AAPL"))

	live := &fakeSource{err: errors.New("connection refused")}
	src := NewCachingPriceSource(live, nil, store, time.Minute, nil)
	s, err := src.Fetch(ctx, "AAPL", domrepo.Period6mo)
	if err != nil || s.Len() != 3 {
		t.Fatalf("expected snapshot fallback, got %v %+v", err, s)
	}

	if _, err := src.Fetch(ctx, "MSFT", domrepo.Period6mo); err == nil || err.Error() != "connection refused" {
		t.Fatalf("expected live error without snapshot, got %v", err)
	}
}

func TestCSVSnapshotSaveMergesByDate(t *testing.T) {
	store := NewCSVSnapshotStore(t.TempDir())
	ctx := context.Background()
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	long := models.PriceSeries{Symbol: "AAPL"}
	for i := 0; i < 250; i++ {
		long.Points = append(long.Points, models.PricePoint{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)})
	}
	if err := store.Save(ctx, long); err != nil {
		t.Fatalf("save: %v", err)
	}

	// a short-period fetch overlapping the last 21 days with revised closes plus one new day
	recent := models.PriceSeries{}
	for i := 230; i < 251; i++ {
		recent.Points = append(recent.Points, models.PricePoint{Date: start.AddDate(0, 0, i), Close: 500})
	}
	live := &fakeSource{series: recent}
	src := NewCachingPriceSource(live, nil, store, time.Minute, nil)
	if s, err := src.Fetch(ctx, "AAPL", domrepo.Period1mo); err != nil || s.Len() != 21 {
		t.Fatalf("fetch: %v %d", err, s.Len())
	}

	got, err := store.Load(ctx, "AAPL")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 251 {
		t.Fatalf("expected 251 merged rows, got %d", got.Len())
	}
	if got.Points[0].Close != 100 || got.Points[229].Close != 329 {
		t.Fatalf("older rows changed: %+v %+v", got.Points[0], got.Points[229])
	}
	if got.Points[230].Close != 500 || got.Last().Close != 500 {
		t.Fatalf("incoming closes must win: %+v %+v", got.Points[230], got.Last())
	}
}

type fakeInfo struct {
	info  models.StockInfo
	calls int
}

func (f *fakeInfo) Lookup(_ context.Context, symbol string) models.StockInfo {
	f.calls++
	if f.info.Name == "" {
		return models.DefaultStockInfo(symbol)
	}
	return f.info
}

func TestCachingInfoSource(t *testing.T) {
	ctx := context.Background()
	live := &fakeInfo{info: models.StockInfo{Name: "Apple", Sector: "Tech", Industry: "HW", Currency: "USD"}}
	src := NewCachingInfoSource(live, cache.NewTTLCache(), time.Hour, nil)
	_ = src.Lookup(ctx, "AAPL")
	if got := src.Lookup(ctx, "AAPL"); got.Name != "Apple" || live.calls != 1 {
		t.Fatalf("expected cached info, got %+v after %d calls", got, live.calls)
	}

	degraded := &fakeInfo{}
	src = NewCachingInfoSource(degraded, cache.NewTTLCache(), time.Hour, nil)
	_ = src.Lookup(ctx, "XYZ")
	_ = src.Lookup(ctx, "XYZ")
	if degraded.calls != 2 {
		t.Fatalf("defaults must not be cached, got %d calls", degraded.calls)
	}
}

func TestSnapshotSchemaUsesDatabase(t *testing.T) {
	stmts := SnapshotSchema("pc")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if want := "CREATE DATABASE IF NOT EXISTS pc"; stmts[0] != want {
		t.Fatalf("got %q want %q", stmts[0], want)
	}
}
