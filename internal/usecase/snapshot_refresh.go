package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// SnapshotRefresher downloads the watchlist from the live source and stores flat snapshots.
type SnapshotRefresher struct {
	source      domrepo.PriceSource
	store       domrepo.SnapshotStore
	symbols     []string
	period      domrepo.Period
	concurrency int
	now         func() time.Time
	l           *applogger.Logger

	mu   sync.Mutex // one refresh at a time
	cron *cron.Cron
}

func NewSnapshotRefresher(source domrepo.PriceSource, store domrepo.SnapshotStore, symbols []string, period domrepo.Period, concurrency int, l *applogger.Logger) *SnapshotRefresher {
	if concurrency <= 0 {
		concurrency = 4
	}
	if l == nil {
		l = applogger.NewNop()
	}
	if !domrepo.IsValidPeriod(period) {
		period = domrepo.Period1y
	}
	return &SnapshotRefresher{
		source:      source,
		store:       store,
		symbols:     util.NormalizeSymbols(symbols),
		period:      period,
		concurrency: concurrency,
		now:         time.Now,
		l:           l.With("snapshots"),
	}
}

// RefreshAll refreshes every watchlist symbol. When the watchlist is empty it refreshes
// the symbols already present in the store.
func (r *SnapshotRefresher) RefreshAll(ctx context.Context) (models.RefreshReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbols := r.symbols
	if len(symbols) == 0 {
		stored, err := r.store.List(ctx)
		if err != nil {
			return models.RefreshReport{}, fmt.Errorf("list snapshots: %w", err)
		}
		symbols = stored
	}

	started := r.now()
	rows := make([]models.SymbolFreshness, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			rows[i] = r.refreshOne(gctx, sym)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return models.RefreshReport{}, err
	}

	rep := models.RefreshReport{
		StartedAt:  started,
		DurationMs: r.now().Sub(started).Milliseconds(),
		Successful: []string{},
		Failed:     []string{},
		Symbols:    rows,
	}
	for _, row := range rows {
		if row.Error != "" {
			rep.Failed = append(rep.Failed, row.Symbol)
			continue
		}
		rep.Successful = append(rep.Successful, row.Symbol)
		if row.DaysBehind > rep.MaxDaysBehind {
			rep.MaxDaysBehind = row.DaysBehind
		}
	}
	sort.Strings(rep.Successful)
	sort.Strings(rep.Failed)

	r.l.Info("snapshot refresh finished",
		applogger.Int("successful", len(rep.Successful)),
		applogger.Int("failed", len(rep.Failed)),
		applogger.Int("max_days_behind", rep.MaxDaysBehind),
	)
	if rep.MaxDaysBehind > 3 {
		r.l.Warn("some snapshots are outdated", applogger.Int("max_days_behind", rep.MaxDaysBehind))
	}
	return rep, nil
}

func (r *SnapshotRefresher) refreshOne(ctx context.Context, symbol string) models.SymbolFreshness {
	row := models.SymbolFreshness{Symbol: symbol}
	series, err := r.source.Fetch(ctx, symbol, r.period)
	if err == nil {
		err = r.store.Save(ctx, series)
	}
	if err != nil {
		r.l.Warn("snapshot refresh failed", applogger.Symbol(symbol), applogger.Error(err))
		row.Error = err.Error()
		row.Status = "error"
		return row
	}
	f := models.NewFreshness(series.Last().Date, r.now())
	row.LastDate = f.LastDate.Format(models.DateLayout)
	row.DaysBehind = f.DaysBehind
	row.Rows = series.Len()
	row.Status = string(f.Status)
	return row
}

// Start schedules RefreshAll on spec (standard 5-field cron). ctx bounds every scheduled run.
func (r *SnapshotRefresher) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := r.RefreshAll(ctx); err != nil {
			r.l.Error("scheduled snapshot refresh failed", applogger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register refresh schedule %q: %w", spec, err)
	}
	r.cron = c
	c.Start()
	r.l.Info("snapshot scheduler started", applogger.String("cron", spec), applogger.Strings("symbols", r.symbols))
	return nil
}

// Stop stops the schedule and waits for a running refresh to finish.
func (r *SnapshotRefresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.l.Info("snapshot scheduler stopped")
}
