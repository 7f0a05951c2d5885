package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/service/cache"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// CachingPriceSource serves series from cache, then the live source, then the stored snapshot.
// Successful live fetches are cached and saved as snapshots (best effort).
type CachingPriceSource struct {
	live      domrepo.PriceSource
	cache     cache.BytesCache
	snapshots domrepo.SnapshotStore
	ttl       time.Duration
	l         *applogger.Logger
}

type cachedSeries struct {
	Symbol string              `json:"symbol"`
	Points []models.PricePoint `json:"points"`
}

// NewCachingPriceSource wraps live. cache and snapshots may be nil.
func NewCachingPriceSource(live domrepo.PriceSource, c cache.BytesCache, snapshots domrepo.SnapshotStore, ttl time.Duration, l *applogger.Logger) *CachingPriceSource {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CachingPriceSource{live: live, cache: c, snapshots: snapshots, ttl: ttl, l: l}
}

func seriesKey(symbol string, period domrepo.Period) string {
	return fmt.Sprintf("series:%s:%s", util.NormalizeSymbol(symbol), period)
}

func (s *CachingPriceSource) Fetch(ctx context.Context, symbol string, period domrepo.Period) (models.PriceSeries, error) {
	key := seriesKey(symbol, period)
	if s.cache != nil {
		var cs cachedSeries
		ok, err := cache.GetJSON(ctx, s.cache, key, &cs)
		if err != nil {
			s.l.Warn("series cache read failed", applogger.String("key", key), applogger.Error(err))
		}
		if ok && len(cs.Points) > 0 {
			return models.PriceSeries{Symbol: cs.Symbol, Points: cs.Points}, nil
		}
	}

	series, err := s.live.Fetch(ctx, symbol, period)
	if err != nil {
		if ctx.Err() != nil || s.snapshots == nil {
			return models.PriceSeries{}, err
		}
		stored, serr := s.snapshots.Load(ctx, symbol)
		if serr != nil {
			if !errors.Is(serr, models.ErrDataUnavailable) {
				s.l.Warn("snapshot load failed", applogger.Symbol(symbol), applogger.Error(serr))
			}
			return models.PriceSeries{}, err
		}
		s.l.Warn("live fetch failed, serving stored snapshot",
			applogger.Symbol(symbol),
			applogger.Date("last_date", stored.Last().Date),
			applogger.Error(err),
		)
		return stored, nil
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, cachedSeries{Symbol: series.Symbol, Points: series.Points}, s.ttl); err != nil {
			s.l.Warn("series cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, series); err != nil {
			s.l.Warn("snapshot save failed", applogger.Symbol(symbol), applogger.Error(err))
		}
	}
	return series, nil
}

// CachingInfoSource caches metadata lookups. Defaults returned on lookup failure are not cached.
type CachingInfoSource struct {
	live  domrepo.InfoSource
	cache cache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
}

// NewCachingInfoSource wraps live. A nil cache disables caching.
func NewCachingInfoSource(live domrepo.InfoSource, c cache.BytesCache, ttl time.Duration, l *applogger.Logger) *CachingInfoSource {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CachingInfoSource{live: live, cache: c, ttl: ttl, l: l}
}

func (s *CachingInfoSource) Lookup(ctx context.Context, symbol string) models.StockInfo {
	if s.cache == nil {
		return s.live.Lookup(ctx, symbol)
	}
	key := "info:" + util.NormalizeSymbol(symbol)
	var info models.StockInfo
	if ok, err := cache.GetJSON(ctx, s.cache, key, &info); err == nil && ok {
		return info
	}

	info = s.live.Lookup(ctx, symbol)
	if info == models.DefaultStockInfo(symbol) {
		return info
	}
	if err := cache.SetJSON(ctx, s.cache, key, info, s.ttl); err != nil {
		s.l.Warn("info cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return info
}

var (
	_ domrepo.PriceSource = (*CachingPriceSource)(nil)
	_ domrepo.InfoSource  = (*CachingInfoSource)(nil)
)
