package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "PriceCast/internal/domain/repository"
	icache "PriceCast/internal/service/cache"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/usecase"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	refresher  *usecase.SnapshotRefresher
	publisher  domrepo.EventPublisher
	limiter    *ratelimit.Limiter
	chClient   *pkgch.Client
	redis      *icache.RedisCache
	httpServer *xhttp.Server
}

// Option attaches optional infrastructure to the App. Nil values are ignored.
type Option func(*App)

func WithRefresher(r *usecase.SnapshotRefresher) Option {
	return func(a *App) { a.refresher = r }
}

func WithPublisher(p domrepo.EventPublisher) Option {
	return func(a *App) { a.publisher = p }
}

func WithRateLimiter(lim *ratelimit.Limiter) Option {
	return func(a *App) { a.limiter = lim }
}

func WithClickHouse(ch *pkgch.Client) Option {
	return func(a *App) { a.chClient = ch }
}

func WithRedis(r *icache.RedisCache) Option {
	return func(a *App) { a.redis = r }
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, handler xhttp.Handler, opts ...Option) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	a := &App{cfg: cfg, l: l, handler: handler}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Server builds the HTTP server from config. Run calls it; tests may use it directly.
func (a *App) Server() *xhttp.Server {
	if a.httpServer != nil {
		return a.httpServer
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequestThreshold(a.cfg.Server.SlowRequest),
		xhttp.WithStaticDir(a.cfg.Server.StaticDir),
		xhttp.WithCORS(a.cfg.Server.CORSOrigins...),
		xhttp.WithLogger(a.l.With("http")),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if a.limiter != nil {
		opts = append(opts, xhttp.WithMiddleware(a.limiter.Middleware()))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)
	return a.httpServer
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.refresher != nil && a.cfg.Scheduler.Enabled {
		if err := a.refresher.Start(ctx, a.cfg.Scheduler.Cron); err != nil {
			return err
		}
	}

	if err := a.Server().Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("pricecast started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("engine", a.cfg.Forecast.Engine),
		applogger.Int("port", a.cfg.Server.Port),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if a.refresher != nil {
		a.refresher.Stop()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	// flush aggregated error logs before the producer goes away
	a.l.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
