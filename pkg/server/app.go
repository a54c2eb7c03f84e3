package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "StockPredictor/internal/middleware"
	"StockPredictor/internal/service/ratelimit"
	"StockPredictor/internal/usecase"
	pkgch "StockPredictor/pkg/clickhouse"
	"StockPredictor/pkg/config"
	xhttp "StockPredictor/pkg/http"
	pkgkafka "StockPredictor/pkg/kafka"
	applogger "StockPredictor/pkg/logger"
)

const (
	pruneEvery = time.Minute
	pruneIdle  = 10 * time.Minute
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	pipeline   *mid.ArchivePipeline
	proc       *usecase.ArchiveProcessor
	consumer   *pkgkafka.Consumer
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
}

// Option attaches an optional component to App. Nil components are skipped.
type Option func(*App)

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(a *App) { a.limiter = l }
}

func WithArchive(p *mid.ArchivePipeline, proc *usecase.ArchiveProcessor) Option {
	return func(a *App) {
		a.pipeline = p
		a.proc = proc
	}
}

func WithConsumer(c *pkgkafka.Consumer) Option {
	return func(a *App) { a.consumer = c }
}

func WithProducer(p *pkgkafka.Producer) Option {
	return func(a *App) { a.producer = p }
}

func WithClickHouse(c *pkgch.Client) Option {
	return func(a *App) { a.chClient = c }
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	a := &App{cfg: cfg, logger: logger, httpServer: httpServer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := a.logger

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		l.Info("archive pipeline started", applogger.String("backend", a.cfg.Archive.Backend))
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			l.Error("kafka consumer error", applogger.Error(err))
			return err
		}
	}

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(pruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(pruneIdle); n > 0 {
				a.logger.Debug("rate limiter pruned", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown stops intake first, then the archive path, then infrastructure clients.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
		l.Info("archive pipeline stopped")
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// flush collected logs while the producer is still open
	l.RemoveCollector()

	if a.proc != nil {
		a.proc.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
