package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.PriceSeries) error
}

type job struct {
	series  *models.PriceSeries
	retried bool
}

// ArchivePipeline decouples request handling from archiving. Submit never blocks;
// a single worker validates each series and forwards it to the processor.
type ArchivePipeline struct {
	proc       Proc
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	bufSize    int
	bufCh      chan job
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	mu         sync.Mutex
	backoffMin time.Duration
	backoffMax time.Duration
	sleep      func(time.Duration)
}

type PipelineOption func(*ArchivePipeline)

// WithBufferSize sets how many series may wait for the worker.
func WithBufferSize(n int) PipelineOption {
	return func(p *ArchivePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff sets the retry backoff range.
func WithBackoff(min, max time.Duration) PipelineOption {
	return func(p *ArchivePipeline) {
		if min > 0 {
			p.backoffMin = min
		}
		if max >= p.backoffMin {
			p.backoffMax = max
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *ArchivePipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewArchivePipeline creates a new pipeline.
func NewArchivePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ArchivePipeline {
	p := &ArchivePipeline{
		proc:       proc,
		metrics:    metrics,
		logger:     applogger.Nop(),
		bufSize:    256,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan job, p.bufSize)
	return p
}

// Submit queues s for archiving. It returns false when the series was dropped.
func (p *ArchivePipeline) Submit(s *models.PriceSeries) bool {
	if err := validateSeries(s); err != nil {
		p.metrics.RecordError("archive_validate")
		p.logger.Debug("archive rejected series", applogger.Error(err))
		return false
	}
	select {
	case p.bufCh <- job{series: s}:
		return true
	default:
		p.metrics.RecordError("archive_buffer_full")
		return false
	}
}

// Depth returns the number of queued series.
func (p *ArchivePipeline) Depth() int { return len(p.bufCh) }

// Start launches the background worker.
func (p *ArchivePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		backoff := p.backoffMin
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case j := <-p.bufCh:
				start := time.Now()
				if err := p.proc.Process(ctx, j.series); err != nil {
					p.metrics.RecordError("archive_process")
					p.logger.Warn("archive processing failed",
						applogger.String("ticker", j.series.Ticker),
						applogger.Bool("retried", j.retried),
						applogger.Error(err),
					)
					if backoff < p.backoffMax {
						backoff *= 2
						if backoff > p.backoffMax {
							backoff = p.backoffMax
						}
					}
					p.sleep(backoff)
					if j.retried {
						p.metrics.RecordError("archive_drop")
						continue
					}
					// requeue once if space; drop otherwise
					select {
					case p.bufCh <- job{series: j.series, retried: true}:
					default:
						p.metrics.RecordError("archive_drop")
					}
					continue
				}
				backoff = p.backoffMin
				p.metrics.RecordLatency("archive_process", time.Since(start).Seconds())
			}
		}
	}()
}

// Stop stops the worker and waits for it to exit. Queued series are discarded.
func (p *ArchivePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
}

func validateSeries(s *models.PriceSeries) error {
	if s == nil {
		return fmt.Errorf("series nil")
	}
	if s.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if s.Len() == 0 {
		return fmt.Errorf("%s: no bars", s.Ticker)
	}
	for _, b := range s.Bars {
		if b.Date.IsZero() {
			return fmt.Errorf("%s: bar without date", s.Ticker)
		}
		if b.Close < 0 || (!math.IsNaN(b.Volume) && b.Volume < 0) {
			return fmt.Errorf("%s: negative price/volume", s.Ticker)
		}
	}
	return nil
}
