package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marketpulse/pricefeed/internal/metrics"
	"github.com/marketpulse/pricefeed/internal/model"
	"github.com/marketpulse/pricefeed/internal/source"
	"github.com/marketpulse/pricefeed/internal/window"
)

// PointHandler receives successfully fetched price points.
type PointHandler interface {
	HandlePoint(p model.PricePoint) error
}

// PointHandlerFunc is a function adapter for PointHandler.
type PointHandlerFunc func(model.PricePoint) error

func (f PointHandlerFunc) HandlePoint(p model.PricePoint) error {
	return f(p)
}

// Config holds poller configuration.
type Config struct {
	Interval       time.Duration // Poll interval (default: 60s)
	FetchTimeout   time.Duration // Per-source fetch timeout (default: 5s)
	ReadyThreshold int           // Consecutive failed ticks before not-ready (default: 3)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       60 * time.Second,
		FetchTimeout:   5 * time.Second,
		ReadyThreshold: 3,
	}
}

// Stats is a point-in-time snapshot of poller counters.
type Stats struct {
	Successes           int64
	Failures            int64
	ConsecutiveFailures int
	LastError           string
	LastSuccess         time.Time
	LastFetch           time.Time
}

// Poller periodically fetches the current price from an ordered list of
// sources and maintains the rolling window.
//
// Sources are tried in order; a fallback is consulted only when every
// earlier source failed this tick. Ticks run synchronously on a single
// goroutine, so a slow tick delays the next one rather than overlapping it.
type Poller struct {
	cfg     Config
	sources []source.Source
	window  *window.Window
	handler PointHandler
	metrics *metrics.Metrics
	logger  *slog.Logger

	statsMu sync.Mutex
	stats   Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. handler and m may be nil.
func New(cfg Config, sources []source.Source, win *window.Window, handler PointHandler, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		sources: sources,
		window:  win,
		handler: handler,
		metrics: m,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	if len(p.sources) == 0 {
		return errors.New("poller: no sources configured")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("price poller started",
		"interval", p.cfg.Interval,
		"fetch_timeout", p.cfg.FetchTimeout,
		"sources", len(p.sources),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("price poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.tick()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick fetches one price observation and updates the window. A failed tick
// records the error and leaves the window unmodified; it never inserts a
// synthetic value and never stops future ticks.
func (p *Poller) tick() {
	pt, err := p.fetch()

	p.statsMu.Lock()
	p.stats.LastFetch = time.Now()
	if err != nil {
		p.stats.Failures++
		p.stats.ConsecutiveFailures++
		p.stats.LastError = err.Error()
		p.statsMu.Unlock()

		if p.metrics != nil {
			p.metrics.TicksTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		p.logger.Warn("poll tick failed", "err", err)
		return
	}
	p.stats.Successes++
	p.stats.ConsecutiveFailures = 0
	p.stats.LastSuccess = pt.Timestamp
	p.statsMu.Unlock()

	p.window.Insert(pt)

	if p.metrics != nil {
		p.metrics.TicksTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		p.metrics.LastPrice.Set(pt.Value)
		p.metrics.WindowSize.Set(float64(p.window.Len()))
	}

	if p.handler != nil {
		if err := p.handler.HandlePoint(pt); err != nil {
			p.logger.Warn("point handler failed", "err", err)
		}
	}

	p.logger.Debug("poll tick complete",
		"source", pt.Source,
		"price", pt.Value,
		"window", p.window.Len(),
	)
}

// fetch tries each source in order, each with its own bounded timeout.
func (p *Poller) fetch() (model.PricePoint, error) {
	var errs []error

	for _, src := range p.sources {
		start := time.Now()
		ctx, cancel := context.WithTimeout(p.ctx, p.cfg.FetchTimeout)
		value, err := src.FetchPrice(ctx)
		cancel()

		if err != nil {
			if p.metrics != nil {
				p.metrics.FetchesTotal.WithLabelValues(src.Name(), metrics.ResultError).Inc()
			}
			p.logger.Warn("source fetch failed",
				"source", src.Name(),
				"err", err,
			)
			errs = append(errs, err)
			continue
		}

		if p.metrics != nil {
			p.metrics.FetchesTotal.WithLabelValues(src.Name(), metrics.ResultSuccess).Inc()
			p.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		}

		return model.PricePoint{
			Timestamp: time.Now().UTC(),
			Value:     value,
			Source:    src.Name(),
		}, nil
	}

	return model.PricePoint{}, fmt.Errorf("%w: %w", source.ErrAllSourcesFailed, errors.Join(errs...))
}

// Stats returns current counters.
func (p *Poller) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// Ready reports whether the poller has fresh data: at least one success
// ever, and fewer consecutive fully-failed ticks than the threshold.
func (p *Poller) Ready() bool {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats.Successes > 0 && p.stats.ConsecutiveFailures < p.cfg.ReadyThreshold
}
