package history

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpulse/pricefeed/internal/model"
)

// Config holds history writer settings.
type Config struct {
	BatchSize     int           // Rows per insert batch (default: 100)
	FlushInterval time.Duration // Max time a row waits in the batch (default: 5s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
	}
}

// Metrics tracks writer activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// Writer consumes price points from a buffer and batch-inserts them into
// the price_points table.
type Writer struct {
	cfg        Config
	instanceID string
	logger     *slog.Logger

	// Input from the poller
	input *Buffer

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []pointRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// pointRow mirrors the price_points table.
type pointRow struct {
	ObservedAt int64 // microseconds since epoch
	Price      float64
	Source     string
	InstanceID string
}

// NewWriter creates a new Writer.
func NewWriter(cfg Config, input *Buffer, db *pgxpool.Pool, instanceID string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:        cfg,
		instanceID: instanceID,
		input:      input,
		db:         db,
		logger:     logger,
		batch:      make([]pointRow, 0, cfg.BatchSize),
	}
}

// HandlePoint enqueues a point for persistence. It satisfies the poller's
// point handler contract and never blocks the tick.
func (w *Writer) HandlePoint(p model.PricePoint) error {
	if !w.input.Send(p) {
		return errors.New("history buffer closed")
	}
	return nil
}

// Start begins consuming points and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("history writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping history writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("history writer stopped")
	case <-ctx.Done():
		w.logger.Warn("history writer stop timed out")
	}

	// Drain whatever the consumer did not pick up, then flush.
	for _, p := range w.input.DrainTo(0) {
		w.handlePoint(p)
	}
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input buffer and accumulates batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			p, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handlePoint(p)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handlePoint transforms and adds a point to the batch.
func (w *Writer) handlePoint(p model.PricePoint) {
	row := w.transform(p)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// transform converts a PricePoint to a pointRow.
func (w *Writer) transform(p model.PricePoint) pointRow {
	return pointRow{
		ObservedAt: p.Timestamp.UnixMicro(),
		Price:      p.Value,
		Source:     p.Source,
		InstanceID: w.instanceID,
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]pointRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed price points",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(rows []pointRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO price_points (observed_at, price, source, instance_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (instance_id, observed_at) DO NOTHING
		`, r.ObservedAt, r.Price, r.Source, r.InstanceID)
	}

	results := w.db.SendBatch(context.Background(), batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
