package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rideops/fleetsync/internal/bus"
)

// Config holds archiver settings.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// Metrics counts archiver activity.
type Metrics struct {
	Recorded int64
	Dropped  int64
	Inserts  int64
	Flushes  int64
	Errors   int64
}

// eventRow is the persisted shape of one envelope.
type eventRow struct {
	EventID    uuid.UUID
	EventType  string
	Payload    []byte
	EventTS    string
	ReceivedAt int64 // µs since epoch
}

// Archiver persists every dispatched event envelope to Postgres for audit.
// It taps the dispatch path without slowing it down: Record is non-blocking
// and drops under backpressure.
type Archiver struct {
	cfg    Config
	logger *slog.Logger
	db     *pgxpool.Pool

	input chan eventRow

	batch   []eventRow
	batchMu sync.Mutex

	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics   Metrics
	metricsMu sync.Mutex
}

// NewArchiver creates an event archiver writing to db.
func NewArchiver(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  make(chan eventRow, cfg.BufferSize),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming recorded events and flushing batches.
func (a *Archiver) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.flushTicker = time.NewTicker(a.cfg.FlushInterval)

	a.wg.Add(1)
	go a.consumeLoop()

	a.wg.Add(1)
	go a.flushLoop()

	a.logger.Info("event archiver started",
		"batch_size", a.cfg.BatchSize,
		"flush_interval", a.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the archiver, flushing the pending batch.
func (a *Archiver) Stop(ctx context.Context) error {
	a.logger.Info("stopping event archiver")

	if a.cancel != nil {
		a.cancel()
	}
	if a.flushTicker != nil {
		a.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("event archiver stopped")
	case <-ctx.Done():
		a.logger.Warn("event archiver stop timed out")
	}

	// The consume loop exits on cancellation, so rows still buffered in the
	// input channel would be lost without this drain.
	a.drainPending()
	a.flush(context.Background())
	return nil
}

// drainPending moves rows left in the input channel into the batch.
func (a *Archiver) drainPending() {
	for {
		select {
		case row := <-a.input:
			a.batchMu.Lock()
			a.batch = append(a.batch, row)
			a.batchMu.Unlock()
		default:
			return
		}
	}
}

// Record enqueues one event for archiving. Non-blocking: the event is
// dropped (and counted) when the buffer is full. Suitable as a Manager
// event tap.
func (a *Archiver) Record(evt bus.Event) {
	row := eventRow{
		EventID:    uuid.New(),
		EventType:  evt.Type,
		Payload:    evt.Payload,
		EventTS:    evt.Timestamp,
		ReceivedAt: evt.ReceivedAt.UnixMicro(),
	}

	select {
	case a.input <- row:
		a.metricsMu.Lock()
		a.metrics.Recorded++
		a.metricsMu.Unlock()
	default:
		a.metricsMu.Lock()
		a.metrics.Dropped++
		a.metricsMu.Unlock()
		a.logger.Warn("archive buffer full, dropping event", "type", evt.Type)
	}
}

// Stats returns current metrics.
func (a *Archiver) Stats() Metrics {
	a.metricsMu.Lock()
	defer a.metricsMu.Unlock()
	return a.metrics
}

// consumeLoop accumulates rows into batches.
func (a *Archiver) consumeLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case row := <-a.input:
			a.batchMu.Lock()
			a.batch = append(a.batch, row)
			shouldFlush := len(a.batch) >= a.cfg.BatchSize
			a.batchMu.Unlock()

			if shouldFlush {
				a.flush(a.ctx)
			}
		}
	}
}

// flushLoop periodically flushes partial batches.
func (a *Archiver) flushLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.flushTicker.C:
			a.flush(a.ctx)
		}
	}
}

// flush writes the current batch to the database.
func (a *Archiver) flush(ctx context.Context) {
	a.batchMu.Lock()
	if len(a.batch) == 0 {
		a.batchMu.Unlock()
		return
	}
	batch := a.batch
	a.batch = make([]eventRow, 0, a.cfg.BatchSize)
	a.batchMu.Unlock()

	start := time.Now()

	if err := a.batchInsert(ctx, batch); err != nil {
		a.logger.Error("batch insert failed", "error", err, "count", len(batch))
		a.metricsMu.Lock()
		a.metrics.Errors++
		a.metricsMu.Unlock()
		return
	}

	a.metricsMu.Lock()
	a.metrics.Inserts += int64(len(batch))
	a.metrics.Flushes++
	a.metricsMu.Unlock()

	a.logger.Debug("flushed events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch.
func (a *Archiver) batchInsert(ctx context.Context, rows []eventRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO realtime_events (event_id, event_type, payload, event_ts, received_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (event_id) DO NOTHING
		`, r.EventID, r.EventType, r.Payload, r.EventTS, r.ReceivedAt)
	}

	results := a.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
