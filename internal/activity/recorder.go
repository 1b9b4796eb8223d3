package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/model"
)

const (
	// DefaultBufferSize is the max number of undelivered events held in memory.
	DefaultBufferSize = 1024

	// DefaultBatchSize is the max events per insert batch.
	DefaultBatchSize = 64

	// DefaultFlushInterval is how long a partial batch may wait before insert.
	DefaultFlushInterval = 2 * time.Second

	// DefaultFlushTimeout bounds a single batch insert.
	DefaultFlushTimeout = 5 * time.Second
)

// EventWriter persists batches of activity events.
type EventWriter interface {
	InsertEvents(ctx context.Context, events []*model.ActivityEvent) error
}

// Recorder buffers activity events and writes them in batches from a
// background worker. Record never blocks; when the buffer is full the
// event is dropped and counted.
type Recorder struct {
	writer  EventWriter
	logger  *slog.Logger
	metrics metrics.Recorder

	events        chan *model.ActivityEvent
	batchSize     int
	flushInterval time.Duration
	flushTimeout  time.Duration

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewRecorder creates an activity recorder with default buffering.
func NewRecorder(writer EventWriter, logger *slog.Logger, recorder metrics.Recorder) *Recorder {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Recorder{
		writer:        writer,
		logger:        logger.With("component", "activity.recorder"),
		metrics:       recorder,
		events:        make(chan *model.ActivityEvent, DefaultBufferSize),
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
		flushTimeout:  DefaultFlushTimeout,
	}
}

// SetBufferSize overrides the default buffer size. Must be called
// before Run.
func (r *Recorder) SetBufferSize(size int) {
	if size > 0 {
		r.events = make(chan *model.ActivityEvent, size)
	}
}

// SetBatchSize overrides the default batch size.
func (r *Recorder) SetBatchSize(size int) {
	if size > 0 {
		r.batchSize = size
	}
}

// SetFlushInterval overrides the default flush interval.
func (r *Recorder) SetFlushInterval(interval time.Duration) {
	if interval > 0 {
		r.flushInterval = interval
	}
}

// Record enqueues an event without blocking. Events with an unknown
// action or no project are dropped outright.
func (r *Recorder) Record(event *model.ActivityEvent) {
	if event == nil || !event.Action.IsValid() || event.ProjectID == 0 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	select {
	case r.events <- event:
		r.metrics.IncActivityEventRecorded(metrics.ActivityQueued)
	default:
		r.logger.Warn("activity buffer full, dropping event",
			"project_id", event.ProjectID,
			"action", event.Action,
		)
		r.metrics.IncActivityEventRecorded(metrics.ActivityDropped)
	}
}

// Run starts the batch loop. Blocks until the context is cancelled,
// then drains buffered events before returning.
func (r *Recorder) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("recorder already started")
	}
	r.started = true
	r.done = make(chan struct{})
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	defer close(r.done)

	r.logger.Info("activity recorder started",
		"batch_size", r.batchSize,
		"flush_interval", r.flushInterval.String(),
	)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	batch := make([]*model.ActivityEvent, 0, r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.drain(batch)
			r.logger.Info("activity recorder stopped")
			return nil

		case event := <-r.events:
			batch = append(batch, event)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

// Shutdown stops the worker and waits for the final drain. It
// implements server.ShutdownFunc.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.logger.Warn("activity recorder shutdown timed out")
		return ctx.Err()
	}
}

// drain empties the buffer and flushes everything left.
func (r *Recorder) drain(batch []*model.ActivityEvent) {
	for {
		select {
		case event := <-r.events:
			batch = append(batch, event)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

// flush writes one batch. Uses its own timeout so the final drain can
// still land after the run context is cancelled. Failed batches are
// logged and dropped; the feed is best effort.
func (r *Recorder) flush(batch []*model.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.flushTimeout)
	defer cancel()

	start := time.Now()
	if err := r.writer.InsertEvents(ctx, batch); err != nil {
		r.logger.Error("activity batch insert failed",
			"batch_size", len(batch),
			"error", err,
		)
		r.metrics.IncActivityFlush(metrics.FlushFailed)
		return
	}

	r.metrics.IncActivityFlush(metrics.FlushSuccess)
	r.metrics.ObserveActivityBatchSize(len(batch))
	r.metrics.ObserveActivityFlushDuration(time.Since(start))

	r.logger.Debug("activity batch flushed",
		"batch_size", len(batch),
		"duration_ms", float64(time.Since(start).Microseconds())/1000,
	)
}
