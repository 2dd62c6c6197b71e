package audit

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/pkg/domain"
)

// Recorder is the write surface domain logic uses. Audit writes are
// best-effort relative to the primary operation: a failed insert is logged
// and counted but never rolls back or fails the state change that
// triggered it. That trade-off favors availability of the primary path and
// is deliberate.
type Recorder struct {
	store          Store
	logger         *slog.Logger
	now            func() time.Time
	onWriteFailure func()
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used to report failed audit writes.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithWriteFailureHook registers a callback invoked whenever an audit
// write fails, typically to increment a metric.
func WithWriteFailureHook(hook func()) RecorderOption {
	return func(r *Recorder) {
		r.onWriteFailure = hook
	}
}

// NewRecorder constructs a Recorder around the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Record assigns the event an ID and timestamp if unset and appends it.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.ID.IsNil() {
		event.ID = domain.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}

	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist audit event",
			"error", err,
			"action", event.Action,
		)
		if r.onWriteFailure != nil {
			r.onWriteFailure()
		}
	}
}
