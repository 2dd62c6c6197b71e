// Package service orchestrates registration, authentication, and
// self-service profile updates over the account directory.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/token"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/secrets"
)

// Service composes the policy engine, hasher, lockout state machine, token
// issuer, and audit trail around the account directory. Each request is an
// independent unit of work; the only shared state is the directory itself
// and the read-only signing secret inside the issuer.
type Service struct {
	accounts store.Directory
	hasher   *secrets.Hasher
	tokens   *token.Issuer
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches Prometheus metrics. Optional; nil is safe.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the account service.
func New(accounts store.Directory, hasher *secrets.Hasher, tokens *token.Issuer, recorder *audit.Recorder, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// storeError translates store and context failures into domain errors
// exactly once. Raw storage error text never reaches the caller.
func storeError(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "account not found")
	case errors.Is(err, store.ErrDuplicateUsername):
		return dErrors.Wrap(err, dErrors.CodeConflict, "username already taken")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTransient, "storage temporarily unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
