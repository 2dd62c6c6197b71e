// Package admin implements the administrator control surface: the only
// code path allowed to force account state transitions outside the normal
// login flow.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatekeeper/internal/account/lockout"
	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/secrets"
)

// Service composes the account directory, lockout transitions, and audit
// trail under administrator privilege. Every operation performs one
// capability check and emits exactly one audit event.
type Service struct {
	accounts   store.Directory
	hasher     *secrets.Hasher
	recorder   *audit.Recorder
	auditStore audit.Store
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
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

// New constructs the admin service. The audit store is read directly for
// retrieval; writes go through the best-effort recorder like everywhere
// else.
func New(accounts store.Directory, hasher *secrets.Hasher, recorder *audit.Recorder, auditStore audit.Store, opts ...Option) *Service {
	s := &Service{
		accounts:   accounts,
		hasher:     hasher,
		recorder:   recorder,
		auditStore: auditStore,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// requirePrivileged is the single capability check every operation runs.
// Role comparisons live here and nowhere else.
func requirePrivileged(claims *token.Claims) (domain.AccountID, error) {
	if claims == nil || !claims.Privileged() {
		return domain.AccountID{}, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	actorID, err := domain.ParseAccountID(claims.AccountID)
	if err != nil {
		return domain.AccountID{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired session")
	}
	return actorID, nil
}

// ListAccounts returns every account, without secret digests.
func (s *Service) ListAccounts(ctx context.Context, claims *token.Claims) ([]models.View, error) {
	if _, err := requirePrivileged(claims); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, storeError(err, "could not list accounts")
	}

	now := s.now()
	views := make([]models.View, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, models.NewView(a, now))
	}
	return views, nil
}

// Authorize grants the account the authorization flag, moving it from
// Pending to Active. Idempotent when already authorized.
func (s *Service) Authorize(ctx context.Context, claims *token.Claims, accountID domain.AccountID) error {
	actorID, err := requirePrivileged(claims)
	if err != nil {
		return err
	}

	updated, err := s.accounts.UpdateAuthState(ctx, accountID, func(a *models.Account) error {
		a.Authorized = true
		return nil
	})
	if err != nil {
		return storeError(err, "could not authorize account")
	}

	s.logger.InfoContext(ctx, "account authorized",
		"account_id", accountID,
		"actor_id", actorID,
	)
	s.metrics.IncrementAdminAction("authorize")
	s.recordAdminEvent(ctx, actorID, audit.ActionAdminAuthorize, map[string]string{
		"target_account_id": accountID.String(),
		"target_username":   updated.Username,
	})
	return nil
}

// ToggleBlock flips the administrator-imposed block flag and returns the
// new value. Blocking is independent of lock and authorization state, and
// unblocking deliberately leaves the lock expiry and failed counter alone:
// clearing those takes a successful login or an explicit reset.
func (s *Service) ToggleBlock(ctx context.Context, claims *token.Claims, accountID domain.AccountID) (bool, error) {
	actorID, err := requirePrivileged(claims)
	if err != nil {
		return false, err
	}

	updated, err := s.accounts.UpdateAuthState(ctx, accountID, func(a *models.Account) error {
		a.Blocked = !a.Blocked
		return nil
	})
	if err != nil {
		return false, storeError(err, "could not toggle block")
	}

	s.logger.InfoContext(ctx, "account block toggled",
		"account_id", accountID,
		"actor_id", actorID,
		"blocked", updated.Blocked,
	)
	s.metrics.IncrementAdminAction("toggle_block")
	s.recordAdminEvent(ctx, actorID, audit.ActionAdminBlock, map[string]string{
		"target_account_id": accountID.String(),
		"target_username":   updated.Username,
		"blocked":           boolString(updated.Blocked),
	})
	return updated.Blocked, nil
}

// ResetPassword forces a known temporary secret onto the account, clears
// lock state and the failed counter, and sets the force-secret-reset flag.
// Authorization and blocked flags are untouched. Idempotent in effect:
// calling it twice leaves the account in the same state, just with a fresh
// temporary secret.
func (s *Service) ResetPassword(ctx context.Context, claims *token.Claims, accountID domain.AccountID) (string, error) {
	actorID, err := requirePrivileged(claims)
	if err != nil {
		return "", err
	}

	temporary, err := secrets.GenerateTemporary()
	if err != nil {
		return "", err
	}
	digest, err := s.hasher.Hash(temporary)
	if err != nil {
		return "", err
	}

	updated, err := s.accounts.UpdateAuthState(ctx, accountID, func(a *models.Account) error {
		lockout.AdminReset(a)
		a.PushSecretHistory(a.SecretDigest)
		a.SecretDigest = digest
		a.SecretChangedAt = s.now()
		a.ForceSecretReset = true
		return nil
	})
	if err != nil {
		return "", storeError(err, "could not reset password")
	}

	s.logger.InfoContext(ctx, "password reset by administrator",
		"account_id", accountID,
		"actor_id", actorID,
	)
	s.metrics.IncrementAdminAction("reset_password")
	s.recordAdminEvent(ctx, actorID, audit.ActionAdminResetPassword, map[string]string{
		"target_account_id": accountID.String(),
		"target_username":   updated.Username,
	})
	return temporary, nil
}

// DeleteAccount removes the account record entirely. Terminal; there is no
// undo. Confirmation is the client's concern, not re-checked here.
func (s *Service) DeleteAccount(ctx context.Context, claims *token.Claims, accountID domain.AccountID) error {
	actorID, err := requirePrivileged(claims)
	if err != nil {
		return err
	}

	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return storeError(err, "could not delete account")
	}

	s.logger.InfoContext(ctx, "account deleted",
		"account_id", accountID,
		"actor_id", actorID,
	)
	s.metrics.IncrementAdminAction("delete")
	s.recordAdminEvent(ctx, actorID, audit.ActionAdminDelete, map[string]string{
		"target_account_id": accountID.String(),
	})
	return nil
}

// AccountAudit returns the newest-first audit trail for one account.
func (s *Service) AccountAudit(ctx context.Context, claims *token.Claims, accountID domain.AccountID, limit int) ([]audit.Event, error) {
	if _, err := requirePrivileged(claims); err != nil {
		return nil, err
	}

	events, err := s.auditStore.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, storeError(err, "could not list audit events")
	}
	return events, nil
}

// RecentAudit returns the newest-first audit trail across all accounts.
func (s *Service) RecentAudit(ctx context.Context, claims *token.Claims, limit int) ([]audit.Event, error) {
	if _, err := requirePrivileged(claims); err != nil {
		return nil, err
	}

	events, err := s.auditStore.ListRecent(ctx, limit)
	if err != nil {
		return nil, storeError(err, "could not list audit events")
	}
	return events, nil
}

func (s *Service) recordAdminEvent(ctx context.Context, actorID domain.AccountID, action audit.Action, detail map[string]string) {
	s.recorder.Record(ctx, audit.Event{
		AccountID: &actorID,
		Action:    action,
		Success:   true,
		Detail:    detail,
	})
}

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

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
