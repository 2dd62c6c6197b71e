package service

import (
	"context"
	"errors"
	"strconv"

	"gatekeeper/internal/account/lockout"
	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	dErrors "gatekeeper/pkg/domain-errors"
)

// loginOutcome is the decision reached inside the atomic auth-state update.
type loginOutcome int

const (
	outcomeSuccess loginOutcome = iota
	outcomeBadSecret
	outcomeLockedNow // this failure crossed the threshold
	outcomeLocked
	outcomeBlocked
	outcomePending
)

// Login authenticates a username/password pair and mints a session token.
//
// Rejections never reveal whether the username exists: unknown-user and
// bad-password both return the same generic unauthenticated error. Locked,
// blocked, and not-yet-authorized accounts get explicit messages - those
// states are already knowable by the account holder. Every attempt is
// audited, existing account or not, and the lockout transition is committed
// before the failure error is returned so state and response always agree.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.recorder.Record(ctx, audit.Event{
				Action:  audit.ActionLoginFailedUnknown,
				Origin:  req.Origin,
				Success: false,
				Detail:  map[string]string{"username": req.Username},
			})
			s.metrics.IncrementLoginFailure("unknown_user")
			return nil, errInvalidCredentials()
		}
		return nil, storeError(err, "login lookup failed")
	}

	// The expensive digest comparison runs outside the row lock; the
	// atomic update below only applies the resulting state transition.
	secretOK := s.hasher.Verify(req.Password, account.SecretDigest) == nil

	var outcome loginOutcome
	updated, err := s.accounts.UpdateAuthState(ctx, account.ID, func(a *models.Account) error {
		now := s.now()
		switch a.EffectiveStatus(now) {
		case models.StatusBlocked:
			outcome = outcomeBlocked
		case models.StatusLocked:
			// Rejected without touching the counter: a locked account
			// does not accumulate further failures.
			outcome = outcomeLocked
		default:
			switch {
			case !secretOK:
				if lockout.RecordFailure(a, now) {
					outcome = outcomeLockedNow
				} else {
					outcome = outcomeBadSecret
				}
			case !a.Authorized:
				outcome = outcomePending
			default:
				// Success also clears a lock whose expiry has lapsed:
				// expiry is evaluated lazily right here, not by a sweeper.
				lockout.RecordSuccess(a)
				outcome = outcomeSuccess
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "login state update failed")
	}

	return s.finishLogin(ctx, updated, req.Origin, outcome)
}

func (s *Service) finishLogin(ctx context.Context, account *models.Account, origin string, outcome loginOutcome) (*models.LoginResult, error) {
	actorID := account.ID
	event := audit.Event{
		AccountID: &actorID,
		Origin:    origin,
		Detail:    map[string]string{"username": account.Username},
	}

	switch outcome {
	case outcomeSuccess:
		signed, err := s.tokens.Issue(account)
		if err != nil {
			return nil, err
		}
		event.Action = audit.ActionLoginSuccess
		event.Success = true
		s.recorder.Record(ctx, event)
		s.metrics.IncrementLoginSuccess()
		s.logger.InfoContext(ctx, "login succeeded", "account_id", account.ID)
		return &models.LoginResult{
			Token:            signed,
			ForceSecretReset: account.ForceSecretReset,
		}, nil

	case outcomeBadSecret, outcomeLockedNow:
		event.Action = audit.ActionLoginFailedBadSecret
		event.Detail["failed_attempts"] = strconv.Itoa(account.FailedAttempts)
		if outcome == outcomeLockedNow {
			event.Detail["locked"] = "true"
			s.metrics.IncrementAccountsLocked()
			s.logger.WarnContext(ctx, "account locked after repeated failures",
				"account_id", account.ID,
				"failed_attempts", account.FailedAttempts,
			)
		}
		s.recorder.Record(ctx, event)
		s.metrics.IncrementLoginFailure("bad_secret")
		return nil, errInvalidCredentials()

	case outcomeLocked:
		event.Action = audit.ActionLoginFailedLocked
		s.recorder.Record(ctx, event)
		s.metrics.IncrementLoginFailure("locked")
		return nil, dErrors.New(dErrors.CodeAccountState, "account locked")

	case outcomeBlocked:
		event.Action = audit.ActionLoginFailedBlocked
		s.recorder.Record(ctx, event)
		s.metrics.IncrementLoginFailure("blocked")
		return nil, dErrors.New(dErrors.CodeAccountState, "account blocked")

	case outcomePending:
		event.Action = audit.ActionLoginFailedPending
		s.recorder.Record(ctx, event)
		s.metrics.IncrementLoginFailure("pending")
		return nil, dErrors.New(dErrors.CodeAccountState, "account not approved")

	default:
		return nil, dErrors.New(dErrors.CodeInternal, "unexpected login outcome")
	}
}

func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")
}
