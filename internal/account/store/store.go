// Package store defines the authoritative account record store consumed by
// the account and admin services.
package store

import (
	"context"
	"errors"

	"gatekeeper/internal/account/models"
	"gatekeeper/pkg/domain"
)

// Sentinel store errors. Implementations return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound          = errors.New("account not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

// Directory is the account record store and query surface.
//
// Error contract: Find methods return ErrNotFound when no record exists;
// Create and Update return ErrDuplicateUsername on a username uniqueness
// violation. Implementations never hand out aliased mutable state.
//
// All methods honor context deadlines; a timed-out call surfaces the
// context error wrapped, which services map to a transient failure.
type Directory interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error)
	// FindByUsername matches case-sensitively: uniqueness is global and
	// case-considered.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)

	// Update persists the identity fields only: username, display name,
	// and email. Authentication state and secret material never travel
	// through this path, so a snapshot that went stale while a login was
	// mutating the same record cannot overwrite a committed lockout
	// transition. Secret and auth-state changes go through UpdateAuthState.
	Update(ctx context.Context, account *models.Account) error

	// UpdateAuthState applies mutate to the account under a single atomic
	// read-modify-write, so concurrent authentication attempts against one
	// account cannot lose counter updates or race the lock transition. The
	// mutation must be pure state manipulation; if it returns an error the
	// record is left untouched. Returns the post-mutation account.
	UpdateAuthState(ctx context.Context, accountID domain.AccountID, mutate func(*models.Account) error) (*models.Account, error)

	Delete(ctx context.Context, accountID domain.AccountID) error
}
