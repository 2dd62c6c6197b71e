// Package seeder provisions the initial administrator account so a fresh
// deployment is operable without manual database edits.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	"gatekeeper/pkg/domain"
	"gatekeeper/pkg/secrets"
)

// Seeder creates the bootstrap administrator when the directory does not
// hold one yet.
type Seeder struct {
	accounts store.Directory
	hasher   *secrets.Hasher
	recorder *audit.Recorder
	logger   *slog.Logger
}

// New creates a new seeder.
func New(accounts store.Directory, hasher *secrets.Hasher, recorder *audit.Recorder, logger *slog.Logger) *Seeder {
	return &Seeder{
		accounts: accounts,
		hasher:   hasher,
		recorder: recorder,
		logger:   logger,
	}
}

// EnsureAdmin guarantees a privileged account with the given username
// exists and returns the generated password when it created one. The
// account is written directly through the store: the registration policy
// does not apply to the bootstrap identity, and the reserved-name rule
// would otherwise refuse the default "admin" username. The account starts
// with ForceSecretReset set so the generated password is rotated on first
// login.
func (s *Seeder) EnsureAdmin(ctx context.Context, username, password string) (string, error) {
	_, err := s.accounts.FindByUsername(ctx, username)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "bootstrap admin already present", "username", username)
		return "", nil
	case !errors.Is(err, store.ErrNotFound):
		// A transient lookup failure must not turn into a duplicate
		// insert attempt.
		return "", fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	generated := ""
	if password == "" {
		var err error
		password, err = secrets.GenerateTemporary()
		if err != nil {
			return "", fmt.Errorf("generate bootstrap password: %w", err)
		}
		generated = password
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash bootstrap password: %w", err)
	}

	now := time.Now()
	admin := &models.Account{
		ID:               domain.NewAccountID(),
		Username:         username,
		SecretDigest:     digest,
		DisplayName:      "Administrator",
		Role:             models.RolePrivileged,
		Authorized:       true,
		SecretChangedAt:  now,
		ForceSecretReset: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.accounts.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("create bootstrap admin: %w", err)
	}

	adminID := admin.ID
	s.recorder.Record(ctx, audit.Event{
		AccountID: &adminID,
		Action:    audit.ActionRegistration,
		Success:   true,
		Detail:    map[string]string{"username": username, "bootstrap": "true"},
	})

	s.logger.InfoContext(ctx, "bootstrap admin created",
		"username", username,
		"account_id", admin.ID,
	)
	return generated, nil
}
