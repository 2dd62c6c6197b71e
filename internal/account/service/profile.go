package service

import (
	"context"
	"errors"
	"strings"

	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/policy"
	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
)

// UpdateProfile applies self-service changes to the caller's own account:
// display name, contact address, username, and password. A password change
// requires the current secret, passes the full policy check, and is
// rejected when it matches the active digest or any of the retained prior
// ones.
func (s *Service) UpdateProfile(ctx context.Context, claims *token.Claims, req models.UpdateProfileRequest) (*models.View, error) {
	accountID, err := domain.ParseAccountID(claims.AccountID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired session")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The token outlived the account; treat it like any other
			// rejected credential.
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired session")
		}
		return nil, storeError(err, "profile lookup failed")
	}

	var changed []string
	identityChanged := false

	if req.DisplayName != "" && req.DisplayName != account.DisplayName {
		account.DisplayName = req.DisplayName
		changed = append(changed, "display_name")
		identityChanged = true
	}
	if req.Email != "" && req.Email != account.Email {
		account.Email = req.Email
		changed = append(changed, "email")
		identityChanged = true
	}
	if req.Username != "" && req.Username != account.Username {
		if _, violations := policy.ValidateUsername(req.Username); len(violations) > 0 {
			return nil, dErrors.NewValidation("username rejected by policy", policy.Messages(violations))
		}
		account.Username = req.Username
		changed = append(changed, "username")
		identityChanged = true
	}

	// The expensive bcrypt work runs against the snapshot, outside any
	// lock; the transition itself commits through the atomic auth-state
	// update below.
	var newDigest string
	if req.ChangesPassword() {
		if err := s.hasher.Verify(req.CurrentPassword, account.SecretDigest); err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "current password is incorrect")
		}
		if _, violations := policy.ValidatePassword(req.NewPassword); len(violations) > 0 {
			return nil, dErrors.NewValidation("password rejected by policy", policy.Messages(violations))
		}

		retained := append(append([]string(nil), account.SecretHistory...), account.SecretDigest)
		if policy.IsReused(s.hasher, req.NewPassword, retained) {
			return nil, dErrors.NewValidation("password rejected by policy",
				[]string{"new password must differ from the current and recently used passwords"})
		}

		newDigest, err = s.hasher.Hash(req.NewPassword)
		if err != nil {
			return nil, err
		}
		changed = append(changed, "password")
	}

	if len(changed) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no fields to update")
	}

	if newDigest != "" {
		priorDigest := account.SecretDigest
		updated, err := s.accounts.UpdateAuthState(ctx, account.ID, func(a *models.Account) error {
			if a.SecretDigest != priorDigest {
				// The verified current password no longer matches the
				// record; an admin reset or another session won the race.
				return dErrors.New(dErrors.CodeConflict, "password changed by another operation, retry with the current password")
			}
			a.PushSecretHistory(a.SecretDigest)
			a.SecretDigest = newDigest
			a.SecretChangedAt = s.now()
			a.ForceSecretReset = false
			return nil
		})
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				return nil, err
			}
			return nil, storeError(err, "could not update password")
		}
		// Identity fields below still come from the request; everything
		// else reflects the committed record.
		updated.Username = account.Username
		updated.DisplayName = account.DisplayName
		updated.Email = account.Email
		account = updated
	}

	if identityChanged {
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, storeError(err, "could not update account")
		}
	}

	s.logger.InfoContext(ctx, "profile updated",
		"account_id", account.ID,
		"fields", changed,
	)

	actorID := account.ID
	s.recorder.Record(ctx, audit.Event{
		AccountID: &actorID,
		Action:    audit.ActionProfileUpdated,
		Origin:    req.Origin,
		Success:   true,
		Detail:    map[string]string{"fields": strings.Join(changed, ",")},
	})

	view := models.NewView(account, s.now())
	return &view, nil
}
