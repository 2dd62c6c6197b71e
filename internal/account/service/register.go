package service

import (
	"context"

	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/policy"
	"gatekeeper/internal/audit"
	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
)

// Register creates a new account in the Pending state. Policy checks run
// before any mutation and report every violated rule together; the account
// stays unusable until an administrator authorizes it.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	var violations []policy.Violation
	if _, v := policy.ValidateUsername(req.Username); len(v) > 0 {
		violations = append(violations, v...)
	}
	if _, v := policy.ValidatePassword(req.Password); len(v) > 0 {
		violations = append(violations, v...)
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("registration rejected by policy", policy.Messages(violations))
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &models.Account{
		ID:              domain.NewAccountID(),
		Username:        req.Username,
		SecretDigest:    digest,
		DisplayName:     req.DisplayName,
		Email:           req.Email,
		Role:            models.RoleStandard,
		SecretChangedAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, storeError(err, "could not create account")
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID,
		"username", account.Username,
	)
	s.metrics.IncrementRegistrations()

	actorID := account.ID
	s.recorder.Record(ctx, audit.Event{
		AccountID: &actorID,
		Action:    audit.ActionRegistration,
		Origin:    req.Origin,
		Success:   true,
		Detail:    map[string]string{"username": account.Username},
	})

	return &models.RegisterResult{
		AccountID:        account.ID.String(),
		PasswordStrength: policy.StrengthScore(req.Password),
	}, nil
}
