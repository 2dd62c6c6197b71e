package service

import (
	"gatekeeper/internal/account/models"
	"gatekeeper/internal/audit"
	dErrors "gatekeeper/pkg/domain-errors"
)

func (s *serviceSuite) TestRegisterCreatesPendingAccount() {
	result, err := s.svc.Register(s.ctx, models.RegisterRequest{
		Username:    "alice",
		Password:    "Sunshine#42day",
		DisplayName: "Alice",
		Email:       "alice@example.com",
	})
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.NotEmpty(result.AccountID)

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(models.RoleStandard, account.Role)
	s.False(account.Authorized)
	s.Equal(models.StatusPending, account.EffectiveStatus(s.now))
	s.NotEqual("Sunshine#42day", account.SecretDigest)
	s.NoError(s.hasher.Verify("Sunshine#42day", account.SecretDigest))

	event := s.lastEvent()
	s.Equal(audit.ActionRegistration, event.Action)
	s.True(event.Success)
}

func (s *serviceSuite) TestRegisterCollectsAllViolations() {
	_, err := s.svc.Register(s.ctx, models.RegisterRequest{
		Username:    "a!",
		Password:    "short",
		DisplayName: "Bad",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	var domainErr *dErrors.Error
	s.Require().ErrorAs(err, &domainErr)
	// Username length and charset plus every missing password class are
	// reported together, not first-failure-only.
	s.GreaterOrEqual(len(domainErr.Violations), 4)
}

func (s *serviceSuite) TestRegisterRejectsReservedUsername() {
	for _, username := range []string{"admin", "Root", "SYSTEM"} {
		_, err := s.svc.Register(s.ctx, models.RegisterRequest{
			Username:    username,
			Password:    "Sunshine#42day",
			DisplayName: "Reserved",
		})
		s.Require().Error(err, "username %q", username)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func (s *serviceSuite) TestRegisterDuplicateUsernameConflicts() {
	s.register("alice", "Sunshine#42day")

	_, err := s.svc.Register(s.ctx, models.RegisterRequest{
		Username:    "alice",
		Password:    "Different#42pw",
		DisplayName: "Second Alice",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *serviceSuite) TestRegisterUsernameCaseSensitivity() {
	s.register("alice", "Sunshine#42day")

	// Alice and alice are distinct accounts.
	_, err := s.svc.Register(s.ctx, models.RegisterRequest{
		Username:    "Alice",
		Password:    "Sunshine#42day",
		DisplayName: "Other Alice",
	})
	s.NoError(err)
}
