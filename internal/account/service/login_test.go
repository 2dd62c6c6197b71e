package service

import (
	"time"

	"gatekeeper/internal/account/lockout"
	"gatekeeper/internal/account/models"
	"gatekeeper/internal/audit"
	dErrors "gatekeeper/pkg/domain-errors"
)

const (
	testPassword = "Sunshine#42day"
	wrongGuess   = "WrongGuess#1x"
)

func (s *serviceSuite) login(username, password string) (*models.LoginResult, error) {
	return s.svc.Login(s.ctx, models.LoginRequest{
		Username: username,
		Password: password,
	})
}

func (s *serviceSuite) TestLoginPendingAccountRefused() {
	s.register("alice", testPassword)

	result, err := s.login("alice", testPassword)
	s.Require().Error(err)
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeAccountState))
	s.Contains(err.Error(), "not approved")
	s.Equal(audit.ActionLoginFailedPending, s.lastEvent().Action)
}

func (s *serviceSuite) TestLoginAuthorizedAccountSucceeds() {
	s.register("alice", testPassword)
	s.authorize("alice")

	result, err := s.login("alice", testPassword)
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.False(result.ForceSecretReset)

	claims, err := s.issuer.Verify(result.Token)
	s.Require().NoError(err)
	s.Equal("alice", claims.Username)
	s.Equal(models.RoleStandard, claims.Role)

	s.Equal(audit.ActionLoginSuccess, s.lastEvent().Action)
}

func (s *serviceSuite) TestLoginUnknownUserIsGeneric() {
	result, err := s.login("nobody", testPassword)
	s.Require().Error(err)
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	s.Equal("invalid credentials", err.Error())

	event := s.lastEvent()
	s.Equal(audit.ActionLoginFailedUnknown, event.Action)
	s.Nil(event.AccountID)
}

func (s *serviceSuite) TestLoginBadPasswordMatchesUnknownUserError() {
	s.register("alice", testPassword)
	s.authorize("alice")

	_, badPassword := s.login("alice", wrongGuess)
	_, unknownUser := s.login("nobody", wrongGuess)

	// Identical code and message: the response must not reveal whether
	// the username exists.
	s.Equal(unknownUser.Error(), badPassword.Error())
	s.True(dErrors.HasCode(badPassword, dErrors.CodeUnauthenticated))
}

func (s *serviceSuite) TestLoginLocksAfterThresholdFailures() {
	s.register("bob", testPassword)
	s.authorize("bob")

	for i := 0; i < lockout.FailureThreshold; i++ {
		_, err := s.login("bob", wrongGuess)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	}

	account, err := s.accounts.FindByUsername(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(account.Locked)
	s.Equal(lockout.FailureThreshold, account.FailedAttempts)
	s.Require().NotNil(account.LockExpiry)
	s.Equal(s.now.Add(lockout.LockDuration), *account.LockExpiry)

	// Correct password while locked is still refused, with an explicit
	// state message, and the counter stays where it was.
	result, err := s.login("bob", testPassword)
	s.Require().Error(err)
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeAccountState))
	s.Contains(err.Error(), "locked")
	s.Equal(audit.ActionLoginFailedLocked, s.lastEvent().Action)

	account, err = s.accounts.FindByUsername(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(lockout.FailureThreshold, account.FailedAttempts)
}

func (s *serviceSuite) TestLoginAfterLockExpirySucceedsAndClears() {
	s.register("bob", testPassword)
	s.authorize("bob")

	for i := 0; i < lockout.FailureThreshold; i++ {
		_, _ = s.login("bob", wrongGuess)
	}

	s.advance(lockout.LockDuration + time.Minute)

	result, err := s.login("bob", testPassword)
	s.Require().NoError(err)
	s.Require().NotNil(result)

	account, err := s.accounts.FindByUsername(s.ctx, "bob")
	s.Require().NoError(err)
	s.False(account.Locked)
	s.Nil(account.LockExpiry)
	s.Zero(account.FailedAttempts)
}

func (s *serviceSuite) TestLoginFailureWhileLockExpiredStartsNewCount() {
	s.register("bob", testPassword)
	s.authorize("bob")

	for i := 0; i < lockout.FailureThreshold; i++ {
		_, _ = s.login("bob", wrongGuess)
	}

	s.advance(lockout.LockDuration + time.Minute)

	// The lock has lapsed, so this failure counts toward a fresh
	// transition: the counter increments past the threshold and the lock
	// re-arms from the new failure time.
	_, err := s.login("bob", wrongGuess)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))

	account, findErr := s.accounts.FindByUsername(s.ctx, "bob")
	s.Require().NoError(findErr)
	s.True(account.Locked)
	s.Equal(lockout.FailureThreshold+1, account.FailedAttempts)
	s.Require().NotNil(account.LockExpiry)
	s.Equal(s.now.Add(lockout.LockDuration), *account.LockExpiry)
}

func (s *serviceSuite) TestLoginSuccessResetsCounter() {
	s.register("alice", testPassword)
	s.authorize("alice")

	_, _ = s.login("alice", wrongGuess)
	_, _ = s.login("alice", wrongGuess)

	result, err := s.login("alice", testPassword)
	s.Require().NoError(err)
	s.NotNil(result)

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Zero(account.FailedAttempts)
}

func (s *serviceSuite) TestLoginBlockedTakesPrecedenceOverLocked() {
	s.register("carol", testPassword)
	s.authorize("carol")

	for i := 0; i < lockout.FailureThreshold; i++ {
		_, _ = s.login("carol", wrongGuess)
	}

	account, err := s.accounts.FindByUsername(s.ctx, "carol")
	s.Require().NoError(err)
	_, err = s.accounts.UpdateAuthState(s.ctx, account.ID, func(a *models.Account) error {
		a.Blocked = true
		return nil
	})
	s.Require().NoError(err)

	_, err = s.login("carol", testPassword)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccountState))
	s.Contains(err.Error(), "blocked")
	s.Equal(audit.ActionLoginFailedBlocked, s.lastEvent().Action)
}

func (s *serviceSuite) TestLoginForceSecretResetFlagSurfaces() {
	s.register("alice", testPassword)
	s.authorize("alice")

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.accounts.UpdateAuthState(s.ctx, account.ID, func(a *models.Account) error {
		a.ForceSecretReset = true
		return nil
	})
	s.Require().NoError(err)

	result, err := s.login("alice", testPassword)
	s.Require().NoError(err)
	s.True(result.ForceSecretReset)

	claims, err := s.issuer.Verify(result.Token)
	s.Require().NoError(err)
	s.True(claims.ForceSecretReset)
}
