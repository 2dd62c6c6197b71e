package service

import (
	"context"
	"fmt"

	"gatekeeper/internal/account/models"
	"gatekeeper/internal/account/store"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
)

// raceDirectory injects a concurrent mutation between the profile read and
// its write-back.
type raceDirectory struct {
	store.Directory
	afterFind func()
}

func (d *raceDirectory) FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error) {
	account, err := d.Directory.FindByID(ctx, accountID)
	if err == nil && d.afterFind != nil {
		d.afterFind()
	}
	return account, err
}

// sessionFor logs the account in and returns its verified claims.
func (s *serviceSuite) sessionFor(username, password string) *token.Claims {
	result, err := s.login(username, password)
	s.Require().NoError(err)
	claims, err := s.issuer.Verify(result.Token)
	s.Require().NoError(err)
	return claims
}

func (s *serviceSuite) TestUpdateProfileChangesIdentityFields() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	view, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		DisplayName: "Alice A.",
		Email:       "alice@example.com",
	})
	s.Require().NoError(err)
	s.Equal("Alice A.", view.DisplayName)
	s.Equal("alice@example.com", view.Email)

	event := s.lastEvent()
	s.Equal(audit.ActionProfileUpdated, event.Action)
	s.Contains(event.Detail["fields"], "display_name")
	s.Contains(event.Detail["fields"], "email")
}

func (s *serviceSuite) TestUpdateProfileUsernameFollowsPolicy() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		Username: "admin",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	view, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		Username: "alice-2",
	})
	s.Require().NoError(err)
	s.Equal("alice-2", view.Username)
}

func (s *serviceSuite) TestUpdateProfileUsernameConflict() {
	s.register("alice", testPassword)
	s.register("bob", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		Username: "bob",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *serviceSuite) TestChangePasswordHappyPath() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: testPassword,
		NewPassword:     "Moonlight#77up",
	})
	s.Require().NoError(err)

	// Old password no longer works; the new one does.
	_, err = s.login("alice", testPassword)
	s.Require().Error(err)
	result, err := s.login("alice", "Moonlight#77up")
	s.Require().NoError(err)
	s.NotNil(result)

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(account.SecretHistory, 1)
}

func (s *serviceSuite) TestChangePasswordWrongCurrentSecret() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: wrongGuess,
		NewPassword:     "Moonlight#77up",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func (s *serviceSuite) TestChangePasswordRejectsPolicyViolations() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: testPassword,
		NewPassword:     "weak",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *serviceSuite) TestChangePasswordRejectsCurrentAndHistory() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	// Same as the active password.
	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: testPassword,
		NewPassword:     testPassword,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// Rotate once, then try to rotate back.
	_, err = s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: testPassword,
		NewPassword:     "Moonlight#77up",
	})
	s.Require().NoError(err)

	_, err = s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: "Moonlight#77up",
		NewPassword:     testPassword,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *serviceSuite) TestChangePasswordHistoryEviction() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	// Rotate through six generations; after that the original digest has
	// been evicted from the retained window and becomes acceptable again.
	current := testPassword
	for i := 0; i < models.SecretHistoryLimit+1; i++ {
		next := fmt.Sprintf("Rotation#%dpw", i)
		_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
			CurrentPassword: current,
			NewPassword:     next,
		})
		s.Require().NoError(err)
		current = next
	}

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: current,
		NewPassword:     testPassword,
	})
	s.NoError(err)

	account, findErr := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(findErr)
	s.Len(account.SecretHistory, models.SecretHistoryLimit)
}

func (s *serviceSuite) TestChangePasswordClearsForceReset() {
	s.register("alice", testPassword)
	s.authorize("alice")

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.accounts.UpdateAuthState(s.ctx, account.ID, func(a *models.Account) error {
		a.ForceSecretReset = true
		return nil
	})
	s.Require().NoError(err)

	claims := s.sessionFor("alice", testPassword)
	view, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: testPassword,
		NewPassword:     "Moonlight#77up",
	})
	s.Require().NoError(err)
	s.False(view.ForceSecretReset)
}

func (s *serviceSuite) TestUpdateProfileDoesNotClobberConcurrentLockout() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)

	// A failed-login transition commits while the profile update holds a
	// snapshot read before it.
	raced := &raceDirectory{Directory: s.accounts, afterFind: func() {
		_, err := s.accounts.UpdateAuthState(s.ctx, account.ID, func(a *models.Account) error {
			a.FailedAttempts = 3
			return nil
		})
		s.Require().NoError(err)
	}}
	recorder := audit.NewRecorder(s.events, audit.WithClock(s.clock))
	svc := New(raced, s.hasher, s.issuer, recorder, WithClock(s.clock))

	_, err = svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		DisplayName: "Alice A.",
	})
	s.Require().NoError(err)

	got, err := s.accounts.FindByID(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Equal("Alice A.", got.DisplayName)
	s.Equal(3, got.FailedAttempts, "committed failure counter must survive the profile write")
}

func (s *serviceSuite) TestChangePasswordConflictsWithConcurrentReset() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)

	resetDigest, err := s.hasher.Hash("Temporary#9reset")
	s.Require().NoError(err)

	// An admin reset lands after the current password was verified but
	// before the change commits.
	raced := &raceDirectory{Directory: s.accounts, afterFind: func() {
		_, err := s.accounts.UpdateAuthState(s.ctx, account.ID, func(a *models.Account) error {
			a.SecretDigest = resetDigest
			return nil
		})
		s.Require().NoError(err)
	}}
	recorder := audit.NewRecorder(s.events, audit.WithClock(s.clock))
	svc := New(raced, s.hasher, s.issuer, recorder, WithClock(s.clock))

	_, err = svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		CurrentPassword: testPassword,
		NewPassword:     "Moonlight#77up",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := s.accounts.FindByID(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Equal(resetDigest, got.SecretDigest, "the concurrent reset wins")
}

func (s *serviceSuite) TestUpdateProfileNoChanges() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	_, err := s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *serviceSuite) TestUpdateProfileTokenForDeletedAccount() {
	s.register("alice", testPassword)
	s.authorize("alice")
	claims := s.sessionFor("alice", testPassword)

	account, err := s.accounts.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Delete(s.ctx, account.ID))

	_, err = s.svc.UpdateProfile(s.ctx, claims, models.UpdateProfileRequest{
		DisplayName: "Ghost",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}
