package models

import (
	"strings"

	dErrors "gatekeeper/pkg/domain-errors"
)

// RegisterRequest is the input for account registration. Username and
// password policy is enforced by the policy engine in the service layer;
// request validation here only guards required fields.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`

	// Origin is the caller's network address, filled in by the transport
	// layer for audit attribution. Never decoded from the request body.
	Origin string `json:"-"`
}

// Sanitize trims surrounding whitespace from identity fields. The password
// is left untouched: leading or trailing spaces are part of the secret.
func (r *RegisterRequest) Sanitize() {
	r.Username = strings.TrimSpace(r.Username)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate checks required fields are present.
func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	if r.DisplayName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "display_name is required")
	}
	return nil
}

// LoginRequest is the input for authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	Origin string `json:"-"`
}

// Sanitize trims the username only; the password is significant as-is.
func (r *LoginRequest) Sanitize() {
	r.Username = strings.TrimSpace(r.Username)
}

// Validate checks required fields are present.
func (r *LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "username and password are required")
	}
	return nil
}

// UpdateProfileRequest is the input for self-service profile updates. All
// fields are optional; a password change requires both CurrentPassword and
// NewPassword.
type UpdateProfileRequest struct {
	DisplayName     string `json:"display_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Username        string `json:"username,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`

	Origin string `json:"-"`
}

// Sanitize trims surrounding whitespace from identity fields.
func (r *UpdateProfileRequest) Sanitize() {
	r.Username = strings.TrimSpace(r.Username)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate checks the password-change pair is complete when present.
func (r *UpdateProfileRequest) Validate() error {
	if r.Empty() {
		return dErrors.New(dErrors.CodeInvalidInput, "no fields to update")
	}
	if (r.NewPassword == "") != (r.CurrentPassword == "") {
		return dErrors.New(dErrors.CodeInvalidInput, "password change requires current_password and new_password")
	}
	return nil
}

// Empty reports whether the request carries no changes at all.
func (r *UpdateProfileRequest) Empty() bool {
	return r.DisplayName == "" && r.Email == "" && r.Username == "" &&
		r.CurrentPassword == "" && r.NewPassword == ""
}

// ChangesPassword reports whether the request includes a password change.
func (r *UpdateProfileRequest) ChangesPassword() bool {
	return r.NewPassword != ""
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token            string `json:"token"`
	ForceSecretReset bool   `json:"force_secret_reset"`
}

// RegisterResult is returned on successful registration. PasswordStrength
// is the 0..5 policy score of the accepted password, so clients can nudge
// users toward stronger secrets without a second round trip.
type RegisterResult struct {
	AccountID        string `json:"account_id"`
	PasswordStrength int    `json:"password_strength"`
}
