package models

import (
	"time"

	"gatekeeper/pkg/domain"
)

// Role is the closed set of roles an account can hold.
type Role string

const (
	RoleStandard   Role = "standard"
	RolePrivileged Role = "privileged"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RolePrivileged
}

// Status is the resolved access state derived from the independent
// authorization, lock, and block flags. Precedence: Blocked > Locked >
// (Active if authorized else Pending).
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusLocked  Status = "locked"
	StatusBlocked Status = "blocked"
)

// SecretHistoryLimit bounds how many prior digests are retained per account.
const SecretHistoryLimit = 5

// Account is the authoritative identity record. The raw secret is never
// stored; only its digest and a bounded history of prior digests.
//
// Flags are independent in the data model: Authorized is granted by an
// administrator, Blocked is imposed by an administrator, Locked is imposed
// by the lockout state machine after repeated failures. Store
// implementations normalize whatever the column representation is into
// these canonical booleans; transport quirks must not leak past the store.
type Account struct {
	ID           domain.AccountID
	Username     string
	SecretDigest string
	DisplayName  string
	Email        string
	Role         Role

	Authorized bool
	Blocked    bool
	Locked     bool
	// LockExpiry is set for time-bounded system locks and nil for
	// indefinite ones. It is meaningless when Locked is false.
	LockExpiry     *time.Time
	FailedAttempts int

	// SecretHistory holds prior digests, oldest first, most recent last,
	// capped at SecretHistoryLimit with the oldest evicted on overflow.
	SecretHistory    []string
	SecretChangedAt  time.Time
	ForceSecretReset bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveStatus resolves the access state at the given instant. A lock
// whose expiry has passed no longer counts as Locked; clearing the stale
// flag is left to the next successful login or an administrator reset.
func (a *Account) EffectiveStatus(now time.Time) Status {
	switch {
	case a.Blocked:
		return StatusBlocked
	case a.Locked && (a.LockExpiry == nil || now.Before(*a.LockExpiry)):
		return StatusLocked
	case a.Authorized:
		return StatusActive
	default:
		return StatusPending
	}
}

// PushSecretHistory appends a digest to the history, evicting the oldest
// entry when the bound is exceeded.
func (a *Account) PushSecretHistory(digest string) {
	a.SecretHistory = append(a.SecretHistory, digest)
	if len(a.SecretHistory) > SecretHistoryLimit {
		a.SecretHistory = a.SecretHistory[len(a.SecretHistory)-SecretHistoryLimit:]
	}
}

// Clone returns a deep copy so store implementations never hand out aliased
// mutable state.
func (a *Account) Clone() *Account {
	cp := *a
	if a.LockExpiry != nil {
		t := *a.LockExpiry
		cp.LockExpiry = &t
	}
	if a.SecretHistory != nil {
		cp.SecretHistory = append([]string(nil), a.SecretHistory...)
	}
	return &cp
}

// View is the external representation of an account. It carries no secret
// material and is safe to return from list and profile endpoints.
type View struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	Email            string `json:"email,omitempty"`
	Role             Role   `json:"role"`
	Status           Status `json:"status"`
	Authorized       bool   `json:"authorized"`
	Blocked          bool   `json:"blocked"`
	FailedAttempts   int    `json:"failed_attempts"`
	ForceSecretReset bool   `json:"force_secret_reset"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// NewView projects an account into its external representation.
func NewView(a *Account, now time.Time) View {
	return View{
		ID:               a.ID.String(),
		Username:         a.Username,
		DisplayName:      a.DisplayName,
		Email:            a.Email,
		Role:             a.Role,
		Status:           a.EffectiveStatus(now),
		Authorized:       a.Authorized,
		Blocked:          a.Blocked,
		FailedAttempts:   a.FailedAttempts,
		ForceSecretReset: a.ForceSecretReset,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
