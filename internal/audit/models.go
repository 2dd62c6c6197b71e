package audit

import (
	"time"

	"gatekeeper/pkg/domain"
)

// Action is the closed enumeration of security-relevant actions. Every
// state-changing operation in the engine produces exactly one event, and
// authentication attempts produce one whether or not the account exists.
type Action string

const (
	ActionRegistration         Action = "registration"
	ActionLoginSuccess         Action = "login_success"
	ActionLoginFailedUnknown   Action = "login_failed_unknown"
	ActionLoginFailedBadSecret Action = "login_failed_bad_secret"
	ActionLoginFailedLocked    Action = "login_failed_locked"
	ActionLoginFailedBlocked   Action = "login_failed_blocked"
	ActionLoginFailedPending   Action = "login_failed_pending"
	ActionProfileUpdated       Action = "profile_updated"
	ActionAdminAuthorize       Action = "admin_authorize"
	ActionAdminBlock           Action = "admin_block"
	ActionAdminResetPassword   Action = "admin_reset_password"
	ActionAdminDelete          Action = "admin_delete"
)

// Event is an immutable record of one security-relevant action. It is
// never updated or deleted after creation. Keep it transport-agnostic so
// stores can fan out.
type Event struct {
	ID domain.EventID `json:"id"`

	// AccountID is the actor: the account logging in, updating its
	// profile, or (for admin actions) the administrator performing the
	// operation. Nil for failed lookups of unknown usernames.
	AccountID *domain.AccountID `json:"account_id,omitempty"`

	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin,omitempty"`
	Success   bool      `json:"success"`

	// Detail carries free-form structured context: the attempted
	// username on unknown-user failures, the target account on admin
	// operations, the fields changed on a profile update.
	Detail map[string]string `json:"detail,omitempty"`
}
