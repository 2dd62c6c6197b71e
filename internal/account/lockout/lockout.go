// Package lockout implements the failed-attempt state machine. The
// functions are pure transitions over an account snapshot; persistence is
// the caller's concern and must happen inside a single atomic
// read-modify-write so concurrent attempts against one account cannot lose
// counter updates.
package lockout

import (
	"time"

	"gatekeeper/internal/account/models"
)

const (
	// FailureThreshold is the failed-attempt count at which an account
	// transitions to Locked.
	FailureThreshold = 5

	// LockDuration is how long a system-imposed lock lasts. Expiry is
	// evaluated lazily at the next authentication attempt; there is no
	// background sweeper.
	LockDuration = 30 * time.Minute
)

// RecordFailure applies a failed authentication to the account and reports
// whether this failure triggered the lock transition. The counter is
// preserved through the locked period; only a successful login or an
// administrator reset clears it.
//
// The caller must not invoke this for accounts whose effective status is
// already Locked or Blocked: those attempts are rejected outright without
// re-incrementing.
func RecordFailure(a *models.Account, now time.Time) (locked bool) {
	a.FailedAttempts++
	if a.FailedAttempts >= FailureThreshold {
		expiry := now.Add(LockDuration)
		a.Locked = true
		a.LockExpiry = &expiry
		return true
	}
	return false
}

// RecordSuccess applies a successful authentication: the counter resets and
// any lock state is cleared, including a lock whose expiry had already
// passed.
func RecordSuccess(a *models.Account) {
	a.FailedAttempts = 0
	a.Locked = false
	a.LockExpiry = nil
}

// AdminReset clears lock state and the failed-attempt counter without
// touching the authorization or blocked flags. Idempotent.
func AdminReset(a *models.Account) {
	a.FailedAttempts = 0
	a.Locked = false
	a.LockExpiry = nil
}
