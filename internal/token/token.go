// Package token mints and verifies the signed bearer tokens that carry
// session claims. The issuer owns no durable state: tokens are valid until
// natural expiry and logout is purely client-side discarding. That is an
// accepted limitation of the design, not a defect.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatekeeper/internal/account/models"
	dErrors "gatekeeper/pkg/domain-errors"
)

// DefaultTTL is the fixed validity window when none is configured.
const DefaultTTL = 12 * time.Hour

// Claims is the decoded, verified payload of a bearer token.
type Claims struct {
	AccountID        string      `json:"account_id"`
	Username         string      `json:"username"`
	Role             models.Role `json:"role"`
	ForceSecretReset bool        `json:"force_secret_reset"`
	jwt.RegisteredClaims
}

// Privileged reports whether the holder carries the privileged role.
func (c *Claims) Privileged() bool {
	return c.Role == models.RolePrivileged
}

// Issuer signs and verifies session tokens with a process-wide secret that
// is constant after startup.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer constructs an Issuer. A non-positive ttl falls back to
// DefaultTTL.
func NewIssuer(signingKey string, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	iss := &Issuer{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss
}

// Issue mints a signed token binding the account's identity, role, and
// force-secret-reset flag to a fixed expiry horizon from issuance time.
func (i *Issuer) Issue(a *models.Account) (string, error) {
	now := i.now()
	claims := Claims{
		AccountID:        a.ID.String(),
		Username:         a.Username,
		Role:             a.Role,
		ForceSecretReset: a.ForceSecretReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign session token")
	}
	return signed, nil
}

// Verify parses and validates a token. Every failure mode - bad signature,
// wrong algorithm, malformed claims, expiry - collapses into a single
// unauthenticated error so callers cannot build partial trust on a rejected
// token.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errUnauthenticated()
	}

	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "unexpected signing algorithm")
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, errUnauthenticated()
	}
	return claims, nil
}

func errUnauthenticated() error {
	return dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired session")
}
