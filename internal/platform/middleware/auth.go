package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gatekeeper/internal/token"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
)

type claimsKey struct{}

// GetClaims retrieves the verified session claims from the context.
// Returns nil when the request did not pass RequireSession.
func GetClaims(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*token.Claims)
	return claims
}

// WithClaims stores verified claims in the context.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// RequireSession validates the bearer token on every request and stores
// the verified claims in the context. All rejection paths return the same
// generic unauthorized body; the reason is only logged.
func RequireSession(issuer *token.Issuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access, missing bearer token",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "missing or invalid Authorization header"))
				return
			}

			claims, err := issuer.Verify(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, rejected token",
					"error", err,
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired session"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}
