package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/unrolled/secure"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/observability"
	"github.com/msomdec/result-processing/internal/service"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext extracts the verified token claims from the request
// context. Returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) domain.Claims {
	claims, _ := ctx.Value(claimsContextKey).(domain.Claims)
	return claims
}

// RequireAuth is middleware that protects routes requiring authentication.
// It expects an Authorization header of exactly two space-separated parts
// and verifies the second as a bearer token. The scheme word is not
// checked. Every failure responds 401.
func RequireAuth(tokens *service.TokenService, metrics *observability.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			reject(w, r, metrics, observability.ReasonMissingHeader)
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[1] == "" {
			reject(w, r, metrics, observability.ReasonMalformed)
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			reason := observability.ReasonInvalidToken
			if errors.Is(err, domain.ErrTokenExpired) {
				reason = observability.ReasonExpiredToken
			}
			reject(w, r, metrics, reason)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func reject(w http.ResponseWriter, r *http.Request, metrics *observability.Metrics, reason string) {
	metrics.AuthRejected(reason)
	slog.Debug("request rejected", "path", r.URL.Path, "reason", reason)
	writeError(w, http.StatusUnauthorized, msgForbiddenAccess)
}

// RequireRole is middleware that admits only callers whose own user record
// holds one of roles. It must run after RequireAuth.
func RequireRole(authority *service.RoleAuthority, metrics *observability.Metrics, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authority.Authorize(r.Context(), ClaimsFromContext(r.Context()), roles...); err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					metrics.AuthRejected(observability.ReasonForbidden)
				}
				writeServiceError(w, err, "check caller role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the standard hardening headers. In production plain
// HTTP requests are redirected to HTTPS.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}).Handler
}
