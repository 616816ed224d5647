package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/token"
)

// contextKey is a value for use with context.WithValue. It's used as a
// pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "tenant-idm context value " + k.name
}

var claimsKey = &contextKey{"Claims"}

// Verifier extracts the bearer token, verifies it through the session
// issuer, and stores the claim set on the request context. Every
// verification failure is a single generic 401.
func Verifier(issuer token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := jwtauth.TokenFromHeader(r)
			if tokenStr == "" {
				tokenStr = jwtauth.TokenFromCookie(r)
			}
			if tokenStr == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, map[string]string{"message": "authentication token required"})
				return
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, map[string]string{"message": "invalid or expired token"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claim set stored by Verifier.
func ClaimsFromContext(ctx context.Context) (rbac.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(rbac.Claims)
	return claims, ok
}

// RequireInternal rejects requests whose claims are not scoped to the
// operating organization. Tenant-scoped sessions never see the review
// surface, regardless of the roles they carry.
func RequireInternal() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.IsInternal() {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]string{"message": "insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles rejects requests whose claims carry none of the given
// roles.
func RequireRoles(roles ...rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.RoleSet().ContainsAny(roles...) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]string{"message": "insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
