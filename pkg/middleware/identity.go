package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Cesar4422/proyecto-mau/pkg/httputil"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// Headers set by the gateway once it has authenticated the caller.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type contextKeyType string

const roleKey contextKeyType = "role"

// Identity copies the gateway identity headers into the request context.
// Requests without an X-User-ID are rejected with 401.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if actor == "" {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "missing " + HeaderUserID + " header"},
			})
			return
		}

		ctx := logger.WithActorID(r.Context(), actor)
		if role := strings.TrimSpace(r.Header.Get(HeaderUserRole)); role != "" {
			ctx = context.WithValue(ctx, roleKey, strings.ToLower(role))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role is not one of roles with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "insufficient permissions"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorIDFromContext returns the caller id set by Identity.
func ActorIDFromContext(ctx context.Context) string {
	return logger.ActorIDFromContext(ctx)
}

// RoleFromContext returns the caller role set by Identity, lower-cased.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
