package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"landledger/internal/access"
	"landledger/internal/platform/jwtauth"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwtauth.Claims, error)
}

type contextKeyCaller struct{}

// CallerFrom returns the authenticated caller stored by RequireAuth. The zero
// Caller (role PUBLIC) is returned on unauthenticated requests.
func CallerFrom(ctx context.Context) access.Caller {
	caller, ok := ctx.Value(contextKeyCaller{}).(access.Caller)
	if !ok {
		return access.Caller{Role: access.RolePublic}
	}
	return caller
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved caller in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized request, missing bearer token", "path", r.URL.Path)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request, token rejected", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			caller := access.NewCaller(claims.Subject, claims.Org)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyCaller{}, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","errorDescription":"` + description + `"}`))
}
