package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "custodia/pkg/domain"
	"custodia/pkg/requestcontext"
)

// Claims is the resolved identity the core trusts as initiator or logging
// officer. The core performs no authentication itself; the validator is the
// external identity collaborator's contract.
type Claims struct {
	UserID      id.UserID
	Role        string
	DisplayName string
	Email       string
}

// TokenValidator resolves a bearer credential to an identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","message":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and injects the
// resolved identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := requestcontext.WithIdentity(r.Context(), claims.UserID, claims.Role, claims.DisplayName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route group on the authenticated role. Must run after
// RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requestcontext.Role(r.Context()) != role {
				writeJSONError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
