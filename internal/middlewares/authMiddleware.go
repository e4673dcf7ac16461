package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"patisserie/internal/auth"
	"patisserie/internal/common"
	"patisserie/internal/models"
	"patisserie/internal/utils"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the verified token claims stored by Auth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// Auth verifies the bearer token and stores its claims in the request
// context. Expired tokens get their own message so clients know to
// re-authenticate rather than retry.
func Auth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				utils.SendJSONError(w, "Invalid token format", http.StatusUnauthorized)
				return
			}
			tokenString := header[len("Bearer "):]

			claims, err := issuer.Verify(tokenString)
			if err != nil {
				if errors.Is(err, common.ErrTokenExpired) {
					utils.SendJSONError(w, "Token expired", http.StatusUnauthorized)
					return
				}
				utils.SendJSONError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the admin role claim. Must run inside Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
			return
		}
		if claims.UserRole() != models.RoleAdmin {
			utils.SendJSONError(w, "Admin privileges required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
