package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Tebogokaulela455/psa/utils"
)

// AuthMiddleware requires a valid bearer token and puts the user id and claims
// into the request context.
func AuthMiddleware(tokens *utils.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))

			claims, err := tokens.Validate(r.Context(), tokenStr)
			if err != nil {
				msg := "Invalid token"
				switch {
				case errors.Is(err, utils.ErrTokenExpired):
					msg = "Session expired, please log in again"
				case errors.Is(err, utils.ErrTokenRevoked):
					msg = "Token has been revoked"
				}
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: msg})
				return
			}

			ctx := context.WithValue(r.Context(), utils.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, utils.ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
