package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-auth-api/common"
	"go-auth-api/model"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserRolesKey contextKey = "userRoles"
)

// TokenParser verifies access tokens.
type TokenParser interface {
	ParseAccessToken(tokenString string) (*model.AppClaims, error)
}

// AuthMiddleware rejects requests without a valid bearer token. An expired
// token is answered with code token.expired so clients know to refresh;
// every other failure is token.invalid.
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				common.NewAppError(http.StatusUnauthorized, model.CodeTokenInvalid, "Authorization header is required", nil).Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				common.NewAppError(http.StatusUnauthorized, model.CodeTokenInvalid, "Invalid authorization header format", nil).Send(w)
				return
			}

			claims, err := parser.ParseAccessToken(headerParts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					common.NewAppError(http.StatusUnauthorized, model.CodeTokenExpired, "Access token expired", nil).Send(w)
					return
				}
				common.NewAppError(http.StatusUnauthorized, model.CodeTokenInvalid, "Invalid token", nil).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRolesKey, claims.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
