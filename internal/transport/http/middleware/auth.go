package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gaman_backend/internal/httputil"
)

type contextKey string

// UserIDKey holds the authenticated person's ID in the request context.
const UserIDKey contextKey = "user_id"

const userHolderKey contextKey = "user_holder"

type userHolder struct {
	id int64
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}

// AuthMiddleware validates an HS256 bearer token issued by the identity
// provider and puts its user_id claim in the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "missing authentication token")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					httputil.WriteUnauthorized(w, "access token has expired")
					return
				}
				httputil.WriteUnauthorized(w, "invalid authentication token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				httputil.WriteUnauthorized(w, "invalid authentication token")
				return
			}

			userIDFloat, ok := claims["user_id"].(float64)
			if !ok || userIDFloat <= 0 {
				httputil.WriteUnauthorized(w, "invalid token claims")
				return
			}

			userID := int64(userIDFloat)
			if h, ok := r.Context().Value(userHolderKey).(*userHolder); ok {
				h.id = userID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token cookie used by web clients.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if c, err := r.Cookie("access_token"); err == nil {
		return c.Value
	}
	return ""
}

// GetUserIDFromContext returns the authenticated person's ID.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
