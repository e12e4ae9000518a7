package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const UserIDKey contextKey = "userID"

// SessionValidator reports whether the session behind an access token is
// still live (exists, not revoked, not expired).
type SessionValidator interface {
	ValidateSession(ctx context.Context, accessToken string) error
}

// Middleware validates the bearer JWT and checks the session has not been
// revoked before putting the user id on the request context.
func Middleware(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logrus.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"ip":     r.RemoteAddr,
			})

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := ValidateToken(tokenStr)
			if err != nil {
				log.WithError(err).Warn("auth middleware: token validation failed")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if err := sessions.ValidateSession(r.Context(), tokenStr); err != nil {
				log.WithError(err).Warn("auth middleware: session check failed")
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}

			log.WithField("user_id", claims.UserID).Debug("auth middleware: user authenticated")
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
