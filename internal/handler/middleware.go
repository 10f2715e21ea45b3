package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionGuard validates Bearer tokens and injects the resolved session
// into the request context. A token the backend no longer accepts gets a
// 401 and its cached session is cleared, so the client logs out instead
// of retrying with dead credentials.
func SessionGuard(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "authentication token not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			token := parts[1]
			if tokenExpiredLocally(token) {
				logger.Warn("auth: token expired", zap.String("path", r.URL.Path))
				authSvc.ForceLogout(token)
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}

			sess, err := authSvc.Resolve(r.Context(), token)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the authenticated session from context.
func SessionFromContext(ctx context.Context) *domain.Session {
	v, _ := ctx.Value(sessionKey).(*domain.Session)
	return v
}

// tokenFromContext returns the bearer token of the authenticated
// session, or empty outside the guarded group.
func tokenFromContext(ctx context.Context) string {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Token
	}
	return ""
}

// tokenExpiredLocally checks the exp claim of JWT-shaped tokens without
// verifying the signature, which belongs to the backend. Opaque tokens
// and unparseable ones pass through to the backend's verdict.
func tokenExpiredLocally(token string) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
