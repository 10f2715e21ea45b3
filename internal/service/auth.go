package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/infra/observability"
	"github.com/fisapp/receipt-bff-go/internal/port"
	"github.com/fisapp/receipt-bff-go/internal/session"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService fronts the accounts backend and owns the session store.
// Forced logout is a single policy here: any Unauthorized answer from
// the backend clears the cached session, on every path.
type AuthService struct {
	auth     port.Authenticator
	sessions *session.Store
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(auth port.Authenticator, sessions *session.Store, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		auth:     auth,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Login forwards credentials to the backend and caches the session.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	sess, err := s.auth.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.metrics.IncrExternalError("auth")
		return nil, fmt.Errorf("login: %w", err)
	}

	s.sessions.Save(sess.Token, sess.User)
	s.logger.Info("user logged in", zap.String("user_id", sess.User.ID))
	return sess, nil
}

// Register forwards the registration and caches the initial session.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if strings.TrimSpace(req.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	sess, err := s.auth.Register(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.metrics.IncrExternalError("auth")
		return nil, fmt.Errorf("register: %w", err)
	}

	s.sessions.Save(sess.Token, sess.User)
	s.logger.Info("user registered", zap.String("user_id", sess.User.ID))
	return sess, nil
}

// Resolve returns the session for a bearer token: session-cache fast
// path, backend /me fallback. A rejected token clears the session.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Resolve")
	defer span.End()

	if sess, ok := s.sessions.Load(token); ok {
		s.metrics.IncrCacheHit("session")
		return &sess, nil
	}
	s.metrics.IncrCacheMiss("session")

	user, err := s.auth.Me(ctx, token)
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			s.ForceLogout(token)
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	s.sessions.Save(token, *user)
	return &domain.Session{Token: token, User: *user}, nil
}

// Logout discards the session. The backend token itself is opaque to us
// and simply stops being cached.
func (s *AuthService) Logout(_ context.Context, token string) {
	s.sessions.Clear(token)
}

// ForceLogout clears a session after the backend rejected its token.
func (s *AuthService) ForceLogout(token string) {
	s.sessions.Clear(token)
	s.logger.Warn("session cleared after backend rejected token")
}

// clearSessionOnUnauthorized applies the forced-logout policy outside
// AuthService: when any store call comes back Unauthorized, the cached
// session is discarded so /me stops answering from stale cache.
func clearSessionOnUnauthorized(sessions *session.Store, logger *zap.Logger, token string, err error) {
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		return
	}
	sessions.Clear(token)
	logger.Warn("session cleared after backend rejected token")
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	if password == "" {
		return &domain.ErrValidation{Field: "password", Message: "password is required"}
	}
	return nil
}
