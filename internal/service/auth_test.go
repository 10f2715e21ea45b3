package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/infra/observability"
	"github.com/fisapp/receipt-bff-go/internal/service"
	"github.com/fisapp/receipt-bff-go/internal/session"

	"go.uber.org/zap"
)

type mockAuthenticator struct {
	session *domain.Session
	user    *domain.User
	err     error
	meCalls int
}

func (m *mockAuthenticator) Login(_ context.Context, _, _ string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockAuthenticator) Register(_ context.Context, _, _, _ string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockAuthenticator) Me(_ context.Context, _ string) (*domain.User, error) {
	m.meCalls++
	return m.user, m.err
}

func newAuthService(auth *mockAuthenticator) (*service.AuthService, *session.Store) {
	sessions := session.NewStore(30 * time.Minute)
	return service.NewAuthService(auth, sessions, observability.NewMetrics(), zap.NewNop()), sessions
}

func TestLogin_CachesSession(t *testing.T) {
	auth := &mockAuthenticator{session: &domain.Session{
		Token: "tok-123",
		User:  domain.User{ID: "u-1", Name: "Ana", Email: "ana@example.com"},
	}}
	svc, sessions := newAuthService(auth)

	sess, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.User.ID != "u-1" {
		t.Errorf("expected user u-1, got %q", sess.User.ID)
	}

	if _, ok := sessions.Load("tok-123"); !ok {
		t.Error("expected session to be cached after login")
	}
}

func TestLogin_RejectsEmptyCredentials(t *testing.T) {
	svc, _ := newAuthService(&mockAuthenticator{})

	_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "  ", Password: "x"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Login(context.Background(), &domain.LoginRequest{Email: "a@b.c", Password: ""})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegister_RequiresName(t *testing.T) {
	svc, _ := newAuthService(&mockAuthenticator{})

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "a@b.c",
		Password: "secret",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolve_CacheHitSkipsBackend(t *testing.T) {
	auth := &mockAuthenticator{}
	svc, sessions := newAuthService(auth)
	sessions.Save("tok-abc", domain.User{ID: "u-1"})

	sess, err := svc.Resolve(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.User.ID != "u-1" {
		t.Errorf("expected user u-1, got %q", sess.User.ID)
	}
	if auth.meCalls != 0 {
		t.Errorf("expected no backend call on cache hit, got %d", auth.meCalls)
	}
}

func TestResolve_MissFallsBackToBackend(t *testing.T) {
	auth := &mockAuthenticator{user: &domain.User{ID: "u-2", Email: "b@example.com"}}
	svc, sessions := newAuthService(auth)

	sess, err := svc.Resolve(context.Background(), "tok-new")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.User.ID != "u-2" {
		t.Errorf("expected user u-2, got %q", sess.User.ID)
	}
	if auth.meCalls != 1 {
		t.Errorf("expected 1 backend call, got %d", auth.meCalls)
	}
	if _, ok := sessions.Load("tok-new"); !ok {
		t.Error("expected resolved session to be cached")
	}
}

func TestResolve_RejectedTokenForcesLogout(t *testing.T) {
	auth := &mockAuthenticator{err: &domain.ErrUnauthorized{Message: "token expired"}}
	svc, sessions := newAuthService(auth)

	if _, err := svc.Resolve(context.Background(), "tok-dead"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := sessions.Load("tok-dead"); ok {
		t.Error("expected session to be cleared after backend rejection")
	}
	if sessions.Len() != 0 {
		t.Errorf("expected empty session store, got %d entries", sessions.Len())
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	svc, sessions := newAuthService(&mockAuthenticator{})
	sessions.Save("tok-x", domain.User{ID: "u-1"})

	svc.Logout(context.Background(), "tok-x")
	if _, ok := sessions.Load("tok-x"); ok {
		t.Error("expected session to be cleared on logout")
	}
}
