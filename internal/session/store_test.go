package session_test

import (
	"testing"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/session"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := session.NewStore(time.Minute)
	user := domain.User{ID: "u-1", Name: "Ana", Email: "ana@example.com"}

	store.Save("tok-123", user)

	sess, ok := store.Load("tok-123")
	if !ok {
		t.Fatal("expected session to be present")
	}
	if sess.Token != "tok-123" {
		t.Errorf("expected token tok-123, got %q", sess.Token)
	}
	if sess.User != user {
		t.Errorf("expected user %+v, got %+v", user, sess.User)
	}
}

func TestStore_ClearThenLoadAbsent(t *testing.T) {
	store := session.NewStore(time.Minute)
	store.Save("tok-123", domain.User{ID: "u-1"})

	store.Clear("tok-123")

	if _, ok := store.Load("tok-123"); ok {
		t.Fatal("expected session to be absent after clear")
	}
	if store.Len() != 0 {
		t.Errorf("expected 0 live sessions, got %d", store.Len())
	}
}

func TestStore_UnknownTokenAbsent(t *testing.T) {
	store := session.NewStore(time.Minute)

	if _, ok := store.Load("never-saved"); ok {
		t.Fatal("expected unknown token to be absent")
	}
}

func TestStore_ExpiredSessionAbsent(t *testing.T) {
	store := session.NewStore(10 * time.Millisecond)
	store.Save("tok-123", domain.User{ID: "u-1"})

	time.Sleep(30 * time.Millisecond)

	if _, ok := store.Load("tok-123"); ok {
		t.Fatal("expected session to expire")
	}
}
