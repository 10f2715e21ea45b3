// Package session is the single session-management module: every read or
// write of the authenticated user/token pair goes through it instead of
// being scattered across view code.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/infra/cache"
)

// Store holds sessions in an in-memory TTL cache, keyed by a digest of
// the bearer token so raw credentials never sit in map keys.
type Store struct {
	cache *cache.InMemory[domain.Session]
}

// NewStore creates a session store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: cache.New[domain.Session](ttl)}
}

// Save persists the user/token pair.
func (s *Store) Save(token string, user domain.User) {
	s.cache.Set(hashToken(token), domain.Session{Token: token, User: user})
}

// Load returns the session for a token, or false when absent or expired.
func (s *Store) Load(token string) (domain.Session, bool) {
	return s.cache.Get(hashToken(token))
}

// Clear removes the session. Called on logout and whenever the backend
// rejects the token.
func (s *Store) Clear(token string) {
	s.cache.Delete(hashToken(token))
}

// Len reports how many live sessions are cached (health signal only).
func (s *Store) Len() int {
	return s.cache.Len()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
