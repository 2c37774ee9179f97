package verify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"gatekeep/logging"
)

// DefaultTokenTTL bounds how long an issued verification link stays valid.
const DefaultTokenTTL = 10 * time.Minute

// Binding records what a state token was issued for.
type Binding struct {
	// Principal is the identity the token is pinned to, or empty for an
	// unbound token that any account may complete.
	Principal string
	IssuedAt  time.Time
}

// Store issues single-use correlation tokens and redeems them at most once.
// Tokens not consumed within the TTL become invalid even if the background
// sweep hasn't collected them yet.
type Store struct {
	mu      sync.Mutex
	tokens  map[string]Binding
	ttl     time.Duration
	nowFunc func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTokenTTL overrides the default token lifetime.
func WithTokenTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// NewStore returns an empty in-memory token store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		tokens:  map[string]Binding{},
		ttl:     DefaultTokenTTL,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a new opaque token bound to principal. An empty principal
// issues an unbound token.
func (s *Store) Issue(principal string) string {
	token := generateToken()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = Binding{Principal: principal, IssuedAt: s.nowFunc()}
	return token
}

// TryConsume redeems a token, returning its binding and whether it was live.
// The token is removed regardless of outcome, so concurrent redemptions of
// the same token see at most one success. Expired tokens fail here even if
// the sweep hasn't run.
func (s *Store) TryConsume(token string) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.tokens[token]
	if !ok {
		return Binding{}, false
	}
	delete(s.tokens, token)
	if s.nowFunc().Sub(b.IssuedAt) > s.ttl {
		return Binding{}, false
	}
	return b, true
}

// Len reports the number of outstanding tokens.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// RunEviction sweeps expired tokens every interval until ctx is canceled.
// The sweep only bounds memory; correctness never depends on it.
func (s *Store) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictExpired(); n > 0 {
				logging.Debugw(ctx, "evicted expired verification tokens", "count", n)
			}
		}
	}
}

func (s *Store) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	evicted := 0
	for token, b := range s.tokens {
		if now.Sub(b.IssuedAt) > s.ttl {
			delete(s.tokens, token)
			evicted++
		}
	}
	return evicted
}

// generateToken returns 32 bytes of hex-encoded entropy.
func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("verify: failed to read entropy: " + err.Error())
	}
	return hex.EncodeToString(b)
}
