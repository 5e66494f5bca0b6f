package externalprovider

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// StateStore keeps OAuth2 state values, with the PKCE verifier issued
// alongside each one, between the redirect and the callback
type StateStore interface {
	Save(state, verifier string, ttl time.Duration) error
	// Consume returns the verifier saved with state if it is still live. A
	// state is accepted at most once.
	Consume(state string) (string, bool)
}

// CacheStateStore is an in-process StateStore on a ristretto cache. States
// expire through the cache TTL.
type CacheStateStore struct {
	mu    sync.Mutex
	cache *ristretto.Cache[string, string]
}

// NewCacheStateStore creates a state store sized for pending sign-ins
func NewCacheStateStore() (*CacheStateStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create state cache: %w", err)
	}
	return &CacheStateStore{cache: cache}, nil
}

func (s *CacheStateStore) Save(state, verifier string, ttl time.Duration) error {
	if !s.cache.SetWithTTL(state, verifier, 1, ttl) {
		return fmt.Errorf("state %q was dropped by the cache", state)
	}
	s.cache.Wait()
	return nil
}

func (s *CacheStateStore) Consume(state string) (string, bool) {
	if state == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	verifier, ok := s.cache.Get(state)
	if !ok {
		return "", false
	}
	s.cache.Del(state)
	return verifier, true
}

// Close releases the cache goroutines
func (s *CacheStateStore) Close() {
	s.cache.Close()
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
