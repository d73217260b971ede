package storefake

import (
	"sync"

	"github.com/jrsteele09/go-bizadmin-client/token"
)

var _ token.Store = (*FakeTokenStore)(nil)

// FakeTokenStore is an in-memory token.Store. FailWrites makes Set return the given error.
type FakeTokenStore struct {
	values     map[string]string
	writes     int
	FailWrites error
	lock       sync.RWMutex
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{
		values: make(map[string]string),
	}
}

// NewFakeTokenStoreWith returns a store seeded with the given pair.
func NewFakeTokenStoreWith(access, refresh string) *FakeTokenStore {
	s := NewFakeTokenStore()
	if access != "" {
		s.values[token.AccessTokenKey] = access
	}
	if refresh != "" {
		s.values[token.RefreshTokenKey] = refresh
	}
	return s
}

func (s *FakeTokenStore) Get(key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values[key], nil
}

func (s *FakeTokenStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.values[key] = value
	s.writes++
	return nil
}

func (s *FakeTokenStore) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, key)
	return nil
}

// Len is the number of keys currently held.
func (s *FakeTokenStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.values)
}

// Writes counts successful Set calls.
func (s *FakeTokenStore) Writes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.writes
}
