// Package credentials defines the key-value store that holds the operator
// session, the keys it uses, and helpers that read and write a session as a
// unit. Durable storage lives in internal/repo; MemoryStore serves tests and
// the CLI's ephemeral mode.
package credentials

import (
	"context"
	"errors"
	"sync"
)

// Store keys. They match the keys the mobile client persisted, so a store
// can be shared between clients.
const (
	KeyAccessToken = "accessToken"
	KeyUserInfo    = "userInfo"
	KeyUserID      = "userId"
	KeyUserRole    = "userRole"
)

// SessionKeys are removed together on logout or forced session invalidation.
var SessionKeys = []string{KeyAccessToken, KeyUserInfo, KeyUserID, KeyUserRole}

// ErrEmptyKey is returned for blank keys.
var ErrEmptyKey = errors.New("credentials: empty key")

// Store is an asynchronous string key-value store. Get reports absence with
// ok=false. SetMany and Remove apply all keys or none.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, kv map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}

// ConditionalRemover is implemented by stores that can remove keys only while
// guardKey still holds expected, as one atomic step.
type ConditionalRemover interface {
	RemoveIf(ctx context.Context, guardKey, expected string, keys ...string) (bool, error)
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *MemoryStore) SetMany(ctx context.Context, kv map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for k := range kv {
		if k == "" {
			return ErrEmptyKey
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range kv {
		s.m[k] = v
	}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

// RemoveIf implements ConditionalRemover.
func (s *MemoryStore) RemoveIf(ctx context.Context, guardKey, expected string, keys ...string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.m[guardKey]; !ok || cur != expected {
		return false, nil
	}
	for _, k := range keys {
		delete(s.m, k)
	}
	return true, nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
