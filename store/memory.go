package store

import (
	"context"
	"time"

	"go-auth-api/client"

	gocache "github.com/patrickmn/go-cache"
)

type memoryEntry struct {
	value string
	path  string
}

// MemoryStore keeps credentials in process memory. It suits CLIs, workers
// and tests.
type MemoryStore struct {
	cache *gocache.Cache
	scope string
}

// NewMemoryStore returns a store that reads at scope (empty means "/").
func NewMemoryStore(scope string) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
		scope: pathOrRoot(scope),
	}
}

func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	v, ok := s.cache.Get(name)
	if !ok {
		return "", client.ErrNoCredential
	}
	entry := v.(memoryEntry)
	if !visible(entry.path, s.scope) {
		return "", client.ErrNoCredential
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, name, value string, opts client.SetOptions) error {
	expiration := opts.MaxAge
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	s.cache.Set(name, memoryEntry{value: value, path: pathOrRoot(opts.Path)}, expiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.cache.Delete(name)
	return nil
}
