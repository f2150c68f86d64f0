package repository

import (
	"context"
	"sync"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// MemoryTierStateStore keeps the last classified tier per (module,
// location) key. Each key has its own mutex so concurrent refreshes of
// the same key serialize while distinct keys proceed in parallel.
type MemoryTierStateStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	tiers map[string]models.Tier
}

func NewMemoryTierStateStore() *MemoryTierStateStore {
	return &MemoryTierStateStore{
		locks: make(map[string]*sync.Mutex),
		tiers: make(map[string]models.Tier),
	}
}

var _ domrepo.TierStateStore = (*MemoryTierStateStore)(nil)

func key(module models.Module, location string) string {
	return string(module) + "|" + location
}

func (s *MemoryTierStateStore) lockFor(k string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

func (s *MemoryTierStateStore) Get(ctx context.Context, module models.Module, location string) (models.Tier, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tiers[key(module, location)]
	return t, ok, nil
}

func (s *MemoryTierStateStore) Update(ctx context.Context, module models.Module, location string, fn func(prev models.Tier, ok bool) (models.Tier, error)) error {
	k := key(module, location)
	l := s.lockFor(k)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	prev, ok := s.tiers[k]
	s.mu.Unlock()

	next, err := fn(prev, ok)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tiers[k] = next
	s.mu.Unlock()
	return nil
}
