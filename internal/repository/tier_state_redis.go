package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	pkgcache "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/cache"
)

const tierLockTTL = 5 * time.Second

// RedisTierStateStore keeps classified tiers in Redis so hysteresis
// survives restarts and stays consistent across replicas. Update takes a
// short distributed lock per key; the memory store is the single-node
// equivalent.
type RedisTierStateStore struct {
	cache pkgcache.Service
}

func NewRedisTierStateStore(c pkgcache.Service) *RedisTierStateStore {
	return &RedisTierStateStore{cache: c}
}

func (r *RedisTierStateStore) Get(ctx context.Context, module models.Module, location string) (models.Tier, bool, error) {
	var tier string
	err := r.cache.Get(ctx, tierKey(module, location), &tier)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, models.Wrap(models.KindStoreUnavailable, err, "read tier state")
	}
	return models.Tier(tier), true, nil
}

func (r *RedisTierStateStore) Update(ctx context.Context, module models.Module, location string, fn func(prev models.Tier, ok bool) (models.Tier, error)) error {
	lockKey := tierLockKey(module, location)
	if err := r.lock(ctx, lockKey); err != nil {
		return err
	}
	defer func() { _ = r.cache.Unlock(context.Background(), lockKey) }()

	prev, ok, err := r.Get(ctx, module, location)
	if err != nil {
		return err
	}

	next, err := fn(prev, ok)
	if err != nil {
		return err
	}

	if err := r.cache.Set(ctx, tierKey(module, location), string(next), 0); err != nil {
		return models.Wrap(models.KindStoreUnavailable, err, "write tier state")
	}
	return nil
}

// lock spins briefly on the per-key lock. Classification is fast, so
// contention beyond a few hundred milliseconds means a stuck holder and
// the TTL clears it.
func (r *RedisTierStateStore) lock(ctx context.Context, key string) error {
	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, err := r.cache.TryLock(ctx, key, tierLockTTL)
		if err != nil {
			return models.Wrap(models.KindStoreUnavailable, err, "lock tier state")
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return models.E(models.KindStoreUnavailable, "tier state lock timeout for %s", key)
		}
		select {
		case <-ctx.Done():
			return models.Wrap(models.KindStoreUnavailable, ctx.Err(), "lock tier state")
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func tierKey(module models.Module, location string) string {
	return fmt.Sprintf("tier:%s|%s", module, location)
}

func tierLockKey(module models.Module, location string) string {
	return fmt.Sprintf("tier_lock:%s|%s", module, location)
}

var _ domrepo.TierStateStore = (*RedisTierStateStore)(nil)
