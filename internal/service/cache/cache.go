package cache

import (
	"time"

	pkgcache "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/cache"
)

// BytesCache is a minimal cache API storing raw bytes with TTL. Both the
// outlook response cache and the provider fetch cache sit behind it so
// deployments can swap the in-process cache for Redis with config only.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// Key joins parts into a cache key. Parts never contain ':'.
func Key(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	rest := make([]interface{}, 0, len(parts)-1)
	for _, p := range parts[1:] {
		rest = append(rest, p)
	}
	return pkgcache.GenerateKeyWithParams(parts[0], rest...)
}

var _ BytesCache = (*TTLCache)(nil)
var _ BytesCache = (*ServiceCache)(nil)
