package cache

import (
	"context"
	"strconv"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// LookupObserver records cache hits and misses.
type LookupObserver interface {
	ObserveCacheLookup(cache string, hit bool)
}

// TenantCache memoizes tenant descriptions for the life of a run.
// Concurrent misses for the same tenant share one load.
type TenantCache struct {
	cache    *expirable.LRU[int, *domain.Tenant]
	group    singleflight.Group
	observer LookupObserver
}

func NewTenantCache(maxSize int, ttl time.Duration, observer LookupObserver) *TenantCache {
	return &TenantCache{
		cache:    expirable.NewLRU[int, *domain.Tenant](maxSize, nil, ttl),
		observer: observer,
	}
}

func (c *TenantCache) Get(tenantID int) (*domain.Tenant, bool) {
	t, ok := c.cache.Get(tenantID)
	if c.observer != nil {
		c.observer.ObserveCacheLookup("tenant", ok)
	}
	return t, ok
}

func (c *TenantCache) Set(tenant *domain.Tenant) {
	c.cache.Add(tenant.ID, tenant)
}

func (c *TenantCache) Invalidate(tenantID int) {
	c.cache.Remove(tenantID)
}

// GetOrLoad returns the cached tenant or loads and stores it. Failed loads
// are not cached.
func (c *TenantCache) GetOrLoad(ctx context.Context, tenantID int, load func(context.Context, int) (*domain.Tenant, error)) (*domain.Tenant, error) {
	if t, ok := c.Get(tenantID); ok {
		return t, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(tenantID), func() (any, error) {
		t, err := load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		c.Set(t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Tenant), nil
}
