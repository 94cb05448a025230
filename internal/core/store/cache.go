package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/solatis/docguard/internal/rules"
	"github.com/solatis/docguard/internal/types"
)

// CacheObserver receives rule cache hit and miss counts.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

// CachedRuleSource keeps loaded rule sets per document type for a TTL.
// Errors from the underlying source are returned and never cached, so the
// next pass retries the store.
type CachedRuleSource struct {
	source   rules.RuleSource
	cache    *cache.Cache
	ttl      time.Duration
	observer CacheObserver
}

// NewCachedRuleSource wraps source. ttl must be positive (go-cache treats
// zero as never expiring); callers skip the cache to disable it. observer
// may be nil.
func NewCachedRuleSource(source rules.RuleSource, ttl time.Duration, observer CacheObserver) *CachedRuleSource {
	return &CachedRuleSource{
		source:   source,
		cache:    cache.New(ttl, 2*ttl),
		ttl:      ttl,
		observer: observer,
	}
}

// LoadRules implements rules.RuleSource.
func (c *CachedRuleSource) LoadRules(ctx context.Context, documentType string) ([]types.ValidationRule, error) {
	if cached, found := c.cache.Get(documentType); found {
		if c.observer != nil {
			c.observer.CacheHit()
		}
		return cached.([]types.ValidationRule), nil
	}
	if c.observer != nil {
		c.observer.CacheMiss()
	}

	loaded, err := c.source.LoadRules(ctx, documentType)
	if err != nil {
		return nil, err
	}
	c.cache.Set(documentType, loaded, c.ttl)
	return loaded, nil
}

// Invalidate drops every cached rule set. Called after rule imports.
func (c *CachedRuleSource) Invalidate() {
	c.cache.Flush()
}
