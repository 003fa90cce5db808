package cache

import (
	"context"
	"sync"
	"time"

	"marketadvisor/internal/market"
)

// entry stores one cached quote with expiry.
type entry struct {
	expiresAt time.Time
	quote     market.Quote
}

// Provider caches crypto quotes per asset id for a TTL. It requests only
// missing ids from the underlying provider and merges cached + fresh results.
// Ids the upstream does not recognize are never cached, so they stay absent.
type Provider struct {
	P        market.CryptoProvider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry // key: id + "|" + vs
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) Quotes(ctx context.Context, ids []string, vs string) (map[string]market.Quote, error) {
	if c.P == nil || c.TTL <= 0 {
		return c.P.Quotes(ctx, ids, vs)
	}

	now := time.Now()
	cached := make(map[string]market.Quote, len(ids))
	missing := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))

	c.mu.RLock()
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e, ok := c.items[id+"|"+vs]; ok && now.Before(e.expiresAt) {
			cached[id] = e.quote
			continue
		}
		missing = append(missing, id)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return cached, nil
	}

	fresh, err := c.P.Quotes(ctx, missing, vs)
	if err != nil {
		// Partial cached data beats failing the whole batch.
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, err
	}

	expiry := now.Add(c.TTL)
	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry, len(fresh))
	}
	for id, q := range fresh {
		c.items[id+"|"+vs] = entry{expiresAt: expiry, quote: q}
	}
	// best-effort cap: drop expired first, then arbitrary keys
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxItems {
				break
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			delete(c.items, k)
		}
	}
	c.mu.Unlock()

	out := make(map[string]market.Quote, len(cached)+len(fresh))
	for id, q := range cached {
		out[id] = q
	}
	for id, q := range fresh {
		out[id] = q
	}
	return out, nil
}
