package ratelimit

import (
	"context"
	"sync"
	"time"

	"marketadvisor/internal/market"
)

// MinInterval wraps a quote provider and enforces a minimum time between
// calls. Concurrent calls wait until the interval has elapsed since the last
// call, or return early if the context is canceled.
type MinInterval struct {
	P        market.QuoteProvider
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Quote(ctx context.Context, inst market.Instrument) (market.Quote, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return market.Quote{}, ctx.Err()
			case <-t.C:
			}
		}
	}
	q, err := m.P.Quote(ctx, inst)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return q, err
}
