package news

import (
	"context"

	"go.uber.org/zap"

	"marketadvisor/internal/market"
)

// Fetcher iterates topics in order, accumulating headlines until limit is
// reached, then stops issuing provider calls. A limit of zero returns an
// empty list without touching the network at all.
//
// A single topic's provider error contributes zero headlines rather than
// failing the fetch. Fetcher returns an error only when at least one topic
// errored and nothing at all was gathered, so the caller can tell a dry run
// from an outage.
type Fetcher struct {
	Provider market.NewsProvider
	Log      *zap.Logger
}

func NewFetcher(p market.NewsProvider, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{Provider: p, Log: log}
}

func (f *Fetcher) Headlines(ctx context.Context, topics []string, limit int, lang string) ([]market.Headline, error) {
	if limit <= 0 || len(topics) == 0 {
		return []market.Headline{}, nil
	}

	out := make([]market.Headline, 0, limit)
	var lastErr error
	for _, topic := range topics {
		remaining := limit - len(out)
		if remaining <= 0 {
			break
		}
		hs, err := f.Provider.TopicHeadlines(ctx, topic, remaining, lang)
		if err != nil {
			f.Log.Warn("headline fetch failed",
				zap.String("provider", f.Provider.Name()),
				zap.String("topic", topic),
				zap.Error(err))
			lastErr = err
			continue
		}
		if len(hs) > remaining {
			hs = hs[:remaining]
		}
		out = append(out, hs...)
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}
