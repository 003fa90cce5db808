package aggregate

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketadvisor/internal/market"
)

// HeadlineSource gathers headlines across an ordered topic list, bounded by
// limit. See the news package for the canonical implementation.
type HeadlineSource interface {
	Headlines(ctx context.Context, topics []string, limit int, lang string) ([]market.Headline, error)
}

// Deps are the adapters an Aggregator composes. Any of them may be nil;
// a nil adapter contributes nothing to snapshots. A nil LLM makes GetAdvice
// short-circuit to a fixed narrative without a network call.
type Deps struct {
	Crypto market.CryptoProvider
	Quotes market.QuoteProvider
	News   HeadlineSource
	LLM    market.Summarizer
	Logger *zap.Logger
}

// Aggregator fans a snapshot request out to the price and news adapters,
// tolerates individual adapter failures, and assembles one Snapshot in
// request order. It fails outright only when every adapter the request
// needed failed.
type Aggregator struct {
	crypto market.CryptoProvider
	quotes market.QuoteProvider
	news   HeadlineSource
	llm    market.Summarizer
	log    *zap.Logger
}

func New(d Deps) *Aggregator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Aggregator{
		crypto: d.Crypto,
		quotes: d.Quotes,
		news:   d.News,
		llm:    d.LLM,
		log:    d.Logger,
	}
}

// Request describes one snapshot.
type Request struct {
	CryptoIDs  []string
	VSCurrency string
	Tickers    []market.Instrument
	NewsTopics []string
	NewsLimit  int
	Lang       string
}

// BuildSnapshot invokes the adapters concurrently and assembles a Snapshot.
// Quotes appear in request order (crypto ids first, then tickers) no matter
// which upstream call finishes first. Instrument validation errors are hard
// failures; adapter outages degrade to empty contributions, and only a total
// outage surfaces ErrAllProvidersUnavailable.
func (a *Aggregator) BuildSnapshot(ctx context.Context, req Request) (market.Snapshot, error) {
	for _, inst := range req.Tickers {
		if err := market.ValidateInstrument(inst); err != nil {
			return market.Snapshot{}, err
		}
	}
	vs := req.VSCurrency
	if vs == "" {
		vs = "usd"
	}

	var (
		cryptoQuotes map[string]market.Quote
		tickerQuotes = make([]*market.Quote, len(req.Tickers))
		headlines    []market.Headline

		cryptoErr, quotesErr, newsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	attempted := 0

	if a.crypto != nil && len(req.CryptoIDs) > 0 {
		attempted++
		g.Go(func() error {
			cryptoQuotes, cryptoErr = a.crypto.Quotes(gctx, req.CryptoIDs, vs)
			if cryptoErr != nil {
				a.log.Warn("crypto quotes failed", zap.Error(cryptoErr))
			}
			return nil
		})
	}

	if a.quotes != nil && len(req.Tickers) > 0 {
		attempted++
		g.Go(func() error {
			var got bool
			for i, inst := range req.Tickers {
				q, err := a.quotes.Quote(gctx, inst)
				if err != nil {
					a.log.Warn("quote failed",
						zap.String("symbol", inst.Symbol),
						zap.String("kind", string(inst.Kind)),
						zap.Error(err))
					if quotesErr == nil {
						quotesErr = err
					}
					continue
				}
				tickerQuotes[i] = &q
				got = true
			}
			if got {
				quotesErr = nil
			}
			return nil
		})
	}

	if a.news != nil && len(req.NewsTopics) > 0 && req.NewsLimit > 0 {
		attempted++
		g.Go(func() error {
			headlines, newsErr = a.news.Headlines(gctx, req.NewsTopics, req.NewsLimit, req.Lang)
			if newsErr != nil {
				a.log.Warn("headlines failed", zap.Error(newsErr))
			}
			return nil
		})
	}

	_ = g.Wait()

	failed := 0
	for _, err := range []error{cryptoErr, quotesErr, newsErr} {
		if err != nil {
			failed++
		}
	}
	if attempted > 0 && failed == attempted {
		return market.Snapshot{}, errors.Wrapf(market.ErrAllProvidersUnavailable, "last error: %v", firstErr(cryptoErr, quotesErr, newsErr))
	}

	snap := market.Snapshot{
		Quotes:      make([]market.Quote, 0, len(req.CryptoIDs)+len(req.Tickers)),
		Headlines:   make([]market.Headline, 0, len(headlines)),
		RequestedAt: time.Now().UTC(),
	}
	for _, id := range req.CryptoIDs {
		if q, ok := cryptoQuotes[id]; ok {
			snap.Quotes = append(snap.Quotes, q)
		}
	}
	for _, q := range tickerQuotes {
		if q != nil {
			snap.Quotes = append(snap.Quotes, *q)
		}
	}
	snap.Headlines = append(snap.Headlines, headlines...)
	return snap, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
