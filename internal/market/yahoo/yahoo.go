package yahoo

import (
	"context"
	"strings"
	"time"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"marketadvisor/internal/market"
)

// futuresMap maps the fixed commodity set to Yahoo futures symbols.
var futuresMap = map[string]string{
	"GOLD":   "GC=F",
	"SILVER": "SI=F",
	"WTI":    "CL=F",
	"BRENT":  "BZ=F",
	"NATGAS": "NG=F",
}

// Provider fetches quotes through the Yahoo Finance API via finance-go.
// Single-tier: Yahoo's quote endpoint already serves the last close for
// illiquid symbols, so no historical fallback is needed here.
type Provider struct {
	name string
}

func New() *Provider { return &Provider{name: "Yahoo"} }

func (p *Provider) Name() string { return p.name }

func (p *Provider) Quote(ctx context.Context, inst market.Instrument) (market.Quote, error) {
	if err := market.ValidateInstrument(inst); err != nil {
		return market.Quote{}, err
	}
	if err := ctx.Err(); err != nil {
		return market.Quote{}, err
	}

	// finance-go manages its own HTTP session and does not take a context.
	q, err := quote.Get(yahooSymbol(inst))
	if err != nil {
		return market.Quote{}, &market.ProviderUnavailableError{Provider: "equity", Err: err}
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return market.Quote{}, &market.QuoteNotFoundError{Symbol: inst.Symbol}
	}

	d := decimal.NewFromFloat(q.RegularMarketPrice)
	currency := strings.ToUpper(string(q.CurrencyID))
	if currency == "" {
		currency = "USD"
	}
	return market.Quote{
		Symbol:    strings.ToUpper(inst.Symbol),
		Price:     &d,
		Currency:  currency,
		Source:    p.name + ":live",
		FetchedAt: time.Now().UTC(),
	}, nil
}

func yahooSymbol(inst market.Instrument) string {
	sym := strings.ToUpper(strings.TrimSpace(inst.Symbol))
	switch inst.Kind {
	case market.FXPair:
		return sym + "=X"
	case market.Commodity:
		return futuresMap[sym]
	default:
		return sym
	}
}
