package stooq

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"marketadvisor/internal/httpx"
	"marketadvisor/internal/market"
)

// commodityMap maps the fixed commodity set to Stooq symbols.
var commodityMap = map[string]string{
	"GOLD":   "xauusd",
	"SILVER": "xagusd",
	"WTI":    "cl.f",
	"BRENT":  "cb.f",
	"NATGAS": "ng.f",
}

type Config struct {
	Name       string
	LiveURL    string // last-quoted-price CSV endpoint
	HistoryURL string // daily-bars CSV endpoint
}

// Provider fetches equity, FX and commodity quotes from Stooq CSV endpoints.
//
// Retrieval is two-tier: the live endpoint first, and when it carries no data
// (Stooq answers "N/D" for illiquid symbols) the most recent daily close.
// The Source field records which tier answered: "Stooq:live" or "Stooq:close".
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Stooq"
	}
	if cfg.LiveURL == "" {
		cfg.LiveURL = "https://stooq.com/q/l/"
	}
	if cfg.HistoryURL == "" {
		cfg.HistoryURL = "https://stooq.com/q/d/l/"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Quote(ctx context.Context, inst market.Instrument) (market.Quote, error) {
	if err := market.ValidateInstrument(inst); err != nil {
		return market.Quote{}, err
	}
	code := symbolFor(inst)

	price, err := p.live(ctx, code)
	if err != nil {
		return market.Quote{}, err
	}
	source := p.cfg.Name + ":live"
	if price == nil {
		// Live endpoint empty; fall back to the last daily close, one bar stale.
		price, err = p.lastClose(ctx, code)
		if err != nil {
			return market.Quote{}, err
		}
		source = p.cfg.Name + ":close"
	}
	if price == nil {
		return market.Quote{}, &market.QuoteNotFoundError{Symbol: inst.Symbol}
	}

	return market.Quote{
		Symbol:    strings.ToUpper(inst.Symbol),
		Price:     price,
		Currency:  currencyFor(inst),
		Source:    source,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// live fetches the last quoted price. A nil price with nil error means the
// endpoint answered but had no data for the symbol.
func (p *Provider) live(ctx context.Context, code string) (*decimal.Decimal, error) {
	u, err := url.Parse(p.cfg.LiveURL)
	if err != nil {
		return nil, errors.Wrap(err, "stooq: parse live endpoint")
	}
	q := u.Query()
	q.Set("s", code)
	q.Set("f", "sd2t2ohlcv")
	q.Set("h", "")
	q.Set("e", "csv")
	u.RawQuery = q.Encode()

	rows, err := p.fetchCSV(ctx, u.String())
	if err != nil {
		return nil, err
	}
	// header + one data row: Symbol,Date,Time,Open,High,Low,Close,Volume
	if len(rows) < 2 || len(rows[1]) < 7 {
		return nil, nil
	}
	return parsePrice(rows[1][6]), nil
}

// lastClose fetches daily bars and returns the close of the newest one.
func (p *Provider) lastClose(ctx context.Context, code string) (*decimal.Decimal, error) {
	u, err := url.Parse(p.cfg.HistoryURL)
	if err != nil {
		return nil, errors.Wrap(err, "stooq: parse history endpoint")
	}
	q := u.Query()
	q.Set("s", code)
	q.Set("i", "d")
	u.RawQuery = q.Encode()

	rows, err := p.fetchCSV(ctx, u.String())
	if err != nil {
		return nil, err
	}
	// header + bars: Date,Open,High,Low,Close,Volume
	if len(rows) < 2 {
		return nil, nil
	}
	last := rows[len(rows)-1]
	if len(last) < 5 {
		return nil, nil
	}
	return parsePrice(last[4]), nil
}

func (p *Provider) fetchCSV(ctx context.Context, url string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "stooq: build request")
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, &market.ProviderUnavailableError{Provider: "equity", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &market.ProviderUnavailableError{
			Provider: "equity",
			Err:      &market.UpstreamError{Provider: p.cfg.Name, Status: resp.StatusCode},
		}
	}
	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(market.ErrMalformedResponse, err.Error())
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// parsePrice returns nil for Stooq's "N/D" no-data marker and unparsable values.
func parsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/D") {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// symbolFor maps an instrument to Stooq's symbology. US equities carry a
// ".us" suffix; FX pairs and commodities are plain lowercase codes.
func symbolFor(inst market.Instrument) string {
	sym := strings.ToLower(strings.TrimSpace(inst.Symbol))
	switch inst.Kind {
	case market.FXPair:
		return sym
	case market.Commodity:
		return commodityMap[strings.ToUpper(sym)]
	default:
		if strings.Contains(sym, ".") {
			return sym
		}
		return sym + ".us"
	}
}

func currencyFor(inst market.Instrument) string {
	switch inst.Kind {
	case market.FXPair:
		return strings.ToUpper(inst.Symbol[3:])
	default:
		// Stooq omits currency; US listings and the commodity set quote in USD.
		return "USD"
	}
}
