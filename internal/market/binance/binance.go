package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"marketadvisor/internal/httpx"
	"marketadvisor/internal/market"
)

// defaultSymbolMap maps common asset ids to Binance base symbols.
var defaultSymbolMap = map[string]string{
	"bitcoin":  "BTC",
	"ethereum": "ETH",
	"solana":   "SOL",
	"cardano":  "ADA",
	"ripple":   "XRP",
	"dogecoin": "DOGE",
}

type Config struct {
	Name      string
	URL       string
	SymbolMap map[string]string // asset id -> base symbol; merged over defaults
}

// Provider fetches crypto spot prices from the public Binance ticker API.
// Asset ids are mapped to trading pairs against the requested quote currency;
// ids with no mapping are absent from the result, mirroring an unknown id.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Binance"
	}
	if cfg.URL == "" {
		cfg.URL = "https://api.binance.com/api/v3/ticker/price"
	}
	merged := make(map[string]string, len(defaultSymbolMap)+len(cfg.SymbolMap))
	for k, v := range defaultSymbolMap {
		merged[k] = v
	}
	for k, v := range cfg.SymbolMap {
		merged[strings.ToLower(k)] = strings.ToUpper(v)
	}
	cfg.SymbolMap = merged
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Quotes(ctx context.Context, ids []string, vs string) (map[string]market.Quote, error) {
	quote := quoteAsset(vs)

	// Map ids to pairs; remember the reverse so results come back keyed by id.
	idByPair := make(map[string]string, len(ids))
	pairs := make([]string, 0, len(ids))
	for _, id := range ids {
		base, ok := p.cfg.SymbolMap[strings.ToLower(id)]
		if !ok {
			continue
		}
		pair := base + quote
		if _, dup := idByPair[pair]; !dup {
			idByPair[pair] = id
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) == 0 {
		return map[string]market.Quote{}, nil
	}

	u, err := url.Parse(p.cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "binance: parse endpoint")
	}
	// One batched request: symbols=["BTCUSDT","ETHUSDT"]
	list, _ := json.Marshal(pairs)
	q := u.Query()
	q.Set("symbols", string(list))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "binance: build request")
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, &market.ProviderUnavailableError{Provider: "crypto", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &market.ProviderUnavailableError{
			Provider: "crypto",
			Err:      &market.UpstreamError{Provider: p.cfg.Name, Status: resp.StatusCode},
		}
	}

	var body []struct {
		Symbol string      `json:"symbol"`
		Price  json.Number `json:"price"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrap(market.ErrMalformedResponse, err.Error())
	}

	now := time.Now().UTC()
	out := make(map[string]market.Quote, len(body))
	for _, t := range body {
		id, ok := idByPair[t.Symbol]
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(t.Price.String())
		if err != nil {
			continue
		}
		out[id] = market.Quote{
			Symbol:    id,
			Price:     &d,
			Currency:  strings.ToUpper(vs),
			Source:    p.cfg.Name,
			FetchedAt: now,
		}
	}
	return out, nil
}

// quoteAsset maps a fiat quote currency to the Binance quote asset.
func quoteAsset(vs string) string {
	switch strings.ToLower(strings.TrimSpace(vs)) {
	case "", "usd":
		return "USDT"
	case "eur":
		return "EUR"
	case "gbp":
		return "GBP"
	case "try":
		return "TRY"
	default:
		return strings.ToUpper(vs)
	}
}
