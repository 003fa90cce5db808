package coingecko

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

type Config struct {
	Name   string
	URL    string
	APIKey string // optional demo/pro key, sent as x-cg-demo-api-key
}

// Provider fetches crypto spot prices from the CoinGecko simple/price API.
// All requested ids go out in one batched call.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "CoinGecko"
	}
	if cfg.URL == "" {
		cfg.URL = "https://api.coingecko.com/api/v3/simple/price"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Quotes(ctx context.Context, ids []string, vs string) (map[string]market.Quote, error) {
	if len(ids) == 0 {
		return map[string]market.Quote{}, nil
	}
	vs = strings.ToLower(strings.TrimSpace(vs))

	u, err := url.Parse(p.cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "coingecko: parse endpoint")
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", vs)
	u.RawQuery = q.Encode()

	req, err := p.newRequest(ctx, u.String())
	if err != nil {
		return nil, err
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

	// {"bitcoin":{"usd":63000.12},"ethereum":{"usd":2500}}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body map[string]map[string]json.Number
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrap(market.ErrMalformedResponse, err.Error())
	}

	now := time.Now().UTC()
	out := make(map[string]market.Quote, len(body))
	for _, id := range ids {
		prices, ok := body[id]
		if !ok {
			continue // unknown id: absent, not an error
		}
		num, ok := prices[vs]
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(num.String())
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

func (p *Provider) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "coingecko: build request")
	}
	req.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.cfg.APIKey)
	}
	return req, nil
}
