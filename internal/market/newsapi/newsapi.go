package newsapi

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"marketadvisor/internal/market"
)

type Config struct {
	Name    string
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Provider fetches headlines from the NewsAPI /v2/everything endpoint,
// one call per topic, newest first.
type Provider struct {
	cfg    Config
	client *resty.Client
}

func New(cfg Config) *Provider {
	if cfg.Name == "" {
		cfg.Name = "NewsAPI"
	}
	if cfg.URL == "" {
		cfg.URL = "https://newsapi.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(cfg.URL)
	client.SetTimeout(cfg.Timeout)
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

type apiResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (p *Provider) TopicHeadlines(ctx context.Context, topic string, limit int, lang string) ([]market.Headline, error) {
	if p.cfg.APIKey == "" {
		return nil, market.ErrUnauthorized
	}
	if limit <= 0 {
		return []market.Headline{}, nil
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        topic,
			"language": lang,
			"pageSize": strconv.Itoa(limit),
			"sortBy":   "publishedAt",
			"apiKey":   p.cfg.APIKey,
		}).
		Get("/v2/everything")
	if err != nil {
		return nil, &market.ProviderUnavailableError{Provider: "news", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &market.ProviderUnavailableError{
			Provider: "news",
			Err:      &market.UpstreamError{Provider: p.cfg.Name, Status: resp.StatusCode()},
		}
	}

	var body apiResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errors.Wrap(market.ErrMalformedResponse, err.Error())
	}
	if body.Status != "ok" {
		return nil, errors.Wrap(market.ErrMalformedResponse, body.Message)
	}

	out := make([]market.Headline, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.Title == "" {
			continue
		}
		h := market.Headline{
			Title:  a.Title,
			Source: a.Source.Name,
			URL:    a.URL,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			utc := ts.UTC()
			h.PublishedAt = &utc
		}
		out = append(out, h)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
