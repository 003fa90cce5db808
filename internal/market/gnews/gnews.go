package gnews

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"marketadvisor/internal/market"
)

type Config struct {
	Name    string
	URL     string
	Country string // gl/ceid region, default US
	Timeout time.Duration
}

// Provider fetches headlines from the Google News RSS search feed. It needs
// no API key, which makes it the default news source. Concurrent fetches of
// the same topic+lang feed are coalesced into one upstream call.
type Provider struct {
	cfg    Config
	client *resty.Client
	sf     singleflight.Group
}

func New(cfg Config) *Provider {
	if cfg.Name == "" {
		cfg.Name = "GoogleNews"
	}
	if cfg.URL == "" {
		cfg.URL = "https://news.google.com/rss/search"
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", "marketadvisor/1.0")
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

type rss struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  struct {
		URL  string `xml:"url,attr"`
		Text string `xml:",chardata"`
	} `xml:"source"`
}

func (p *Provider) TopicHeadlines(ctx context.Context, topic string, limit int, lang string) ([]market.Headline, error) {
	if limit <= 0 {
		return []market.Headline{}, nil
	}
	if lang == "" {
		lang = "en"
	}

	key := topic + "|" + lang
	v, err, _ := p.sf.Do(key, func() (any, error) {
		return p.fetchFeed(ctx, topic, lang)
	})
	if err != nil {
		return nil, err
	}
	items := v.([]rssItem)

	out := make([]market.Headline, 0, limit)
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		h := market.Headline{
			Title:  title,
			Source: strings.TrimSpace(it.Source.Text),
			URL:    it.Link,
		}
		if ts, ok := parsePubDate(it.PubDate); ok {
			h.PublishedAt = &ts
		}
		out = append(out, h)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *Provider) fetchFeed(ctx context.Context, topic, lang string) ([]rssItem, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    topic,
			"hl":   lang,
			"gl":   p.cfg.Country,
			"ceid": p.cfg.Country + ":" + lang,
		}).
		Get(p.cfg.URL)
	if err != nil {
		return nil, &market.ProviderUnavailableError{Provider: "news", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &market.ProviderUnavailableError{
			Provider: "news",
			Err:      &market.UpstreamError{Provider: p.cfg.Name, Status: resp.StatusCode()},
		}
	}
	var feed rss
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, errors.Wrap(market.ErrMalformedResponse, err.Error())
	}
	return feed.Channel.Items, nil
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
