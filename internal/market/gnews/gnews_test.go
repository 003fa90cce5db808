package gnews_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketadvisor/internal/market"
	"marketadvisor/internal/market/gnews"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"markets" - Google News</title>
    <item>
      <title>Stocks climb as inflation cools</title>
      <link>https://example.com/a</link>
      <pubDate>Fri, 28 Aug 2026 14:05:00 GMT</pubDate>
      <source url="https://reuters.com">Reuters</source>
    </item>
    <item>
      <title></title>
      <link>https://example.com/skipped</link>
    </item>
    <item>
      <title>Oil slides on supply news</title>
      <link>https://example.com/b</link>
      <pubDate>Fri, 28 Aug 2026 13:00:00 +0000</pubDate>
      <source url="https://bloomberg.com">Bloomberg</source>
    </item>
  </channel>
</rss>`

func TestTopicHeadlines_ParsesFeed(t *testing.T) {
	t.Parallel()

	// Arrange.
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":    r.URL.Query().Get("q"),
			"hl":   r.URL.Query().Get("hl"),
			"ceid": r.URL.Query().Get("ceid"),
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer ts.Close()
	p := gnews.New(gnews.Config{URL: ts.URL})

	// Act.
	hs, err := p.TopicHeadlines(context.Background(), "markets", 10, "en")

	// Assert.
	require.NoError(t, err)
	require.Equal(t, "markets", gotQuery["q"])
	require.Equal(t, "en", gotQuery["hl"])
	require.Equal(t, "US:en", gotQuery["ceid"])

	require.Len(t, hs, 2, "untitled items are dropped")
	require.Equal(t, "Stocks climb as inflation cools", hs[0].Title)
	require.Equal(t, "Reuters", hs[0].Source)
	require.Equal(t, "https://example.com/a", hs[0].URL)
	require.NotNil(t, hs[0].PublishedAt)
	require.Equal(t, time.Date(2026, 8, 28, 14, 5, 0, 0, time.UTC), hs[0].PublishedAt.UTC())
	require.Equal(t, "Bloomberg", hs[1].Source)
}

func TestTopicHeadlines_LimitCapsItems(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer ts.Close()
	p := gnews.New(gnews.Config{URL: ts.URL})

	hs, err := p.TopicHeadlines(context.Background(), "markets", 1, "en")

	require.NoError(t, err)
	require.Len(t, hs, 1)
}

func TestTopicHeadlines_ZeroLimitSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()
	p := gnews.New(gnews.Config{URL: ts.URL})

	hs, err := p.TopicHeadlines(context.Background(), "markets", 0, "en")

	require.NoError(t, err)
	require.Empty(t, hs)
	require.Equal(t, 0, calls)
}

func TestTopicHeadlines_MalformedFeed(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<rss><unclosed"))
	}))
	defer ts.Close()
	p := gnews.New(gnews.Config{URL: ts.URL})

	_, err := p.TopicHeadlines(context.Background(), "markets", 5, "en")

	require.ErrorIs(t, err, market.ErrMalformedResponse)
}
