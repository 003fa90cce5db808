package coingecko_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketadvisor/internal/httpx"
	"marketadvisor/internal/market"
	"marketadvisor/internal/market/coingecko"
)

func TestQuotes_BatchedSingleCall(t *testing.T) {
	t.Parallel()

	// Arrange.
	var calls int
	var gotIDs, gotVS string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotIDs = r.URL.Query().Get("ids")
		gotVS = r.URL.Query().Get("vs_currencies")
		w.Write([]byte(`{"bitcoin":{"usd":63123.45},"ethereum":{"usd":2501.7}}`))
	}))
	defer ts.Close()
	p := coingecko.New(coingecko.Config{URL: ts.URL}, httpx.New(5*time.Second))

	// Act.
	quotes, err := p.Quotes(context.Background(), []string{"bitcoin", "ethereum", "no-such-coin"}, "usd")

	// Assert.
	require.NoError(t, err)
	require.Equal(t, 1, calls, "all ids must go out in one request")
	require.Equal(t, "bitcoin,ethereum,no-such-coin", gotIDs)
	require.Equal(t, "usd", gotVS)
	require.Len(t, quotes, 2)
	require.NotContains(t, quotes, "no-such-coin", "unknown ids are absent, not errors")

	btc := quotes["bitcoin"]
	require.Equal(t, "bitcoin", btc.Symbol)
	require.Equal(t, "USD", btc.Currency)
	require.Equal(t, "CoinGecko", btc.Source)
	require.NotNil(t, btc.Price)
	require.Equal(t, "63123.45", btc.Price.String())
}

func TestQuotes_EmptyIDsSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()
	p := coingecko.New(coingecko.Config{URL: ts.URL}, httpx.New(5*time.Second))

	quotes, err := p.Quotes(context.Background(), nil, "usd")

	require.NoError(t, err)
	require.Empty(t, quotes)
	require.Equal(t, 0, calls)
}

func TestQuotes_UpstreamFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()
	p := coingecko.New(coingecko.Config{URL: ts.URL}, httpx.New(5*time.Second))

	_, err := p.Quotes(context.Background(), []string{"bitcoin"}, "usd")

	var unavailable *market.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "crypto", unavailable.Provider)
	var upstream *market.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusTooManyRequests, upstream.Status)
}

func TestQuotes_MalformedBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()
	p := coingecko.New(coingecko.Config{URL: ts.URL}, httpx.New(5*time.Second))

	_, err := p.Quotes(context.Background(), []string{"bitcoin"}, "usd")

	require.ErrorIs(t, err, market.ErrMalformedResponse)
}

func TestQuotes_APIKeyHeader(t *testing.T) {
	t.Parallel()

	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()
	p := coingecko.New(coingecko.Config{URL: ts.URL, APIKey: "demo-key"}, httpx.New(5*time.Second))

	_, err := p.Quotes(context.Background(), []string{"bitcoin"}, "usd")

	require.NoError(t, err)
	require.Equal(t, "demo-key", gotKey)
}
