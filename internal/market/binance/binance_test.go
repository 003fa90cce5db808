package binance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketadvisor/internal/httpx"
	"marketadvisor/internal/market"
	"marketadvisor/internal/market/binance"
)

func TestQuotes_BatchedPairMapping(t *testing.T) {
	t.Parallel()

	// Arrange.
	var calls int
	var gotSymbols string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotSymbols = r.URL.Query().Get("symbols")
		w.Write([]byte(`[{"symbol":"BTCUSDT","price":"63123.45000000"},{"symbol":"ETHUSDT","price":"2501.70000000"}]`))
	}))
	defer ts.Close()
	p := binance.New(binance.Config{URL: ts.URL}, httpx.New(5*time.Second))

	// Act: one mapped id, one unmapped.
	quotes, err := p.Quotes(context.Background(), []string{"bitcoin", "ethereum", "obscurecoin"}, "usd")

	// Assert.
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.JSONEq(t, `["BTCUSDT","ETHUSDT"]`, gotSymbols, "unmapped ids are excluded from the batch")
	require.Len(t, quotes, 2)
	require.NotContains(t, quotes, "obscurecoin")

	btc := quotes["bitcoin"]
	require.Equal(t, "bitcoin", btc.Symbol, "results come back keyed by asset id")
	require.Equal(t, "USD", btc.Currency)
	require.Equal(t, "Binance", btc.Source)
	require.Equal(t, "63123.45", btc.Price.String())
}

func TestQuotes_NoMappedIDsSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()
	p := binance.New(binance.Config{URL: ts.URL}, httpx.New(5*time.Second))

	quotes, err := p.Quotes(context.Background(), []string{"obscurecoin"}, "usd")

	require.NoError(t, err)
	require.Empty(t, quotes)
	require.Equal(t, 0, calls)
}

func TestQuotes_CustomSymbolMap(t *testing.T) {
	t.Parallel()

	var gotSymbols string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbols")
		w.Write([]byte(`[{"symbol":"PEPEUSDT","price":"0.00001"}]`))
	}))
	defer ts.Close()
	p := binance.New(binance.Config{
		URL:       ts.URL,
		SymbolMap: map[string]string{"pepe": "pepe"},
	}, httpx.New(5*time.Second))

	quotes, err := p.Quotes(context.Background(), []string{"pepe"}, "usd")

	require.NoError(t, err)
	require.JSONEq(t, `["PEPEUSDT"]`, gotSymbols)
	require.Contains(t, quotes, "pepe")
}

func TestQuotes_UpstreamFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()
	p := binance.New(binance.Config{URL: ts.URL}, httpx.New(5*time.Second))

	_, err := p.Quotes(context.Background(), []string{"bitcoin"}, "usd")

	var unavailable *market.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "crypto", unavailable.Provider)
}
