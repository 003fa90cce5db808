package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketadvisor/internal/aggregate"
	"marketadvisor/internal/config"
	"marketadvisor/internal/httpx"
	"marketadvisor/internal/llm"
	"marketadvisor/internal/market"
	"marketadvisor/internal/market/binance"
	"marketadvisor/internal/market/coingecko"
	"marketadvisor/internal/market/gnews"
	"marketadvisor/internal/market/news"
	"marketadvisor/internal/market/newsapi"
	"marketadvisor/internal/market/stooq"
	"marketadvisor/internal/market/yahoo"
)

// fetch builds one snapshot (and optionally one advice narrative) and prints
// it as JSON. Handy for checking provider wiring without running the server.
func main() {
	var cryptoCSV string
	var tickersCSV string
	var topicsCSV string
	var limit int
	var lang string
	var query string
	var timeout int
	var configPath string

	flag.StringVar(&cryptoCSV, "crypto", getenv("CRYPTO_IDS", "bitcoin,ethereum"), "comma-separated crypto asset ids")
	flag.StringVar(&tickersCSV, "tickers", getenv("TICKERS", "AAPL,MSFT"), "comma-separated tickers (AAPL, fx:EURUSD, commodity:GOLD)")
	flag.StringVar(&topicsCSV, "topics", getenv("NEWS_TOPICS", "markets"), "comma-separated news topics")
	flag.IntVar(&limit, "limit", getenvInt("NEWS_LIMIT", 5), "max headlines across all topics")
	flag.StringVar(&lang, "lang", getenv("NEWS_LANGUAGE", "en"), "headline language")
	flag.StringVar(&query, "query", "", "optional question, answered via the LLM when set")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var crypto market.CryptoProvider
	if cfg.Crypto.Provider == "binance" {
		crypto = binance.New(binance.Config{URL: cfg.Crypto.Endpoint, SymbolMap: cfg.Crypto.SymbolMap}, httpClient)
	} else {
		crypto = coingecko.New(coingecko.Config{URL: cfg.Crypto.Endpoint}, httpClient)
	}
	var quotes market.QuoteProvider
	if cfg.Quotes.Provider == "yahoo" {
		quotes = yahoo.New()
	} else {
		quotes = stooq.New(stooq.Config{LiveURL: cfg.Quotes.LiveEndpoint, HistoryURL: cfg.Quotes.HistoryEndpoint}, httpClient)
	}
	var newsProvider market.NewsProvider
	if cfg.News.Provider == "newsapi" {
		newsProvider = newsapi.New(newsapi.Config{URL: cfg.News.Endpoint, APIKey: cfg.News.APIKey})
	} else {
		newsProvider = gnews.New(gnews.Config{URL: cfg.News.Endpoint})
	}

	var summarizer market.Summarizer
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.Endpoint),
			llm.WithModel(cfg.LLM.Model),
			llm.WithTimeout(time.Duration(cfg.LLM.TimeoutSec)*time.Second),
		)
		if err == nil {
			summarizer = client
		}
	}

	agg := aggregate.New(aggregate.Deps{
		Crypto: crypto,
		Quotes: quotes,
		News:   news.NewFetcher(newsProvider, logger),
		LLM:    summarizer,
		Logger: logger,
	})

	req := aggregate.Request{
		CryptoIDs:  splitCSV(strings.ToLower(cryptoCSV)),
		VSCurrency: cfg.Crypto.VSCurrency,
		NewsTopics: splitCSV(topicsCSV),
		NewsLimit:  limit,
		Lang:       lang,
	}
	for _, t := range splitCSV(tickersCSV) {
		req.Tickers = append(req.Tickers, parseInstrument(t))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	snap, err := agg.BuildSnapshot(ctx, req)
	if err != nil {
		logger.Fatal("snapshot", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if query != "" {
		_ = enc.Encode(agg.GetAdvice(ctx, snap, query))
		return
	}
	_ = enc.Encode(snap)
}

func parseInstrument(s string) market.Instrument {
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "fx:"); ok {
		return market.Instrument{Symbol: strings.ToUpper(rest), Kind: market.FXPair}
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "commodity:"); ok {
		return market.Instrument{Symbol: strings.ToUpper(rest), Kind: market.Commodity}
	}
	return market.Instrument{Symbol: strings.ToUpper(s), Kind: market.Equity}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
