package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"marketadvisor/internal/aggregate"
	"marketadvisor/internal/config"
	"marketadvisor/internal/httpx"
	"marketadvisor/internal/llm"
	"marketadvisor/internal/market"
	"marketadvisor/internal/market/binance"
	"marketadvisor/internal/market/cache"
	"marketadvisor/internal/market/coingecko"
	"marketadvisor/internal/market/gnews"
	"marketadvisor/internal/market/news"
	"marketadvisor/internal/market/newsapi"
	"marketadvisor/internal/market/ratelimit"
	"marketadvisor/internal/market/stooq"
	"marketadvisor/internal/market/yahoo"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; advice and chat will degrade to fixed narratives")
	}
	if cfg.News.Provider == "newsapi" && cfg.News.APIKey == "" {
		logger.Warn("news.provider=newsapi but NEWSAPI_KEY not set; headlines will be empty")
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	httpClient := httpx.New(timeout)

	agg, chatClient := buildAggregator(cfg, httpClient, logger)

	s := &server{agg: agg, chat: chatClient, cfg: cfg, log: logger}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/advice", s.handleAdvice).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	handler := requestID(accessLog(logger, recoverPanic(limitBody(withGzip(c.Handler(r))))))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildAggregator wires the configured provider variants into the aggregator.
func buildAggregator(cfg config.Config, httpClient *httpx.Client, logger *zap.Logger) (*aggregate.Aggregator, *llm.Client) {
	var crypto market.CryptoProvider
	switch cfg.Crypto.Provider {
	case "binance":
		crypto = binance.New(binance.Config{
			Name:      "Binance",
			URL:       cfg.Crypto.Endpoint,
			SymbolMap: cfg.Crypto.SymbolMap,
		}, httpClient)
	default:
		crypto = coingecko.New(coingecko.Config{
			Name: "CoinGecko",
			URL:  cfg.Crypto.Endpoint,
		}, httpClient)
	}
	if cfg.Crypto.CacheTTLSeconds > 0 {
		crypto = &cache.Provider{
			P:        crypto,
			TTL:      time.Duration(cfg.Crypto.CacheTTLSeconds) * time.Second,
			MaxItems: cfg.Crypto.CacheMaxItems,
		}
	}

	var quotes market.QuoteProvider
	switch cfg.Quotes.Provider {
	case "yahoo":
		quotes = yahoo.New()
	default:
		quotes = stooq.New(stooq.Config{
			Name:       "Stooq",
			LiveURL:    cfg.Quotes.LiveEndpoint,
			HistoryURL: cfg.Quotes.HistoryEndpoint,
		}, httpClient)
	}
	// Prefer a token bucket with burst when RPM is set, otherwise min-interval.
	if cfg.Quotes.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.Quotes.MaxRequestsPerMinute) / 60.0
		burst := cfg.Quotes.Burst
		if burst <= 0 {
			burst = 1
		}
		quotes = &ratelimit.TokenBucketProvider{P: quotes, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.Quotes.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.Quotes.MinRequestIntervalSec) * time.Second
		quotes = &ratelimit.MinInterval{P: quotes, Interval: interval}
	}

	var newsProvider market.NewsProvider
	switch cfg.News.Provider {
	case "newsapi":
		newsProvider = newsapi.New(newsapi.Config{
			URL:    cfg.News.Endpoint,
			APIKey: cfg.News.APIKey,
		})
	default:
		newsProvider = gnews.New(gnews.Config{
			URL: cfg.News.Endpoint,
		})
	}
	fetcher := news.NewFetcher(newsProvider, logger)

	var summarizer market.Summarizer
	var chatClient *llm.Client
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.Endpoint),
			llm.WithModel(cfg.LLM.Model),
			llm.WithTimeout(time.Duration(cfg.LLM.TimeoutSec)*time.Second),
		)
		if err != nil {
			logger.Error("llm client", zap.Error(err))
		} else {
			summarizer = client
			chatClient = client
		}
	}

	agg := aggregate.New(aggregate.Deps{
		Crypto: crypto,
		Quotes: quotes,
		News:   fetcher,
		LLM:    summarizer,
		Logger: logger,
	})
	return agg, chatClient
}
