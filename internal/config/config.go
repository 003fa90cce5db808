package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Crypto struct {
	Provider        string            `json:"provider"` // coingecko | binance
	Endpoint        string            `json:"endpoint"`
	VSCurrency      string            `json:"vs_currency"`
	SymbolMap       map[string]string `json:"symbol_map"` // binance: asset id -> base symbol
	CacheTTLSeconds int               `json:"cache_ttl_sec"`
	CacheMaxItems   int               `json:"cache_max_items"`
}

type Quotes struct {
	Provider              string `json:"provider"` // stooq | yahoo
	LiveEndpoint          string `json:"live_endpoint"`
	HistoryEndpoint       string `json:"history_endpoint"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
}

type News struct {
	Provider     string `json:"provider"` // newsapi | gnews
	Endpoint     string `json:"endpoint"`
	APIKey       string `json:"api_key"`
	Language     string `json:"language"`
	DefaultLimit int    `json:"default_limit"`
}

type LLM struct {
	APIKey     string `json:"api_key"`
	Endpoint   string `json:"endpoint"`
	Model      string `json:"model"`
	TimeoutSec int    `json:"timeout_sec"`
}

type Config struct {
	Server Server `json:"server"`
	Crypto Crypto `json:"crypto"`
	Quotes Quotes `json:"quotes"`
	News   News   `json:"news"`
	LLM    LLM    `json:"llm"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 15},
		Crypto: Crypto{
			Provider:        "coingecko",
			VSCurrency:      "usd",
			CacheTTLSeconds: 30,
			CacheMaxItems:   1000,
		},
		Quotes: Quotes{
			Provider:             "stooq",
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		News: News{
			Provider:     "gnews",
			Language:     "en",
			DefaultLimit: 5,
		},
		LLM: LLM{
			Model:      "gpt-4o-mini",
			TimeoutSec: 30,
		},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. A .env file is honored, and environment
// variables override select fields for secrecy. The result is read-only for
// the rest of the process lifetime.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("CRYPTO_PROVIDER"); v != "" {
		cfg.Crypto.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("VS_CURRENCY"); v != "" {
		cfg.Crypto.VSCurrency = strings.ToLower(v)
	}
	if v := os.Getenv("CRYPTO_CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Crypto.CacheTTLSeconds = x
		}
	}
	if v := os.Getenv("QUOTES_PROVIDER"); v != "" {
		cfg.Quotes.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("QUOTES_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Quotes.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("QUOTES_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Quotes.MinRequestIntervalSec = x
		}
	}
	if v := os.Getenv("NEWS_PROVIDER"); v != "" {
		cfg.News.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("NEWSAPI_KEY"); v != "" {
		cfg.News.APIKey = v
	}
	if v := os.Getenv("NEWS_LANGUAGE"); v != "" {
		cfg.News.Language = v
	}
	if v := os.Getenv("NEWS_DEFAULT_LIMIT"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.News.DefaultLimit = x
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.LLM.TimeoutSec = x
		}
	}
}
