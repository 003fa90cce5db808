package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Crypto.Provider != "coingecko" || cfg.Quotes.Provider != "stooq" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.News.Provider != "gnews" || cfg.News.DefaultLimit != 5 {
		t.Fatalf("unexpected news defaults: %+v", cfg.News)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"server": {"port": "9090"},
		"crypto": {"provider": "binance", "vs_currency": "eur"},
		"quotes": {"provider": "yahoo", "max_requests_per_minute": 10},
		"news": {"provider": "newsapi", "default_limit": 3}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port=%s", cfg.Server.Port)
	}
	if cfg.Crypto.Provider != "binance" || cfg.Crypto.VSCurrency != "eur" {
		t.Fatalf("crypto: %+v", cfg.Crypto)
	}
	if cfg.Quotes.Provider != "yahoo" || cfg.Quotes.MaxRequestsPerMinute != 10 {
		t.Fatalf("quotes: %+v", cfg.Quotes)
	}
	if cfg.News.Provider != "newsapi" || cfg.News.DefaultLimit != 3 {
		t.Fatalf("news: %+v", cfg.News)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"crypto":{"provider":"coingecko"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRYPTO_PROVIDER", "Binance")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NEWS_DEFAULT_LIMIT", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Crypto.Provider != "binance" {
		t.Fatalf("env must override file and be lowercased, got %s", cfg.Crypto.Provider)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("llm key: %q", cfg.LLM.APIKey)
	}
	if cfg.News.DefaultLimit != 7 {
		t.Fatalf("news limit: %d", cfg.News.DefaultLimit)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want parse error")
	}
}
