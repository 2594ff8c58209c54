package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout)
	}
	if cfg.TMDBBaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("TMDBBaseURL = %q", cfg.TMDBBaseURL)
	}
	if cfg.MongoDatabase != "moviescout" {
		t.Errorf("MongoDatabase = %q, want moviescout", cfg.MongoDatabase)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want 300ms", cfg.SearchDebounce)
	}
	if cfg.TokenTTL != 72*time.Hour {
		t.Errorf("TokenTTL = %v, want 72h", cfg.TokenTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SEARCH_DEBOUNCE_MS", "150")
	t.Setenv("TOKEN_TTL_HOURS", "24")

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.SearchDebounce != 150*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want 150ms", cfg.SearchDebounce)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
}

func TestGetEnvIntRejectsGarbage(t *testing.T) {
	t.Setenv("SEARCH_DEBOUNCE_MS", "not-a-number")
	if got := getEnvInt("SEARCH_DEBOUNCE_MS", 300); got != 300 {
		t.Errorf("getEnvInt = %d, want fallback 300", got)
	}

	t.Setenv("SEARCH_DEBOUNCE_MS", "-5")
	if got := getEnvInt("SEARCH_DEBOUNCE_MS", 300); got != 300 {
		t.Errorf("negative value: getEnvInt = %d, want fallback 300", got)
	}
}
