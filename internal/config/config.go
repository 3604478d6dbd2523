// Package config loads process configuration for the sdtmcli/sdtmserver
// binaries: catalog root override, session store path, and AI-suggester
// settings (spec SPEC_FULL.md §4.8), grounded on the teacher's
// constant-defaults-block + Config-struct + env-parsing-helper shape.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = "8080"

	DefaultAIModel          = "gpt-4o-mini"
	DefaultAISuggestTimeout = 20 * time.Second

	DefaultSessionDBPath     = ".cache/sdtm-sessions.db"
	DefaultAcceptThreshold   = 0.6
	DefaultCTMatching        = "lenient"
	DefaultPreserveOnError   = true
	DefaultHTTPClientTimeout = 30 * time.Second
	DefaultTrustedProxies    = "127.0.0.1,::1"
)

// Config is the resolved process configuration.
type Config struct {
	// Server (A7)
	Host           string
	Port           string
	TrustedProxies []string
	CORSOrigins    []string

	// Standards catalog (C1, spec §6 "*_STANDARDS_DIR")
	StandardsDir string

	// Session store (A4)
	SessionDBPath string

	// Mapping/pipeline options (spec §4.3, §4.4, §6)
	AcceptThreshold float64
	CTMatching      string // "strict" | "lenient"
	PreserveOnError bool

	// AI-assisted suggester (A3)
	OpenAIAPIKey     string
	AIModel          string
	AISuggestTimeout time.Duration

	// Outbound HTTP (Google Sheets adapter, A2)
	HTTPClientTimeout time.Duration
}

// LoadConfig reads configuration from the environment, applying typed
// defaults. Callers should load a `.env` file (via godotenv) before
// calling this, if desired; LoadConfig itself only reads os.Environ.
func LoadConfig() *Config {
	apiKey := getEnv("OPENAI_API_KEY", "")

	cfg := &Config{
		Host:           getEnv("HOST", DefaultHost),
		Port:           getEnv("PORT", DefaultPort),
		TrustedProxies: splitCSV(getEnv("TRUSTED_PROXIES", DefaultTrustedProxies)),
		CORSOrigins:    splitCSV(getEnv("SDTM_CORS_ORIGINS", "")),

		StandardsDir: getEnv("SDTM_STANDARDS_DIR", ""),

		SessionDBPath: getEnv("SDTM_SESSION_DB", DefaultSessionDBPath),

		AcceptThreshold: getEnvFloat64("SDTM_ACCEPT_THRESHOLD", DefaultAcceptThreshold),
		CTMatching:      strings.ToLower(getEnv("SDTM_CT_MATCHING", DefaultCTMatching)),
		PreserveOnError: getEnvBool("SDTM_PRESERVE_ON_ERROR", DefaultPreserveOnError),

		OpenAIAPIKey:     apiKey,
		AIModel:          getEnv("SDTM_AI_MODEL", DefaultAIModel),
		AISuggestTimeout: getEnvDuration("SDTM_AI_SUGGEST_TIMEOUT", DefaultAISuggestTimeout),

		HTTPClientTimeout: getEnvDuration("SDTM_HTTP_CLIENT_TIMEOUT", DefaultHTTPClientTimeout),
	}

	if apiKey != "" {
		slog.Info("AI suggester enabled (OPENAI_API_KEY is set)", "model", cfg.AIModel)
	} else {
		slog.Info("AI suggester disabled (OPENAI_API_KEY not set)")
	}
	if cfg.StandardsDir != "" {
		slog.Info("standards catalog override", "dir", cfg.StandardsDir)
	}

	return cfg
}

// ValidateConfig checks config values and returns an error on failure.
// Call after LoadConfig to fail fast on invalid configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Port != "" {
		if _, err := strconv.Atoi(cfg.Port); err != nil {
			return fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
		}
	}
	if cfg.AcceptThreshold < 0 || cfg.AcceptThreshold > 1 {
		return fmt.Errorf("SDTM_ACCEPT_THRESHOLD must be in range 0..1")
	}
	if cfg.CTMatching != "strict" && cfg.CTMatching != "lenient" {
		return fmt.Errorf("SDTM_CT_MATCHING must be %q or %q, got %q", "strict", "lenient", cfg.CTMatching)
	}
	if cfg.AISuggestTimeout <= 0 {
		return fmt.Errorf("SDTM_AI_SUGGEST_TIMEOUT must be positive")
	}
	if cfg.HTTPClientTimeout <= 0 {
		return fmt.Errorf("SDTM_HTTP_CLIENT_TIMEOUT must be positive")
	}
	if len(cfg.TrustedProxies) == 0 {
		return fmt.Errorf("TRUSTED_PROXIES must have at least one entry")
	}
	for _, proxy := range cfg.TrustedProxies {
		if proxy == "" {
			return fmt.Errorf("TRUSTED_PROXIES must not contain empty entries")
		}
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err == nil {
			continue
		}
		return fmt.Errorf("TRUSTED_PROXIES entry %q must be a valid IP or CIDR", proxy)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat64(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var items []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
