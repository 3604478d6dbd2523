package config

import (
	"strings"
	"testing"
)

func TestValidateConfigTrustedProxies(t *testing.T) {
	t.Run("accepts valid IP and CIDR", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.TrustedProxies = []string{"127.0.0.1", "::1", "10.0.0.0/8"}

		if err := ValidateConfig(cfg); err != nil {
			t.Fatalf("expected trusted proxies to be valid, got error: %v", err)
		}
	})

	t.Run("rejects invalid trusted proxy entry", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.TrustedProxies = []string{"invalid-proxy-value"}

		err := ValidateConfig(cfg)
		if err == nil {
			t.Fatal("expected validation error for invalid trusted proxy")
		}
		if !strings.Contains(err.Error(), "TRUSTED_PROXIES") {
			t.Fatalf("expected TRUSTED_PROXIES error, got: %v", err)
		}
	})
}

func TestValidateConfigCTMatching(t *testing.T) {
	cfg := LoadConfig()
	cfg.CTMatching = "loose"

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid SDTM_CT_MATCHING")
	}
	if !strings.Contains(err.Error(), "SDTM_CT_MATCHING") {
		t.Fatalf("expected SDTM_CT_MATCHING error, got: %v", err)
	}
}

func TestValidateConfigAcceptThreshold(t *testing.T) {
	cfg := LoadConfig()
	cfg.AcceptThreshold = 1.5

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error for out-of-range SDTM_ACCEPT_THRESHOLD")
	}
	if !strings.Contains(err.Error(), "SDTM_ACCEPT_THRESHOLD") {
		t.Fatalf("expected SDTM_ACCEPT_THRESHOLD error, got: %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.Port != DefaultPort {
		t.Fatalf("expected default port %q, got %q", DefaultPort, cfg.Port)
	}
	if cfg.CTMatching != DefaultCTMatching {
		t.Fatalf("expected default ct_matching %q, got %q", DefaultCTMatching, cfg.CTMatching)
	}
	if !cfg.PreserveOnError {
		t.Fatal("expected preserve_on_error to default true")
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatal("expected no API key to be set by default in test environment")
	}
}
