package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:              "8000",
		Env:               "production",
		DatabaseURL:       "postgres://localhost/lims",
		JWTSecret:         "secret",
		RequestTimeout:    30 * time.Second,
		LowStockThreshold: 10,
		ExpiryWindowDays:  30,
		AlertScanInterval: time.Hour,
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_RefusesProductionWithoutSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lims")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ENV=production and JWT_SECRET is unset")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error should name JWT_SECRET, got %q", err.Error())
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lims")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "top-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IsDev() {
		t.Error("expected IsDev false for ENV=production")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lims")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.LowStockThreshold != 10 {
		t.Errorf("expected default low-stock threshold 10, got %v", cfg.LowStockThreshold)
	}
	if cfg.ExpiryWindowDays != 30 {
		t.Errorf("expected default expiry window 30, got %d", cfg.ExpiryWindowDays)
	}
	if cfg.AlertScanInterval != time.Hour {
		t.Errorf("expected default scan interval 1h, got %v", cfg.AlertScanInterval)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev true for ENV=development")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid production", func(c *Config) {}, false},
		{"missing secret outside dev", func(c *Config) { c.JWTSecret = "" }, true},
		{"missing secret in dev", func(c *Config) { c.Env = "development"; c.JWTSecret = "" }, false},
		{"negative threshold", func(c *Config) { c.LowStockThreshold = -1 }, true},
		{"zero expiry window", func(c *Config) { c.ExpiryWindowDays = 0 }, true},
		{"negative scan interval", func(c *Config) { c.AlertScanInterval = -time.Minute }, true},
		{"scanner disabled", func(c *Config) { c.AlertScanInterval = 0 }, false},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
