package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.StoreType != "postgres" {
		t.Errorf("StoreType = %q, want postgres", cfg.StoreType)
	}
	if cfg.ModelPath != "models/churn_model.json" {
		t.Errorf("ModelPath = %q", cfg.ModelPath)
	}
	if cfg.TokenPrefix != "cgk_" {
		t.Errorf("TokenPrefix = %q, want cgk_", cfg.TokenPrefix)
	}
	if cfg.RateLimitPerIP != 100 {
		t.Errorf("RateLimitPerIP = %d, want 100", cfg.RateLimitPerIP)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.Debug {
		t.Error("Debug defaults to true")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_HTTP_ADDR", ":9999")
	t.Setenv("STORE_TYPE", "memory")
	t.Setenv("RATE_LIMIT_PER_IP", "5")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.StoreType != "memory" {
		t.Errorf("StoreType = %q, want memory", cfg.StoreType)
	}
	if cfg.RateLimitPerIP != 5 {
		t.Errorf("RateLimitPerIP = %d, want 5", cfg.RateLimitPerIP)
	}
	if !cfg.Debug {
		t.Error("Debug not picked up from env")
	}
}

func validConfig() *Config {
	return &Config{
		AppEnv:         "dev",
		HTTPAddr:       ":8080",
		DatabaseDSN:    "postgres://localhost/churnguard",
		StoreType:      "postgres",
		ModelPath:      "models/churn_model.json",
		RateLimitPerIP: 100,
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad store type", func(c *Config) { c.StoreType = "redis" }, "STORE_TYPE"},
		{"postgres without dsn", func(c *Config) { c.DatabaseDSN = "" }, "DB_DSN"},
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }, "APP_HTTP_ADDR"},
		{"empty model path", func(c *Config) { c.ModelPath = "" }, "MODEL_PATH"},
		{"zero rate limit", func(c *Config) { c.RateLimitPerIP = 0 }, "RATE_LIMIT_PER_IP"},
		{"debug in prod", func(c *Config) { c.AppEnv = "prod"; c.Debug = true }, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error %q does not name field %s", err, tt.field)
			}
		})
	}
}

func TestValidateMemoryStoreNeedsNoDSN(t *testing.T) {
	cfg := validConfig()
	cfg.StoreType = "memory"
	cfg.DatabaseDSN = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory store without DSN rejected: %v", err)
	}
}
