package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/loanledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TENANT_TIMEZONE", "")
	t.Setenv("SCHEDULER_WORKERS", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if !cfg.SchedulerEnabled || cfg.SchedulerInterval != time.Hour || cfg.SchedulerWorkers != 1 {
		t.Fatalf("unexpected scheduler defaults: enabled=%v interval=%s workers=%d",
			cfg.SchedulerEnabled, cfg.SchedulerInterval, cfg.SchedulerWorkers)
	}

	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC tenant location, got %s", cfg.Location())
	}

	if cfg.DuesCacheTTL != time.Minute {
		t.Fatalf("expected 1m dues cache TTL, got %s", cfg.DuesCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("SCHEDULER_WORKERS", "8")
	t.Setenv("SCHEDULER_INTERVAL", "15m")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("TENANT_TIMEZONE", "Africa/Nairobi")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.SchedulerWorkers != 8 || cfg.SchedulerInterval != 15*time.Minute || cfg.SchedulerEnabled {
		t.Fatalf("expected scheduler overrides, got workers=%d interval=%s enabled=%v",
			cfg.SchedulerWorkers, cfg.SchedulerInterval, cfg.SchedulerEnabled)
	}

	if cfg.Location().String() != "Africa/Nairobi" {
		t.Fatalf("expected tenant location, got %s", cfg.Location())
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidScheduler(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "zero workers", key: "SCHEDULER_WORKERS", val: "0"},
		{name: "zero interval", key: "SCHEDULER_INTERVAL", val: "0s"},
		{name: "unknown timezone", key: "TENANT_TIMEZONE", val: "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
