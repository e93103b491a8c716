package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LOT_THRESHOLD", "")
	t.Setenv("LOT_SIZE", "")
	cfg := FromEnv()
	if cfg.LotThreshold != 200 || cfg.LotSize != 25 {
		t.Fatalf("unexpected lot rule %d/%d", cfg.LotThreshold, cfg.LotSize)
	}
	if cfg.DeliveryFee != 2000 {
		t.Fatalf("unexpected delivery fee %d", cfg.DeliveryFee)
	}
	if cfg.CartStrictStock {
		t.Fatalf("strict stock should default to off")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LOT_THRESHOLD", "500")
	t.Setenv("CART_STRICT_STOCK", "true")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CART_CACHE_SIZE", "not-a-number")

	cfg := FromEnv()
	if cfg.LotThreshold != 500 {
		t.Fatalf("expected threshold 500, got %d", cfg.LotThreshold)
	}
	if !cfg.CartStrictStock {
		t.Fatalf("expected strict stock")
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.CartCacheSize != 1024 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.CartCacheSize)
	}
}
