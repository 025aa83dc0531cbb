package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != "file" {
		t.Fatalf("expected file backend by default, got %q", cfg.Store.Backend)
	}
	if !cfg.Pricing.DiscountRateDecimal().IsZero() {
		t.Fatalf("expected zero default discount rate, got %s", cfg.Pricing.DiscountRateDecimal())
	}
	if cfg.Locale.Currency != "EUR" {
		t.Fatalf("expected EUR currency default, got %q", cfg.Locale.Currency)
	}
}

func TestLoadRedisBackendRequiresAddr(t *testing.T) {
	t.Setenv("STOREFRONT_STORE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for redis backend without address")
	}
}

func TestLoadRedisAddrSelectsRedisBackend(t *testing.T) {
	t.Setenv("STOREFRONT_STORE_REDIS_ADDR", "localhost:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != "redis" {
		t.Fatalf("expected redis backend, got %q", cfg.Store.Backend)
	}
}

func TestLoadRejectsNegativeDiscountRate(t *testing.T) {
	t.Setenv("STOREFRONT_DISCOUNT_RATE", "-5")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for negative discount rate")
	}
	if !strings.Contains(err.Error(), "discount rate") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestLoadParsesDiscountRate(t *testing.T) {
	t.Setenv("STOREFRONT_DISCOUNT_RATE", "7.5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pricing.DiscountRateDecimal().String() != "7.5" {
		t.Fatalf("expected discount rate 7.5, got %s", cfg.Pricing.DiscountRateDecimal())
	}
}

func TestLoadRejectsBadCurrency(t *testing.T) {
	t.Setenv("STOREFRONT_CURRENCY", "EURO")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid currency code")
	}
}
