// Package config loads runtime configuration from the environment, grouped by
// concern.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const envPrefix = "STOREFRONT"

// Config captures all runtime configuration.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Pricing PricingConfig
	Locale  LocaleConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `envconfig:"STOREFRONT_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"STOREFRONT_IDLE_TIMEOUT" default:"120s"`
}

// StoreConfig selects and configures the record store backend. When RedisAddr
// is set the redis backend is used, otherwise records live in files under
// StateDir (or purely in memory when Backend is "memory").
type StoreConfig struct {
	Backend       string `envconfig:"STOREFRONT_STORE_BACKEND" default:"file"`
	StateDir      string `envconfig:"STOREFRONT_STORE_STATE_DIR" default:"./data"`
	RedisAddr     string `envconfig:"STOREFRONT_STORE_REDIS_ADDR"`
	RedisPassword string `envconfig:"STOREFRONT_STORE_REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"STOREFRONT_STORE_REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"STOREFRONT_STORE_KEY_PREFIX" default:"storefront"`
}

// PricingConfig carries the storefront-wide discount rate as a percentage.
type PricingConfig struct {
	DiscountRate string `envconfig:"STOREFRONT_DISCOUNT_RATE" default:"0"`

	discountRate decimal.Decimal
}

// DiscountRateDecimal returns the parsed discount percentage.
func (p PricingConfig) DiscountRateDecimal() decimal.Decimal {
	return p.discountRate
}

// LocaleConfig controls currency presentation on confirmation surfaces.
type LocaleConfig struct {
	Currency string `envconfig:"STOREFRONT_CURRENCY" default:"EUR"`
	Language string `envconfig:"STOREFRONT_LANGUAGE" default:"fr-FR"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	if c.Server.Port == "" {
		return errors.New("config: server port is required")
	}

	backend := strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if strings.TrimSpace(c.Store.RedisAddr) != "" {
		backend = "redis"
	}
	switch backend {
	case "file", "memory":
	case "redis":
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return errors.New("config: redis backend requires STOREFRONT_STORE_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	c.Store.Backend = backend

	rate, err := decimal.NewFromString(strings.TrimSpace(c.Pricing.DiscountRate))
	if err != nil {
		return fmt.Errorf("config: invalid discount rate %q: %w", c.Pricing.DiscountRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("config: discount rate must not be negative, got %s", rate)
	}
	c.Pricing.discountRate = rate

	c.Locale.Currency = strings.ToUpper(strings.TrimSpace(c.Locale.Currency))
	if len(c.Locale.Currency) != 3 {
		return fmt.Errorf("config: currency must be a 3-letter ISO code, got %q", c.Locale.Currency)
	}
	if strings.TrimSpace(c.Locale.Language) == "" {
		return errors.New("config: language tag is required")
	}

	return nil
}
