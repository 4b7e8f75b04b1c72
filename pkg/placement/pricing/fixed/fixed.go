package fixed

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
)

// Converter applies a constant exchange rate
type Converter struct {
	currency string
	rate     float64
}

// New creates a fixed-rate converter
func New(cfg config.PricingConfig) (*Converter, error) {
	if cfg.ExchangeRate <= 0 {
		return nil, fmt.Errorf("exchange rate must be positive, got %v", cfg.ExchangeRate)
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "USD"
	}

	klog.V(2).InfoS("Initialized fixed-rate pricing",
		"currency", currency,
		"exchangeRate", cfg.ExchangeRate)

	return &Converter{currency: currency, rate: cfg.ExchangeRate}, nil
}

// Convert returns usd expressed in the configured currency
func (c *Converter) Convert(usd float64) float64 {
	return usd * c.rate
}

// Currency returns the configured currency code
func (c *Converter) Currency() string {
	return c.currency
}
