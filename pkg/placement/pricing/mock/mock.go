package mock

import (
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/pricing"
)

// MockPricing implements the pricing.Implementation interface for testing
type MockPricing struct {
	currency string
	rate     float64
}

// New creates a new mock pricing implementation
func New(currency string, rate float64) pricing.Implementation {
	return &MockPricing{currency: currency, rate: rate}
}

// Convert multiplies by the configured mock rate
func (m *MockPricing) Convert(usd float64) float64 {
	return usd * m.rate
}

// Currency returns the configured mock currency
func (m *MockPricing) Currency() string {
	return m.currency
}
