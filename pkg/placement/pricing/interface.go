package pricing

import (
	"fmt"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/pricing/fixed"
)

// Implementation converts reference (USD) hourly costs into the reporting currency
type Implementation interface {
	// Convert returns the amount in the reporting currency
	Convert(usd float64) float64
	// Currency returns the ISO code of the reporting currency
	Currency() string
}

// Factory creates pricing implementations based on configuration
func Factory(cfg config.PricingConfig) (Implementation, error) {
	switch cfg.Provider {
	case "fixed", "":
		c, err := fixed.New(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown pricing provider: %s", cfg.Provider)
	}
}
