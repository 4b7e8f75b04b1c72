package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown carbon provider",
			mutate:  func(c *Config) { c.Carbon.Provider = "watttime" },
			wantErr: true,
		},
		{
			name:    "electricity maps without URL",
			mutate:  func(c *Config) { c.API.URL = "" },
			wantErr: true,
		},
		{
			name: "prometheus without URL",
			mutate: func(c *Config) {
				c.Carbon.Provider = ProviderPrometheus
			},
			wantErr: true,
		},
		{
			name: "prometheus fully configured",
			mutate: func(c *Config) {
				c.Carbon.Provider = ProviderPrometheus
				c.Carbon.Prometheus.URL = "http://prometheus:9090"
			},
		},
		{
			name:   "static provider needs nothing else",
			mutate: func(c *Config) { c.Carbon.Provider = ProviderStatic; c.API.URL = "" },
		},
		{
			name:    "non-positive reading timeout",
			mutate:  func(c *Config) { c.Carbon.ReadingTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Cache.RateLimit = 0 },
			wantErr: true,
		},
		{
			name:    "negative exchange rate",
			mutate:  func(c *Config) { c.Pricing.ExchangeRate = -1 },
			wantErr: true,
		},
		{
			name:    "container port out of range",
			mutate:  func(c *Config) { c.Manifest.ContainerPort = 70000 },
			wantErr: true,
		},
		{
			name:    "unsupported service type",
			mutate:  func(c *Config) { c.Manifest.ServiceType = "ExternalName" },
			wantErr: true,
		},
		{
			name:    "history enabled without path",
			mutate:  func(c *Config) { c.History.DatabasePath = "" },
			wantErr: true,
		},
		{
			name:    "PUE below one",
			mutate:  func(c *Config) { c.Power.PUE = 0.8 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
