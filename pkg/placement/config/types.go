package config

import (
	"fmt"
	"time"
)

// Carbon intensity providers
const (
	ProviderElectricityMaps = "electricity-maps"
	ProviderPrometheus      = "prometheus"
	ProviderStatic          = "static"
)

// Config holds all configuration for the placement planner
type Config struct {
	API      ElectricityMapsAPIConfig `yaml:"api"`
	Cache    APICacheConfig           `yaml:"cache"`
	Carbon   CarbonConfig             `yaml:"carbon"`
	Pricing  PricingConfig            `yaml:"pricing"`
	Manifest ManifestConfig           `yaml:"manifest"`
	History  HistoryConfig            `yaml:"history"`
	Deploy   DeployConfig             `yaml:"deploy"`
	Server   ServerConfig             `yaml:"server"`
	Power    PowerConfig              `yaml:"power"`

	// RegionCatalogPath points at an optional YAML file replacing the built-in region table
	RegionCatalogPath string `yaml:"regionCatalogPath"`
}

// ElectricityMapsAPIConfig holds the Electricity Maps endpoint and credentials
type ElectricityMapsAPIConfig struct {
	APIKey string `yaml:"apiKey"`
	URL    string `yaml:"url"`
}

// APICacheConfig holds request and caching behaviour for the carbon API client
type APICacheConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"maxRetries"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
	RateLimit   int           `yaml:"rateLimit"` // requests per second
	CacheTTL    time.Duration `yaml:"cacheTTL"`
	MaxCacheAge time.Duration `yaml:"maxCacheAge"`
}

// CarbonConfig selects where live carbon intensity readings come from
type CarbonConfig struct {
	Provider string `yaml:"provider"`

	// ReadingTimeout bounds a single region lookup before it degrades to the static value
	ReadingTimeout time.Duration `yaml:"readingTimeout"`

	Prometheus PrometheusSourceConfig `yaml:"prometheus"`
}

// PrometheusSourceConfig configures the Prometheus-backed carbon source
type PrometheusSourceConfig struct {
	URL string `yaml:"url"`
	// Query is a format string receiving the Electricity Maps zone, e.g. carbon_intensity{zone="%s"}
	Query string `yaml:"query"`
}

// PricingConfig controls the currency plan costs are reported in
type PricingConfig struct {
	Provider     string  `yaml:"provider"` // "fixed"
	Currency     string  `yaml:"currency"`
	ExchangeRate float64 `yaml:"exchangeRate"` // units of Currency per USD
}

// ManifestConfig holds the workload defaults written into generated manifests
type ManifestConfig struct {
	Image         string `yaml:"image"`
	ContainerPort int32  `yaml:"containerPort"`
	ServicePort   int32  `yaml:"servicePort"`
	ServiceType   string `yaml:"serviceType"`
}

// HistoryConfig holds deployment history storage settings
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"databasePath"`
}

// DeployConfig holds cluster apply settings
type DeployConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Kubeconfig  string `yaml:"kubeconfig"`
	RegionCheck bool   `yaml:"regionCheck"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	PlanStoreSize   int           `yaml:"planStoreSize"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PowerConfig holds the power draw assumptions used for energy estimates
type PowerConfig struct {
	// PUE scales IT power to facility power
	PUE float64 `yaml:"pue"`
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	switch c.Carbon.Provider {
	case ProviderElectricityMaps:
		if c.API.URL == "" {
			return fmt.Errorf("electricity maps URL is required")
		}
	case ProviderPrometheus:
		if c.Carbon.Prometheus.URL == "" {
			return fmt.Errorf("prometheus URL is required for the prometheus carbon provider")
		}
		if c.Carbon.Prometheus.Query == "" {
			return fmt.Errorf("prometheus query is required for the prometheus carbon provider")
		}
	case ProviderStatic:
	default:
		return fmt.Errorf("unknown carbon provider: %s", c.Carbon.Provider)
	}

	if c.Carbon.ReadingTimeout <= 0 {
		return fmt.Errorf("carbon reading timeout must be positive")
	}

	if c.Cache.RateLimit <= 0 {
		return fmt.Errorf("API rate limit must be positive")
	}
	if c.Cache.MaxRetries < 0 {
		return fmt.Errorf("API max retries cannot be negative")
	}

	if c.Pricing.ExchangeRate <= 0 {
		return fmt.Errorf("exchange rate must be positive")
	}
	if c.Pricing.Currency == "" {
		return fmt.Errorf("currency is required")
	}

	if err := c.validateManifest(); err != nil {
		return fmt.Errorf("invalid manifest config: %w", err)
	}

	if c.History.Enabled && c.History.DatabasePath == "" {
		return fmt.Errorf("history database path is required when history is enabled")
	}

	if c.Power.PUE < 1 {
		return fmt.Errorf("PUE must be at least 1.0")
	}

	return nil
}

func (c *Config) validateManifest() error {
	if c.Manifest.Image == "" {
		return fmt.Errorf("image is required")
	}
	for name, port := range map[string]int32{
		"container port": c.Manifest.ContainerPort,
		"service port":   c.Manifest.ServicePort,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%s %d out of range", name, port)
		}
	}
	switch c.Manifest.ServiceType {
	case "ClusterIP", "NodePort", "LoadBalancer":
	default:
		return fmt.Errorf("unsupported service type: %s", c.Manifest.ServiceType)
	}
	return nil
}
