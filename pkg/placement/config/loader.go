package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// Default returns the built-in configuration before files and environment are applied
func Default() *Config {
	return &Config{
		API: ElectricityMapsAPIConfig{
			URL: "https://api.electricitymap.org/v3/carbon-intensity/latest",
		},
		Cache: APICacheConfig{
			Timeout:     10 * time.Second,
			MaxRetries:  2,
			RetryDelay:  500 * time.Millisecond,
			RateLimit:   10,
			CacheTTL:    5 * time.Minute,
			MaxCacheAge: time.Hour,
		},
		Carbon: CarbonConfig{
			Provider:       ProviderElectricityMaps,
			ReadingTimeout: 4 * time.Second,
			Prometheus: PrometheusSourceConfig{
				Query: `carbon_intensity_gco2_per_kwh{zone="%s"}`,
			},
		},
		Pricing: PricingConfig{
			Provider:     "fixed",
			Currency:     "USD",
			ExchangeRate: 1.0,
		},
		Manifest: ManifestConfig{
			Image:         "nginx:1.27-alpine",
			ContainerPort: 8080,
			ServicePort:   80,
			ServiceType:   "LoadBalancer",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "/var/lib/placement-planner/history.db",
		},
		Deploy: DeployConfig{
			Enabled: false,
		},
		Server: ServerConfig{
			Port:            8080,
			RequestTimeout:  15 * time.Second,
			PlanStoreSize:   256,
			ShutdownTimeout: 5 * time.Second,
		},
		Power: PowerConfig{
			PUE: 1.2,
		},
	}
}

// LoadFromEnv loads configuration from an optional YAML file (PLANNER_CONFIG_PATH)
// and then applies environment variable overrides
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("PLANNER_CONFIG_PATH"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	klog.V(2).InfoS("Loaded configuration",
		"carbonProvider", cfg.Carbon.Provider,
		"hasAPIKey", cfg.API.APIKey != "",
		"currency", cfg.Pricing.Currency,
		"historyEnabled", cfg.History.Enabled,
		"deployEnabled", cfg.Deploy.Enabled,
		"regionCatalogPath", cfg.RegionCatalogPath)

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.API.APIKey = getEnvOrDefault("ELECTRICITY_MAP_API_KEY", cfg.API.APIKey)
	cfg.API.URL = getEnvOrDefault("ELECTRICITY_MAP_API_URL", cfg.API.URL)

	cfg.Cache.Timeout = getDurationOrDefault("API_TIMEOUT", cfg.Cache.Timeout)
	cfg.Cache.MaxRetries = getIntOrDefault("API_MAX_RETRIES", cfg.Cache.MaxRetries)
	cfg.Cache.RetryDelay = getDurationOrDefault("API_RETRY_DELAY", cfg.Cache.RetryDelay)
	cfg.Cache.RateLimit = getIntOrDefault("API_RATE_LIMIT", cfg.Cache.RateLimit)
	cfg.Cache.CacheTTL = getDurationOrDefault("CACHE_TTL", cfg.Cache.CacheTTL)
	cfg.Cache.MaxCacheAge = getDurationOrDefault("MAX_CACHE_AGE", cfg.Cache.MaxCacheAge)

	cfg.Carbon.Provider = getEnvOrDefault("CARBON_PROVIDER", cfg.Carbon.Provider)
	cfg.Carbon.ReadingTimeout = getDurationOrDefault("CARBON_READING_TIMEOUT", cfg.Carbon.ReadingTimeout)
	cfg.Carbon.Prometheus.URL = getEnvOrDefault("CARBON_PROMETHEUS_URL", cfg.Carbon.Prometheus.URL)
	cfg.Carbon.Prometheus.Query = getEnvOrDefault("CARBON_PROMETHEUS_QUERY", cfg.Carbon.Prometheus.Query)

	cfg.Pricing.Provider = getEnvOrDefault("PRICING_PROVIDER", cfg.Pricing.Provider)
	cfg.Pricing.Currency = getEnvOrDefault("PRICING_CURRENCY", cfg.Pricing.Currency)
	cfg.Pricing.ExchangeRate = getFloatOrDefault("PRICING_EXCHANGE_RATE", cfg.Pricing.ExchangeRate)

	cfg.Manifest.Image = getEnvOrDefault("MANIFEST_IMAGE", cfg.Manifest.Image)
	cfg.Manifest.ContainerPort = int32(getIntOrDefault("MANIFEST_CONTAINER_PORT", int(cfg.Manifest.ContainerPort)))
	cfg.Manifest.ServicePort = int32(getIntOrDefault("MANIFEST_SERVICE_PORT", int(cfg.Manifest.ServicePort)))
	cfg.Manifest.ServiceType = getEnvOrDefault("MANIFEST_SERVICE_TYPE", cfg.Manifest.ServiceType)

	cfg.History.Enabled = getBoolOrDefault("HISTORY_ENABLED", cfg.History.Enabled)
	cfg.History.DatabasePath = getEnvOrDefault("HISTORY_DATABASE_PATH", cfg.History.DatabasePath)

	cfg.Deploy.Enabled = getBoolOrDefault("DEPLOY_ENABLED", cfg.Deploy.Enabled)
	cfg.Deploy.Kubeconfig = getEnvOrDefault("KUBECONFIG", cfg.Deploy.Kubeconfig)
	cfg.Deploy.RegionCheck = getBoolOrDefault("DEPLOY_REGION_CHECK", cfg.Deploy.RegionCheck)

	cfg.Server.Port = getIntOrDefault("SERVER_PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = getDurationOrDefault("SERVER_REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.PlanStoreSize = getIntOrDefault("PLAN_STORE_SIZE", cfg.Server.PlanStoreSize)

	cfg.Power.PUE = getFloatOrDefault("DEFAULT_PUE", cfg.Power.PUE)

	cfg.RegionCatalogPath = getEnvOrDefault("REGION_CATALOG_PATH", cfg.RegionCatalogPath)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid integer value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseFloat(strValue, 64); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid float value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if strValue := os.Getenv(key); strValue != "" {
		value, err := strconv.ParseBool(strValue)
		if err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid boolean value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := time.ParseDuration(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid duration value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}
