package main

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/api"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/cache"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/pricing"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

// components built from configuration; closers run in order on shutdown
type components struct {
	planner *placement.Planner
	closers []func()
}

func (c *components) Close() {
	for _, fn := range c.closers {
		fn()
	}
}

func loadCatalog(cfg *config.Config) (*regions.Catalog, error) {
	if cfg.RegionCatalogPath == "" {
		return regions.Default(), nil
	}
	catalog, err := regions.LoadFile(cfg.RegionCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load region catalog: %w", err)
	}
	return catalog, nil
}

func buildPlanner(cfg *config.Config) (*components, error) {
	c := &components{}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var apiClient *api.Client
	var opts []placement.Option
	if cfg.Carbon.Provider == config.ProviderElectricityMaps {
		dataCache := cache.New(cfg.Cache.CacheTTL, cfg.Cache.MaxCacheAge)
		c.closers = append(c.closers, dataCache.Close)
		opts = append(opts, placement.WithCacheStats(dataCache))
		apiClient = api.NewClient(cfg.API, cfg.Cache, api.WithCache(dataCache))
		if !apiClient.HasCredentials() {
			klog.InfoS("No Electricity Maps API key configured, static carbon values will be used")
		}
	}

	source, err := carbon.New(cfg, apiClient)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize carbon source: %w", err)
	}

	prices, err := pricing.Factory(cfg.Pricing)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize pricing: %w", err)
	}

	opts = append(opts, placement.WithPricing(prices))
	c.planner = placement.New(catalog, source, manifest.NewGenerator(cfg.Manifest), opts...)
	return c, nil
}
