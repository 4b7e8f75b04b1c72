// Package carbon provides per-region carbon intensity readings. Every source
// degrades to the catalog's static value instead of failing.
package carbon

import (
	"context"
	"fmt"
	"math"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/api"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

// SourceTag records where a reading came from
type SourceTag string

const (
	SourceLive           SourceTag = "live"
	SourceFallbackStatic SourceTag = "fallback-static"
)

// Reading is the carbon intensity used for one region during one request
type Reading struct {
	Region string    `json:"region"`
	Value  float64   `json:"value"`
	Source SourceTag `json:"source"`
}

// Implementation is a source of carbon intensity readings. GetReading never
// fails: any error, timeout or invalid value yields a fallback reading.
type Implementation interface {
	GetReading(ctx context.Context, region regions.Region) Reading
}

// Fallback returns the static reading for a region
func Fallback(region regions.Region) Reading {
	return Reading{
		Region: region.ID,
		Value:  region.DefaultCarbonIntensity,
		Source: SourceFallbackStatic,
	}
}

// live wraps a fetched value, falling back when it is not a usable intensity
func live(region regions.Region, value float64) Reading {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		klog.V(2).InfoS("Discarding invalid carbon intensity reading",
			"region", region.ID,
			"value", value)
		return Fallback(region)
	}
	return Reading{Region: region.ID, Value: value, Source: SourceLive}
}

// New creates the carbon source selected by cfg.Carbon.Provider. apiClient is
// only used by the Electricity Maps provider and may be nil otherwise.
func New(cfg *config.Config, apiClient *api.Client) (Implementation, error) {
	switch cfg.Carbon.Provider {
	case config.ProviderElectricityMaps:
		if apiClient == nil {
			return nil, fmt.Errorf("electricity maps provider requires an API client")
		}
		return NewElectricityMaps(apiClient, cfg.Carbon.ReadingTimeout), nil
	case config.ProviderPrometheus:
		return NewPrometheus(cfg.Carbon.Prometheus, cfg.Carbon.ReadingTimeout)
	case config.ProviderStatic:
		return NewStatic(), nil
	}
	return nil, fmt.Errorf("unknown carbon provider: %s", cfg.Carbon.Provider)
}

type staticImpl struct{}

// NewStatic returns a source that always reports the catalog default
func NewStatic() Implementation {
	return staticImpl{}
}

func (staticImpl) GetReading(_ context.Context, region regions.Region) Reading {
	return Fallback(region)
}
