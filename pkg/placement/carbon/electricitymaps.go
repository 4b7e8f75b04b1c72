package carbon

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/api"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

// IntensityClient is the part of api.Client used by the Electricity Maps source
type IntensityClient interface {
	HasCredentials() bool
	GetCarbonIntensity(ctx context.Context, zone string) (*api.ElectricityData, error)
}

type electricityMapsImpl struct {
	client  IntensityClient
	timeout time.Duration
}

// NewElectricityMaps returns a source backed by the Electricity Maps API.
// Each lookup is bounded by timeout.
func NewElectricityMaps(client IntensityClient, timeout time.Duration) Implementation {
	return &electricityMapsImpl{client: client, timeout: timeout}
}

func (e *electricityMapsImpl) GetReading(ctx context.Context, region regions.Region) Reading {
	if !e.client.HasCredentials() {
		klog.V(4).InfoS("No Electricity Maps API key, using static carbon intensity", "region", region.ID)
		return Fallback(region)
	}
	if region.ElectricityMapsZone == "" {
		klog.V(3).InfoS("Region has no Electricity Maps zone, using static carbon intensity", "region", region.ID)
		return Fallback(region)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	data, err := e.client.GetCarbonIntensity(ctx, region.ElectricityMapsZone)
	if err != nil {
		klog.V(2).InfoS("Failed to get live carbon intensity, using static value",
			"region", region.ID,
			"zone", region.ElectricityMapsZone,
			"err", err)
		return Fallback(region)
	}

	klog.V(3).InfoS("Fetched live carbon intensity",
		"region", region.ID,
		"zone", region.ElectricityMapsZone,
		"intensity", data.CarbonIntensity,
		"isEstimated", data.IsEstimated)
	return live(region, data.CarbonIntensity)
}
