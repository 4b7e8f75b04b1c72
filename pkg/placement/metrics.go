package placement

import (
	"k8s.io/component-base/metrics"
	"k8s.io/component-base/metrics/legacyregistry"
)

const (
	// Subsystem name used for planner metrics
	plannerSubsystem = "placement_planner"
)

var (
	// CarbonIntensityGauge records the last carbon intensity used for a region
	CarbonIntensityGauge = metrics.NewGaugeVec(
		&metrics.GaugeOpts{
			Subsystem:      plannerSubsystem,
			Name:           "carbon_intensity",
			Help:           "Carbon intensity (gCO2eq/kWh) used for a region in the last plan",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"region", "source"},
	)

	// CarbonReadings counts readings by source
	CarbonReadings = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      plannerSubsystem,
			Name:           "carbon_reading_total",
			Help:           "Number of carbon intensity readings by source",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"source"}, // "live", "fallback-static"
	)

	// PlanningLatency measures the duration of planning requests
	PlanningLatency = metrics.NewHistogramVec(
		&metrics.HistogramOpts{
			Subsystem:      plannerSubsystem,
			Name:           "planning_duration_seconds",
			Help:           "Latency of planning requests",
			Buckets:        metrics.ExponentialBuckets(0.001, 2, 15),
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"result"},
	)

	// PlanningRequests counts planning requests by result
	PlanningRequests = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      plannerSubsystem,
			Name:           "planning_request_total",
			Help:           "Number of planning requests by result",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"result"}, // "success", "invalid", "error"
	)

	// SelectedRegions counts region selections per strategy
	SelectedRegions = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      plannerSubsystem,
			Name:           "selected_region_total",
			Help:           "Number of times a region was selected by a strategy",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"strategy", "region"},
	)

	// CarbonCacheRequests reports cumulative carbon cache lookups by result
	CarbonCacheRequests = metrics.NewGaugeVec(
		&metrics.GaugeOpts{
			Subsystem:      plannerSubsystem,
			Name:           "carbon_cache_requests",
			Help:           "Cumulative carbon intensity cache lookups by result",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"result"}, // "hit", "miss"
	)

	// DeploymentAttempts counts manifest applications by result
	DeploymentAttempts = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      plannerSubsystem,
			Name:           "deployment_attempt_total",
			Help:           "Number of plan deployments by result",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"result"}, // "success", "error"
	)
)

func init() {
	legacyregistry.MustRegister(CarbonIntensityGauge)
	legacyregistry.MustRegister(CarbonReadings)
	legacyregistry.MustRegister(PlanningLatency)
	legacyregistry.MustRegister(PlanningRequests)
	legacyregistry.MustRegister(SelectedRegions)
	legacyregistry.MustRegister(CarbonCacheRequests)
	legacyregistry.MustRegister(DeploymentAttempts)
}
