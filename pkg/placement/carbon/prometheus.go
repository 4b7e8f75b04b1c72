package carbon

import (
	"context"
	"fmt"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

type prometheusImpl struct {
	client  v1.API
	query   string
	timeout time.Duration
}

// NewPrometheus returns a source reading intensities from a Prometheus server.
// cfg.Query is a format string receiving the region's Electricity Maps zone.
func NewPrometheus(cfg config.PrometheusSourceConfig, timeout time.Duration) (Implementation, error) {
	client, err := promapi.NewClient(promapi.Config{Address: cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("error creating Prometheus client: %w", err)
	}

	klog.InfoS("Created Prometheus carbon intensity source",
		"prometheusURL", cfg.URL,
		"query", cfg.Query)

	return newPrometheusWithAPI(v1.NewAPI(client), cfg.Query, timeout), nil
}

func newPrometheusWithAPI(client v1.API, query string, timeout time.Duration) Implementation {
	return &prometheusImpl{client: client, query: query, timeout: timeout}
}

func (p *prometheusImpl) GetReading(ctx context.Context, region regions.Region) Reading {
	if region.ElectricityMapsZone == "" {
		return Fallback(region)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	value, err := p.queryZone(ctx, region.ElectricityMapsZone)
	if err != nil {
		klog.V(2).InfoS("Failed to query carbon intensity from Prometheus, using static value",
			"region", region.ID,
			"err", err)
		return Fallback(region)
	}
	return live(region, value)
}

func (p *prometheusImpl) queryZone(ctx context.Context, zone string) (float64, error) {
	query := fmt.Sprintf(p.query, zone)

	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("error querying Prometheus: %w", err)
	}
	if len(warnings) > 0 {
		klog.V(2).InfoS("Warnings received from Prometheus query",
			"warnings", warnings,
			"query", query)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from Prometheus: %s", result.Type().String())
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("no data for zone %s", zone)
	}
	return float64(vector[0].Value), nil
}
