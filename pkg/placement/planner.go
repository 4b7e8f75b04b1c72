// Package placement assembles carbon-aware placement plans: it gathers carbon
// readings for every catalog region, scores each region per strategy and emits
// a deployment manifest for the winner.
package placement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/pricing"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/scoring"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/workload"
)

// Planner generates plans for planning requests. It holds no per-request state
// and is safe for concurrent use.
type Planner struct {
	catalog   *regions.Catalog
	source    carbon.Implementation
	generator *manifest.Generator
	pricing   pricing.Implementation
	newID     func() string

	// cacheStats is nil when the carbon source has no cache
	cacheStats CacheStats
}

// CacheStats reports cumulative cache hits and misses
type CacheStats interface {
	GetMetrics() (hits, misses int64)
}

// Option customizes a Planner
type Option func(*Planner)

// WithIDGenerator replaces the plan id generator
func WithIDGenerator(fn func() string) Option {
	return func(p *Planner) {
		p.newID = fn
	}
}

// WithCacheStats exports the carbon cache counters after every lookup round
func WithCacheStats(stats CacheStats) Option {
	return func(p *Planner) {
		p.cacheStats = stats
	}
}

// WithPricing sets the currency plans report costs in
func WithPricing(impl pricing.Implementation) Option {
	return func(p *Planner) {
		p.pricing = impl
	}
}

// New creates a Planner over a region catalog and carbon source
func New(catalog *regions.Catalog, source carbon.Implementation, generator *manifest.Generator, opts ...Option) *Planner {
	p := &Planner{
		catalog:   catalog,
		source:    source,
		generator: generator,
		pricing:   referencePricing{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// referencePricing reports costs unconverted in USD
type referencePricing struct{}

func (referencePricing) Convert(usd float64) float64 { return usd }
func (referencePricing) Currency() string            { return "USD" }

// regionScores are the normalized per-region scores shared by all strategies
type regionScores struct {
	co2     []float64
	latency []float64
	cost    []float64
}

// Plan evaluates every strategy for req. It returns all plans or an error.
func (p *Planner) Plan(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result, err := p.plan(ctx, req)

	outcome := "success"
	switch {
	case err == nil:
	case isInvalid(err):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	PlanningRequests.WithLabelValues(outcome).Inc()
	PlanningLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return result, err
}

func (p *Planner) plan(ctx context.Context, req Request) (*Result, error) {
	if len(req.Components) == 0 {
		return nil, fmt.Errorf("%w: at least one component is required", ErrInvalidRequest)
	}
	preference, err := strategy.Parse(req.OptimizationPreference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	tolerance, knownTolerance := strategy.ParseTolerance(req.LatencyTolerance)

	regs := p.catalog.Regions()
	readings := carbon.GatherReadings(ctx, p.source, regs)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning aborted: %w", err)
	}
	p.recordReadings(readings)

	scores := scoreRegions(regs, readings, req.UserRegionAffinity)
	replicas := workload.EstimateReplicas(req.Components, tolerance)
	runtime := len(workload.RuntimeComponents(req.Components))

	klog.V(2).InfoS("Scored regions",
		"regions", len(regs),
		"affinity", req.UserRegionAffinity,
		"tolerance", tolerance,
		"replicas", replicas)

	result := &Result{Preference: preference, Readings: readings}
	for _, s := range strategy.All() {
		weights, err := strategy.WeightsFor(s, tolerance)
		if err != nil {
			return nil, err
		}
		profile, err := strategy.ProfileFor(s)
		if err != nil {
			return nil, err
		}

		best, overall := selectRegion(scores, weights)
		region := regs[best]

		plan := &Plan{
			ID:            p.newID(),
			Strategy:      s,
			Description:   profile.Description,
			Region:        region.ID,
			RegionLabel:   region.Label,
			InstanceClass: profile.InstanceClass,
			Replicas:      replicas,
			Scores: Scores{
				CO2:     round2(scores.co2[best]),
				Latency: round2(scores.latency[best]),
				Cost:    round2(scores.cost[best]),
				Overall: round2(overall),
			},
			Weights:             weights,
			Carbon:              readings[best],
			EstimatedHourlyCost: p.pricing.Convert(region.HourlyCost * float64(replicas)),
			Currency:            p.pricing.Currency(),
		}
		plan.Notes = notes(plan, scores, runtime, tolerance, knownTolerance, req.LatencyTolerance)

		plan.Document = p.generator.Build(manifest.Params{
			PlanID:        plan.ID,
			Strategy:      s,
			Region:        region.ID,
			InstanceClass: profile.InstanceClass,
			Replicas:      replicas,
			Components:    req.Components,
		})
		plan.Manifest, err = plan.Document.Render()
		if err != nil {
			return nil, fmt.Errorf("rendering manifest for %s plan: %w", s, err)
		}

		SelectedRegions.WithLabelValues(string(s), region.ID).Inc()
		klog.V(2).InfoS("Selected region for strategy",
			"strategy", s,
			"planID", plan.ID,
			"region", region.ID,
			"overall", plan.Scores.Overall,
			"carbonSource", plan.Carbon.Source)

		result.Plans = append(result.Plans, plan)
	}

	if rec := result.Recommended(); rec != nil {
		result.RecommendedPlanID = rec.ID
	}
	return result, nil
}

func (p *Planner) recordReadings(readings []carbon.Reading) {
	for _, r := range readings {
		CarbonReadings.WithLabelValues(string(r.Source)).Inc()
		CarbonIntensityGauge.WithLabelValues(r.Region, string(r.Source)).Set(r.Value)
	}
	if p.cacheStats != nil {
		hits, misses := p.cacheStats.GetMetrics()
		CarbonCacheRequests.WithLabelValues("hit").Set(float64(hits))
		CarbonCacheRequests.WithLabelValues("miss").Set(float64(misses))
	}
}

func scoreRegions(regs []regions.Region, readings []carbon.Reading, affinity string) regionScores {
	co2 := make([]float64, len(regs))
	cost := make([]float64, len(regs))
	latency := make([]float64, len(regs))
	for i, r := range regs {
		co2[i] = readings[i].Value
		cost[i] = r.HourlyCost
		latency[i] = scoring.LatencyScore(affinity, r.Group)
	}
	return regionScores{
		co2:     scoring.Normalize(co2, true),
		latency: latency,
		cost:    scoring.Normalize(cost, true),
	}
}

// selectRegion returns the index and overall score of the best region. Ties
// keep the earliest region in catalog order.
func selectRegion(s regionScores, w strategy.Weights) (int, float64) {
	best, bestScore := 0, math.Inf(-1)
	for i := range s.co2 {
		overall := s.co2[i]*w.CO2 + s.latency[i]*w.Latency + s.cost[i]*w.Cost
		if overall > bestScore {
			best, bestScore = i, overall
		}
	}
	return best, bestScore
}

func notes(plan *Plan, s regionScores, runtime int, tol strategy.LatencyTolerance, known bool, rawTolerance string) []string {
	out := []string{
		fmt.Sprintf("Selected %s (%s) with overall score %.2f", plan.RegionLabel, plan.Region, plan.Scores.Overall),
		fmt.Sprintf("Carbon intensity %.0f gCO2eq/kWh (%s)", plan.Carbon.Value, plan.Carbon.Source),
		fmt.Sprintf("%d replica(s) of %s for %d runtime component(s) with %s latency tolerance",
			plan.Replicas, plan.InstanceClass.Name, runtime, tol),
		fmt.Sprintf("Estimated cost %.4f %s per hour", plan.EstimatedHourlyCost, plan.Currency),
	}
	if uniform(s.co2) {
		out = append(out, "All regions report the same carbon intensity; selection driven by latency and cost")
	}
	if !known {
		out = append(out, fmt.Sprintf("Latency tolerance %q not recognized; using %s", rawTolerance, strategy.ToleranceBalanced))
	}
	if runtime == 0 {
		out = append(out, "No runtime components; manifest contains only the namespace")
	}
	return out
}

func uniform(values []float64) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
