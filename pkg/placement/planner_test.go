package placement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	k8smetrictestutil "k8s.io/component-base/metrics/testutil"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon/mock"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
	pricingmock "github.com/elevated-systems/carbon-placement-planner/pkg/placement/pricing/mock"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/workload"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}

func newTestPlanner(source carbon.Implementation, opts ...Option) *Planner {
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return New(regions.Default(), source, manifest.NewGenerator(config.Default().Manifest), opts...)
}

var apiOnly = []workload.Component{{Name: "api", Type: workload.TypeAPIGateway}}

func TestPlanMaxGreenPicksLowestCarbon(t *testing.T) {
	tests := []struct {
		name       string
		live       map[string]float64
		wantRegion string
	}{
		{
			name:       "static defaults",
			live:       nil,
			wantRegion: "eu-north-1",
		},
		{
			name:       "live reading makes us-east-1 cleanest",
			live:       map[string]float64{"us-east-1": 5},
			wantRegion: "us-east-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlanner(mock.New(tt.live))
			result, err := p.Plan(context.Background(), Request{
				Components:         apiOnly,
				UserRegionAffinity: "eu-west",
				LatencyTolerance:   "balanced",
			})
			require.NoError(t, err)
			require.Len(t, result.Plans, 3)

			green := result.ForStrategy(strategy.MaxGreen)
			require.NotNil(t, green)
			assert.Equal(t, tt.wantRegion, green.Region)
			assert.Equal(t, "eco-small", green.InstanceClass.Name)
			assert.Equal(t, 1, green.Replicas)

			lowest := result.Readings[0]
			for _, r := range result.Readings {
				if r.Value < lowest.Value {
					lowest = r
				}
			}
			assert.Equal(t, lowest.Region, green.Region)
			assert.Equal(t, lowest, green.Carbon)
			assert.Equal(t, 1.0, green.Scores.CO2)
		})
	}
}

func TestPlanRejectsEmptyComponents(t *testing.T) {
	source := mock.New(nil)
	p := newTestPlanner(source)

	for _, components := range [][]workload.Component{nil, {}} {
		result, err := p.Plan(context.Background(), Request{Components: components, UserRegionAffinity: "eu-west"})
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, ErrInvalidRequest), "expected ErrInvalidRequest, got %v", err)
	}
	assert.Empty(t, source.Calls(), "no reading should be requested for an invalid request")
}

func TestPlanRejectsUnknownPreference(t *testing.T) {
	p := newTestPlanner(mock.New(nil))
	_, err := p.Plan(context.Background(), Request{Components: apiOnly, OptimizationPreference: "fastest"})
	assert.True(t, errors.Is(err, ErrInvalidRequest), "expected ErrInvalidRequest, got %v", err)
}

func TestPlanUniformCarbon(t *testing.T) {
	// every region reports the same intensity
	source := &mock.MockCarbonImplementation{
		GetReadingFunc: func(_ context.Context, r regions.Region) carbon.Reading {
			return carbon.Reading{Region: r.ID, Value: 200, Source: carbon.SourceFallbackStatic}
		},
	}
	p := newTestPlanner(source)

	result, err := p.Plan(context.Background(), Request{Components: apiOnly, UserRegionAffinity: "ap-south"})
	require.NoError(t, err)

	for _, plan := range result.Plans {
		assert.Equal(t, 0.7, plan.Scores.CO2, "strategy %s", plan.Strategy)
		assert.Contains(t, strings.Join(plan.Notes, "\n"), "same carbon intensity")
	}
	// latency and cost both favour ap-south-1 for an ap-south caller
	assert.Equal(t, "ap-south-1", result.ForStrategy(strategy.MaxGreen).Region)
}

func TestPlanEveryStrategyInOrder(t *testing.T) {
	p := newTestPlanner(mock.New(nil))
	result, err := p.Plan(context.Background(), Request{
		Components: []workload.Component{
			{Name: "api", Type: workload.TypeAPIGateway},
			{Name: "web", Type: workload.TypeFrontend},
			{Name: "db", Type: workload.TypeDatabase},
		},
		UserRegionAffinity: "us-east",
		LatencyTolerance:   "strict",
	})
	require.NoError(t, err)

	var got []strategy.Strategy
	ids := map[string]bool{}
	for _, plan := range result.Plans {
		got = append(got, plan.Strategy)
		ids[plan.ID] = true

		assert.Equal(t, 2, plan.Replicas, "two runtime components with strict tolerance")
		assert.InDelta(t, 1.0, plan.Weights.Sum(), 1e-9)
		assert.NotEmpty(t, plan.Notes)
		assert.Contains(t, plan.Manifest, "kind: Namespace")
		assert.Equal(t, 2, len(plan.Document.Deployments))
		require.NotNil(t, plan.Document.Service)
		assert.Equal(t, "api", plan.Document.Service.Name)

		for _, v := range []float64{plan.Scores.CO2, plan.Scores.Latency, plan.Scores.Cost, plan.Scores.Overall} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			assert.Equal(t, round2(v), v, "scores are rounded to two decimals")
		}
	}
	assert.Equal(t, strategy.All(), got)
	assert.Len(t, ids, 3, "plan ids must be distinct")

	// balanced is the default preference
	assert.Equal(t, strategy.Balanced, result.Preference)
	assert.Equal(t, result.ForStrategy(strategy.Balanced).ID, result.RecommendedPlanID)
}

func TestPlanBudgetPrefersCheapRegion(t *testing.T) {
	p := newTestPlanner(mock.New(nil))
	result, err := p.Plan(context.Background(), Request{
		Components:             apiOnly,
		UserRegionAffinity:     "global",
		OptimizationPreference: "budget",
	})
	require.NoError(t, err)

	budget := result.Recommended()
	require.NotNil(t, budget)
	assert.Equal(t, strategy.Budget, budget.Strategy)
	assert.Equal(t, "burstable-small", budget.InstanceClass.Name)
	// ap-south-1 is the cheapest region; latency is flat for global callers
	assert.Equal(t, "ap-south-1", budget.Region)
}

func TestPlanUnknownToleranceFallsBack(t *testing.T) {
	p := newTestPlanner(mock.New(nil))
	result, err := p.Plan(context.Background(), Request{
		Components:       apiOnly,
		LatencyTolerance: "whenever",
	})
	require.NoError(t, err)

	plan := result.ForStrategy(strategy.Balanced)
	want, _ := strategy.WeightsFor(strategy.Balanced, strategy.ToleranceBalanced)
	assert.Equal(t, want, plan.Weights)
	assert.Contains(t, strings.Join(plan.Notes, "\n"), `"whenever" not recognized`)
}

func TestPlanCurrency(t *testing.T) {
	p := newTestPlanner(mock.New(nil), WithPricing(pricingmock.New("EUR", 2)))
	result, err := p.Plan(context.Background(), Request{
		Components:       []workload.Component{{Name: "a", Type: workload.TypeContainer}, {Name: "b", Type: workload.TypeContainer}},
		LatencyTolerance: "strict",
	})
	require.NoError(t, err)

	for _, plan := range result.Plans {
		region, ok := regions.Default().Get(plan.Region)
		require.True(t, ok)
		assert.Equal(t, "EUR", plan.Currency)
		assert.InDelta(t, region.HourlyCost*float64(plan.Replicas)*2, plan.EstimatedHourlyCost, 1e-12)
	}
}

func TestPlanDeterministicManifest(t *testing.T) {
	req := Request{
		Components:         []workload.Component{{Name: "Gateway", Type: workload.TypeAPIGateway}, {Name: "ui", Type: workload.TypeFrontend}},
		UserRegionAffinity: "us-west",
	}
	first, err := newTestPlanner(mock.New(nil)).Plan(context.Background(), req)
	require.NoError(t, err)
	second, err := newTestPlanner(mock.New(nil)).Plan(context.Background(), req)
	require.NoError(t, err)

	for i := range first.Plans {
		assert.Equal(t, first.Plans[i].Manifest, second.Plans[i].Manifest)
	}
}

func TestPlanNamespaceOnlyManifest(t *testing.T) {
	p := newTestPlanner(mock.New(nil))
	result, err := p.Plan(context.Background(), Request{
		Components: []workload.Component{{Name: "db", Type: workload.TypeDatabase}},
	})
	require.NoError(t, err)

	for _, plan := range result.Plans {
		assert.Equal(t, 1, plan.Replicas)
		assert.Empty(t, plan.Document.Deployments)
		assert.Nil(t, plan.Document.Service)
	}
}

func TestPlanCancelled(t *testing.T) {
	p := newTestPlanner(mock.New(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Plan(ctx, Request{Components: apiOnly})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidRequest))
}

type fakeCacheStats struct {
	hits, misses int64
}

func (f fakeCacheStats) GetMetrics() (int64, int64) {
	return f.hits, f.misses
}

func TestPlanExportsCacheStats(t *testing.T) {
	p := newTestPlanner(mock.New(nil), WithCacheStats(fakeCacheStats{hits: 7, misses: 3}))
	_, err := p.Plan(context.Background(), Request{Components: apiOnly})
	require.NoError(t, err)

	hits, err := k8smetrictestutil.GetGaugeMetricValue(CarbonCacheRequests.WithLabelValues("hit"))
	require.NoError(t, err)
	assert.Equal(t, float64(7), hits)

	misses, err := k8smetrictestutil.GetGaugeMetricValue(CarbonCacheRequests.WithLabelValues("miss"))
	require.NoError(t, err)
	assert.Equal(t, float64(3), misses)
}

func TestSelectRegionTieBreak(t *testing.T) {
	s := regionScores{
		co2:     []float64{0.5, 0.5, 0.5},
		latency: []float64{0.6, 0.6, 0.6},
		cost:    []float64{0.2, 0.2, 0.2},
	}
	best, _ := selectRegion(s, strategy.Weights{CO2: 0.34, Latency: 0.33, Cost: 0.33})
	assert.Equal(t, 0, best, "ties keep the first region in catalog order")

	s.cost[2] = 0.3
	best, _ = selectRegion(s, strategy.Weights{CO2: 0.34, Latency: 0.33, Cost: 0.33})
	assert.Equal(t, 2, best)
}
