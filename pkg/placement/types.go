package placement

import (
	"errors"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/workload"
)

// ErrInvalidRequest is wrapped by every request validation failure
var ErrInvalidRequest = errors.New("invalid planning request")

// Request is a single planning request
type Request struct {
	Components             []workload.Component `json:"components"`
	UserRegionAffinity     string               `json:"userRegionAffinity"`
	LatencyTolerance       string               `json:"latencyTolerance"`
	OptimizationPreference string               `json:"optimizationPreference"`
}

// Scores are the per-criterion scores of the selected region, rounded to two
// decimals
type Scores struct {
	CO2     float64 `json:"co2"`
	Latency float64 `json:"latency"`
	Cost    float64 `json:"cost"`
	Overall float64 `json:"overall"`
}

// Plan is the outcome of evaluating one strategy
type Plan struct {
	ID          string            `json:"id"`
	Strategy    strategy.Strategy `json:"strategy"`
	Description string            `json:"description"`

	Region      string `json:"region"`
	RegionLabel string `json:"regionLabel"`

	InstanceClass strategy.InstanceClass `json:"instanceClass"`
	Replicas      int                    `json:"replicas"`

	Scores  Scores           `json:"scores"`
	Weights strategy.Weights `json:"weights"`
	Carbon  carbon.Reading   `json:"carbonReading"`

	// EstimatedHourlyCost covers all replicas, in Currency
	EstimatedHourlyCost float64 `json:"estimatedHourlyCost"`
	Currency            string  `json:"currency"`

	Notes    []string `json:"notes"`
	Manifest string   `json:"manifest"`

	// Document is the structured manifest Manifest was rendered from
	Document *manifest.Manifest `json:"-"`
}

// Result holds the plans of every strategy for one request
type Result struct {
	Plans []*Plan `json:"plans"`

	// Preference is the strategy the caller asked for
	Preference        strategy.Strategy `json:"preference"`
	RecommendedPlanID string            `json:"recommendedPlanId"`

	Readings []carbon.Reading `json:"readings"`
}

// Recommended returns the plan of the caller's preferred strategy
func (r *Result) Recommended() *Plan {
	return r.ForStrategy(r.Preference)
}

// ForStrategy returns the plan generated for s, or nil
func (r *Result) ForStrategy(s strategy.Strategy) *Plan {
	for _, p := range r.Plans {
		if p.Strategy == s {
			return p
		}
	}
	return nil
}
