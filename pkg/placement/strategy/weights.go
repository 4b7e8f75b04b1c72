package strategy

import "fmt"

// LatencyTolerance is the caller's declared sensitivity to network latency
type LatencyTolerance string

const (
	ToleranceStrict   LatencyTolerance = "strict"
	ToleranceBalanced LatencyTolerance = "balanced"
	ToleranceRelaxed  LatencyTolerance = "relaxed"
)

// ParseTolerance converts a caller-supplied tolerance. Empty and unrecognized
// values fall back to ToleranceBalanced; the second return reports whether the
// input was recognized.
func ParseTolerance(s string) (LatencyTolerance, bool) {
	switch t := LatencyTolerance(s); t {
	case ToleranceStrict, ToleranceBalanced, ToleranceRelaxed:
		return t, true
	case "":
		return ToleranceBalanced, true
	}
	return ToleranceBalanced, false
}

// Weights are the relative importance of each score
type Weights struct {
	CO2     float64 `json:"co2"`
	Latency float64 `json:"latency"`
	Cost    float64 `json:"cost"`
}

// Sum returns the total of the three weights
func (w Weights) Sum() float64 {
	return w.CO2 + w.Latency + w.Cost
}

// scale multiplies each weight by the matching factor
func (w Weights) scale(co2, latency, cost float64) Weights {
	return Weights{CO2: w.CO2 * co2, Latency: w.Latency * latency, Cost: w.Cost * cost}
}

// normalized divides each weight by the total so they sum to one
func (w Weights) normalized() Weights {
	sum := w.Sum()
	return Weights{CO2: w.CO2 / sum, Latency: w.Latency / sum, Cost: w.Cost / sum}
}

// WeightsFor returns the normalized weights for a strategy adjusted for tolerance.
// Unrecognized tolerances leave the base weights unchanged.
func WeightsFor(s Strategy, t LatencyTolerance) (Weights, error) {
	p, ok := profiles[s]
	if !ok {
		return Weights{}, fmt.Errorf("unknown optimization strategy %q", s)
	}

	w := p.Base
	switch t {
	case ToleranceStrict:
		w = w.scale(0.9, 1.2, 0.9)
	case ToleranceRelaxed:
		w = w.scale(1.1, 0.7, 1.1)
	}

	// Always renormalize so base tables never have to sum exactly to one
	return w.normalized(), nil
}
