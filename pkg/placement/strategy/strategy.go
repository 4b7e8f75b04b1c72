// Package strategy defines the optimization strategies, their weighting
// profiles and instance classes, and the latency tolerance adjustments.
package strategy

import (
	"fmt"
)

// Strategy is a named optimization preference
type Strategy string

const (
	MaxGreen Strategy = "max-green"
	Budget   Strategy = "budget"
	Balanced Strategy = "balanced"
)

// All returns every strategy in evaluation order
func All() []Strategy {
	return []Strategy{MaxGreen, Budget, Balanced}
}

// Parse converts a caller-supplied preference into a Strategy.
// An empty string selects Balanced.
func Parse(s string) (Strategy, error) {
	if s == "" {
		return Balanced, nil
	}
	st := Strategy(s)
	if _, ok := profiles[st]; !ok {
		return "", fmt.Errorf("unknown optimization strategy %q", s)
	}
	return st, nil
}

// InstanceClass describes the per-replica sizing associated with a strategy
type InstanceClass struct {
	Name string `json:"name"`

	// CPU and Memory are Kubernetes resource quantities for container requests
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`

	// Watts is the estimated average power draw of one replica
	Watts float64 `json:"watts"`
}

// Profile is the fixed record attached to each strategy
type Profile struct {
	Strategy      Strategy
	Description   string
	Base          Weights
	InstanceClass InstanceClass
}

var profiles = map[Strategy]Profile{
	MaxGreen: {
		Strategy:    MaxGreen,
		Description: "Minimize carbon emissions; prefer the cleanest grid even at higher cost",
		Base:        Weights{CO2: 0.60, Latency: 0.25, Cost: 0.15},
		InstanceClass: InstanceClass{
			Name:   "eco-small",
			CPU:    "250m",
			Memory: "256Mi",
			Watts:  12,
		},
	},
	Budget: {
		Strategy:    Budget,
		Description: "Minimize hourly cost; carbon is a secondary concern",
		Base:        Weights{CO2: 0.15, Latency: 0.25, Cost: 0.60},
		InstanceClass: InstanceClass{
			Name:   "burstable-small",
			CPU:    "200m",
			Memory: "256Mi",
			Watts:  15,
		},
	},
	Balanced: {
		Strategy:    Balanced,
		Description: "Weigh carbon, latency and cost evenly",
		Base:        Weights{CO2: 0.34, Latency: 0.33, Cost: 0.33},
		InstanceClass: InstanceClass{
			Name:   "standard-medium",
			CPU:    "500m",
			Memory: "512Mi",
			Watts:  25,
		},
	},
}

// ProfileFor returns the fixed profile of s
func ProfileFor(s Strategy) (Profile, error) {
	p, ok := profiles[s]
	if !ok {
		return Profile{}, fmt.Errorf("unknown optimization strategy %q", s)
	}
	return p, nil
}
