package scoring

import "github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"

// DefaultLatencyScore applies to global workloads, unknown affinities and
// uncovered affinity/group pairs.
const DefaultLatencyScore = 0.6

// Recognized caller region affinities
const (
	AffinityAPSouth = "ap-south"
	AffinityEUWest  = "eu-west"
	AffinityUSEast  = "us-east"
	AffinityUSWest  = "us-west"
	AffinityGlobal  = "global"
)

// proximity maps a caller affinity to a latency proxy score per geography group
var proximity = map[string]map[regions.GeographyGroup]float64{
	AffinityAPSouth: {
		regions.GroupAPSouth:     1.0,
		regions.GroupAPSoutheast: 0.85,
		regions.GroupEU:          0.6,
		regions.GroupUSEast:      0.45,
		regions.GroupUSWest:      0.45,
	},
	AffinityEUWest: {
		regions.GroupEU:          1.0,
		regions.GroupUSEast:      0.8,
		regions.GroupUSWest:      0.7,
		regions.GroupAPSouth:     0.55,
		regions.GroupAPSoutheast: 0.55,
	},
	AffinityUSEast: {
		regions.GroupUSEast:      1.0,
		regions.GroupEU:          0.8,
		regions.GroupUSWest:      0.75,
		regions.GroupAPSouth:     0.5,
		regions.GroupAPSoutheast: 0.5,
	},
	AffinityUSWest: {
		regions.GroupUSWest:      1.0,
		regions.GroupUSEast:      0.8,
		regions.GroupAPSoutheast: 0.7,
		regions.GroupEU:          0.6,
		regions.GroupAPSouth:     0.5,
	},
}

// LatencyScore returns the latency proxy score (higher is closer) for serving a
// caller with the given affinity from a region in group.
func LatencyScore(affinity string, group regions.GeographyGroup) float64 {
	table, ok := proximity[affinity]
	if !ok {
		return DefaultLatencyScore
	}
	if score, ok := table[group]; ok {
		return score
	}
	return DefaultLatencyScore
}
