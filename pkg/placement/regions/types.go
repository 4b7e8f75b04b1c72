// Package regions holds the fixed set of candidate deployment regions and
// their static grid, cost and geography attributes.
package regions

// GeographyGroup is the coarse location bucket used for latency estimation
type GeographyGroup string

const (
	GroupEU          GeographyGroup = "eu"
	GroupUSEast      GeographyGroup = "us-east"
	GroupUSWest      GeographyGroup = "us-west"
	GroupAPSouth     GeographyGroup = "ap-south"
	GroupAPSoutheast GeographyGroup = "ap-southeast"
)

// IsValid reports whether g is one of the known geography groups
func (g GeographyGroup) IsValid() bool {
	switch g {
	case GroupEU, GroupUSEast, GroupUSWest, GroupAPSouth, GroupAPSoutheast:
		return true
	}
	return false
}

// Region contains the fixed attributes of a candidate deployment region
type Region struct {
	// ID is the unique, stable region identifier (e.g. "eu-north-1")
	ID string `yaml:"id" json:"id"`

	// Label is a human-readable name
	Label string `yaml:"label" json:"label"`

	// DefaultCarbonIntensity in gCO2eq/kWh, used whenever no live reading is available
	DefaultCarbonIntensity float64 `yaml:"defaultCarbonIntensity" json:"defaultCarbonIntensity"`

	// HourlyCost is the base cost of one replica per hour in USD
	HourlyCost float64 `yaml:"hourlyCost" json:"hourlyCost"`

	// Group is the geography group used for latency estimation
	Group GeographyGroup `yaml:"group" json:"group"`

	// ElectricityMapsZone is the corresponding zone ID in Electricity Maps API
	ElectricityMapsZone string `yaml:"electricityMapsZone" json:"electricityMapsZone,omitempty"`
}
