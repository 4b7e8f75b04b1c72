package regions

// defaultRegions is the built-in candidate table, in catalog order.
// Carbon intensities are long-run grid averages used as the static fallback.
var defaultRegions = []Region{
	{
		ID:                     "eu-north-1",
		Label:                  "Europe (Stockholm)",
		DefaultCarbonIntensity: 30,
		HourlyCost:             0.0440,
		Group:                  GroupEU,
		ElectricityMapsZone:    "SE",
	},
	{
		ID:                     "eu-west-1",
		Label:                  "Europe (Ireland)",
		DefaultCarbonIntensity: 290,
		HourlyCost:             0.0416,
		Group:                  GroupEU,
		ElectricityMapsZone:    "IE",
	},
	{
		ID:                     "us-east-1",
		Label:                  "US East (N. Virginia)",
		DefaultCarbonIntensity: 380,
		HourlyCost:             0.0384,
		Group:                  GroupUSEast,
		ElectricityMapsZone:    "US-MIDA-PJM",
	},
	{
		ID:                     "us-west-2",
		Label:                  "US West (Oregon)",
		DefaultCarbonIntensity: 260,
		HourlyCost:             0.0384,
		Group:                  GroupUSWest,
		ElectricityMapsZone:    "US-NW-PACW",
	},
	{
		ID:                     "ap-south-1",
		Label:                  "Asia Pacific (Mumbai)",
		DefaultCarbonIntensity: 630,
		HourlyCost:             0.0368,
		Group:                  GroupAPSouth,
		ElectricityMapsZone:    "IN-WE",
	},
	{
		ID:                     "ap-southeast-1",
		Label:                  "Asia Pacific (Singapore)",
		DefaultCarbonIntensity: 470,
		HourlyCost:             0.0464,
		Group:                  GroupAPSoutheast,
		ElectricityMapsZone:    "SG",
	},
}
