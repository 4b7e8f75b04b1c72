package regions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// Catalog is an ordered, immutable set of candidate regions. Order matters:
// it is the iteration order used for scoring and for breaking ties.
type Catalog struct {
	regions []Region
	index   map[string]int
}

// NewCatalog validates the given regions and builds a catalog preserving their order
func NewCatalog(regions []Region) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one region")
	}

	c := &Catalog{
		regions: make([]Region, len(regions)),
		index:   make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		if err := validateRegion(r); err != nil {
			return nil, fmt.Errorf("invalid region at index %d: %w", i, err)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("duplicate region id %q", r.ID)
		}
		c.regions[i] = r
		c.index[r.ID] = i
	}
	return c, nil
}

func validateRegion(r Region) error {
	if r.ID == "" {
		return fmt.Errorf("region id cannot be empty")
	}
	if r.DefaultCarbonIntensity <= 0 {
		return fmt.Errorf("default carbon intensity for %s must be positive", r.ID)
	}
	if r.HourlyCost <= 0 {
		return fmt.Errorf("hourly cost for %s must be positive", r.ID)
	}
	if !r.Group.IsValid() {
		return fmt.Errorf("unknown geography group %q for %s", r.Group, r.ID)
	}
	return nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := NewCatalog(defaultRegions)
	if err != nil {
		// The built-in table is static; failing here is a programming error
		panic(fmt.Sprintf("built-in region catalog is invalid: %v", err))
	}
	return c
}

// catalogFile is the on-disk shape of a region catalog
type catalogFile struct {
	Regions []Region `yaml:"regions"`
}

// LoadFile reads a YAML region catalog replacing the built-in table
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read region catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse region catalog: %w", err)
	}

	c, err := NewCatalog(file.Regions)
	if err != nil {
		return nil, err
	}

	klog.V(2).InfoS("Loaded region catalog", "path", path, "regions", c.Len())
	return c, nil
}

// Regions returns the catalog regions in catalog order. The slice is a copy.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// Len returns the number of regions in the catalog
func (c *Catalog) Len() int {
	return len(c.regions)
}

// Get looks up a region by ID
func (c *Catalog) Get(id string) (Region, bool) {
	i, ok := c.index[id]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}
