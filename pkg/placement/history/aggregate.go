package history

import "sort"

// Summary aggregates a set of deployment records
type Summary struct {
	Deployments            int     `json:"deployments"`
	Replicas               int     `json:"replicas"`
	EnergyKWhPerHour       float64 `json:"energyKWhPerHour"`
	CO2GramsPerHour        float64 `json:"co2GramsPerHour"`
	CostPerHour            float64 `json:"costPerHour"`
	AverageCarbonIntensity float64 `json:"averageCarbonIntensity"`
}

// Group is the summary of the records sharing a key
type Group struct {
	Key string `json:"key"`
	Summary
}

// Summarize totals all records. The average carbon intensity is weighted by
// energy so larger deployments count for more; with no energy it falls back to
// the plain mean.
func Summarize(records []Record) Summary {
	var s Summary
	var intensitySum float64
	for _, r := range records {
		s.Deployments++
		s.Replicas += r.Replicas
		s.EnergyKWhPerHour += r.EnergyKWhPerHour
		s.CO2GramsPerHour += r.CO2GramsPerHour
		s.CostPerHour += r.CostPerHour
		intensitySum += r.CarbonIntensity
	}
	switch {
	case s.EnergyKWhPerHour > 0:
		s.AverageCarbonIntensity = s.CO2GramsPerHour / s.EnergyKWhPerHour
	case s.Deployments > 0:
		s.AverageCarbonIntensity = intensitySum / float64(s.Deployments)
	}
	return s
}

// GroupByPlan summarizes records per strategy, sorted by strategy name
func GroupByPlan(records []Record) []Group {
	return groupBy(records, func(r Record) string { return r.Plan })
}

// GroupByRegion summarizes records per region, sorted by region id
func GroupByRegion(records []Record) []Group {
	return groupBy(records, func(r Record) string { return r.Region })
}

func groupBy(records []Record, key func(Record) string) []Group {
	buckets := map[string][]Record{}
	for _, r := range records {
		k := key(r)
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]Group, 0, len(buckets))
	for k, recs := range buckets {
		groups = append(groups, Group{Key: k, Summary: Summarize(recs)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}
