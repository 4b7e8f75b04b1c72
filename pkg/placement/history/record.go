// Package history keeps an append-only log of realized deployments and
// aggregates it for analytics.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a plan
var ErrNotFound = errors.New("not found")

// Record is one realized deployment of a plan
type Record struct {
	PlanID string `json:"planId"`
	// Plan is the strategy the deployed plan was generated for
	Plan            string  `json:"plan"`
	Region          string  `json:"region"`
	CarbonIntensity float64 `json:"carbonIntensity"`
	Replicas        int     `json:"replicas"`

	EnergyKWhPerHour float64 `json:"energyKWhPerHour"`
	CO2GramsPerHour  float64 `json:"co2GramsPerHour"`
	CostPerHour      float64 `json:"costPerHour"`

	DeployedAt time.Time `json:"deployedAt"`
}

// Deployment describes what was deployed, before energy estimation
type Deployment struct {
	PlanID          string
	Plan            string
	Region          string
	CarbonIntensity float64
	Replicas        int
	// WattsPerReplica is the average power draw of one replica
	WattsPerReplica float64
	// CostPerHour covers all replicas
	CostPerHour float64
}

// NewRecord estimates hourly energy and emissions for a deployment. pue scales
// IT power to facility power.
func NewRecord(d Deployment, pue float64, at time.Time) Record {
	if pue < 1 {
		pue = 1
	}
	energy := float64(d.Replicas) * d.WattsPerReplica * pue / 1000
	return Record{
		PlanID:           d.PlanID,
		Plan:             d.Plan,
		Region:           d.Region,
		CarbonIntensity:  d.CarbonIntensity,
		Replicas:         d.Replicas,
		EnergyKWhPerHour: energy,
		CO2GramsPerHour:  energy * d.CarbonIntensity,
		CostPerHour:      d.CostPerHour,
		DeployedAt:       at.UTC(),
	}
}

// Store is an append-only deployment log
type Store interface {
	// Append adds a record. Records are never updated or removed.
	Append(ctx context.Context, rec Record) error
	// List returns all records in append order
	List(ctx context.Context) ([]Record, error)
	// Latest returns the most recent record for a plan, or ErrNotFound
	Latest(ctx context.Context, planID string) (Record, error)
	Close() error
}
