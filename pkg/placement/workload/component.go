// Package workload describes the caller's workload components and derives
// replica sizing from them.
package workload

import (
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
)

// ComponentType tags what a workload component is
type ComponentType string

// Runtime component types consume compute capacity
const (
	TypeAPIGateway ComponentType = "api-gateway"
	TypeFrontend   ComponentType = "frontend"
	TypeContainer  ComponentType = "container"
	TypeFunction   ComponentType = "function"
)

// Common non-runtime types. Any type outside the runtime set is non-runtime.
const (
	TypeDatabase ComponentType = "database"
	TypeStorage  ComponentType = "storage"
	TypeQueue    ComponentType = "queue"
)

// MaxReplicas caps the estimated replica count
const MaxReplicas = 4

// Component is one building block of the caller's workload
type Component struct {
	Name string        `json:"name"`
	Type ComponentType `json:"type"`
}

// IsRuntime reports whether the component type counts toward replica sizing
// and gets a workload unit in the manifest
func (t ComponentType) IsRuntime() bool {
	switch t {
	case TypeAPIGateway, TypeFrontend, TypeContainer, TypeFunction:
		return true
	}
	return false
}

// RuntimeComponents returns the runtime components in input order
func RuntimeComponents(components []Component) []Component {
	var out []Component
	for _, c := range components {
		if c.Type.IsRuntime() {
			out = append(out, c)
		}
	}
	return out
}

// EstimateReplicas derives the replica count shared by every plan:
// ceil(runtime/2) floored at 1, one extra for strict tolerance with more than
// one runtime component, capped at MaxReplicas.
func EstimateReplicas(components []Component, tolerance strategy.LatencyTolerance) int {
	runtime := len(RuntimeComponents(components))

	replicas := (runtime + 1) / 2
	if replicas < 1 {
		replicas = 1
	}
	if tolerance == strategy.ToleranceStrict && runtime > 1 {
		replicas++
	}
	if replicas > MaxReplicas {
		replicas = MaxReplicas
	}
	return replicas
}
