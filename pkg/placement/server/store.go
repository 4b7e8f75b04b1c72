package server

import (
	"sync"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement"
)

// PlanStore keeps the most recently generated plans so they can be deployed
// by id. The oldest plans are evicted once capacity is reached.
type PlanStore struct {
	mu       sync.RWMutex
	capacity int
	plans    map[string]*placement.Plan
	order    []string
}

// NewPlanStore creates a store holding at most capacity plans
func NewPlanStore(capacity int) *PlanStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &PlanStore{
		capacity: capacity,
		plans:    make(map[string]*placement.Plan, capacity),
	}
}

// Put stores plans, evicting the oldest entries beyond capacity
func (s *PlanStore) Put(plans ...*placement.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range plans {
		if _, exists := s.plans[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.plans[p.ID] = p
	}
	for len(s.order) > s.capacity {
		delete(s.plans, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns a stored plan
func (s *PlanStore) Get(id string) (*placement.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	return p, ok
}

// Len returns the number of stored plans
func (s *PlanStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}
