package mock

import (
	"context"
	"sync"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

// MockCarbon returns fixed live values per region id. Regions without a value
// get their fallback reading.
type MockCarbon struct {
	values map[string]float64

	mu    sync.Mutex
	calls []string
}

// New creates a mock source with the given live values keyed by region id
func New(values map[string]float64) *MockCarbon {
	return &MockCarbon{values: values}
}

// GetReading implements carbon.Implementation
func (m *MockCarbon) GetReading(_ context.Context, region regions.Region) carbon.Reading {
	m.mu.Lock()
	m.calls = append(m.calls, region.ID)
	m.mu.Unlock()

	if v, ok := m.values[region.ID]; ok {
		return carbon.Reading{Region: region.ID, Value: v, Source: carbon.SourceLive}
	}
	return carbon.Fallback(region)
}

// Calls returns the region ids requested so far
func (m *MockCarbon) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockCarbonImplementation delegates to GetReadingFunc for full control in tests
type MockCarbonImplementation struct {
	GetReadingFunc func(ctx context.Context, region regions.Region) carbon.Reading
}

// GetReading delegates to the mock function
func (m *MockCarbonImplementation) GetReading(ctx context.Context, region regions.Region) carbon.Reading {
	if m.GetReadingFunc != nil {
		return m.GetReadingFunc(ctx, region)
	}
	return carbon.Fallback(region)
}
