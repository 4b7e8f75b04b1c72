package carbon_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/carbon/mock"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

func TestGatherReadingsPreservesOrder(t *testing.T) {
	regs := regions.Default().Regions()

	// later regions answer first
	impl := &mock.MockCarbonImplementation{
		GetReadingFunc: func(_ context.Context, r regions.Region) carbon.Reading {
			if r.ID == regs[0].ID {
				time.Sleep(10 * time.Millisecond)
			}
			return carbon.Reading{Region: r.ID, Value: r.DefaultCarbonIntensity + 1, Source: carbon.SourceLive}
		},
	}

	readings := carbon.GatherReadings(context.Background(), impl, regs)
	if len(readings) != len(regs) {
		t.Fatalf("got %d readings, want %d", len(readings), len(regs))
	}
	for i, r := range regs {
		if readings[i].Region != r.ID {
			t.Errorf("reading %d is for %s, want %s", i, readings[i].Region, r.ID)
		}
		if readings[i].Value != r.DefaultCarbonIntensity+1 {
			t.Errorf("reading %d value = %v", i, readings[i].Value)
		}
	}
}

func TestGatherReadingsRunsConcurrently(t *testing.T) {
	regs := regions.Default().Regions()

	var inFlight, peak atomic.Int32
	allStarted := make(chan struct{})
	var once sync.Once

	// every call blocks until all regions are in flight
	impl := &mock.MockCarbonImplementation{
		GetReadingFunc: func(_ context.Context, r regions.Region) carbon.Reading {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			if int(n) == len(regs) {
				once.Do(func() { close(allStarted) })
			}
			select {
			case <-allStarted:
			case <-time.After(2 * time.Second):
			}
			inFlight.Add(-1)
			return carbon.Fallback(r)
		},
	}

	readings := carbon.GatherReadings(context.Background(), impl, regs)
	if len(readings) != len(regs) {
		t.Fatalf("got %d readings, want %d", len(readings), len(regs))
	}
	if got := int(peak.Load()); got != len(regs) {
		t.Errorf("peak concurrent lookups = %d, want %d", got, len(regs))
	}
}

func TestGatherReadingsMixedSources(t *testing.T) {
	regs := regions.Default().Regions()
	m := mock.New(map[string]float64{"us-east-1": 410})

	readings := carbon.GatherReadings(context.Background(), m, regs)
	for i, r := range readings {
		if r.Region == "us-east-1" {
			if r.Source != carbon.SourceLive || r.Value != 410 {
				t.Errorf("us-east-1 reading = %+v", r)
			}
			continue
		}
		if r.Source != carbon.SourceFallbackStatic || r.Value != regs[i].DefaultCarbonIntensity {
			t.Errorf("%s reading = %+v", r.Region, r)
		}
	}
	if got := len(m.Calls()); got != len(regs) {
		t.Errorf("source called %d times, want %d", got, len(regs))
	}
}

func TestGatherReadingsEmpty(t *testing.T) {
	if got := carbon.GatherReadings(context.Background(), carbon.NewStatic(), nil); len(got) != 0 {
		t.Errorf("expected no readings, got %v", got)
	}
}
