package carbon

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/regions"
)

// GatherReadings fetches a reading for every region concurrently and waits for
// all of them. The result is index-aligned with regs.
func GatherReadings(ctx context.Context, impl Implementation, regs []regions.Region) []Reading {
	readings := make([]Reading, len(regs))

	var g errgroup.Group
	for i, r := range regs {
		g.Go(func() error {
			readings[i] = impl.GetReading(ctx, r)
			return nil
		})
	}
	// sources absorb their own failures
	_ = g.Wait()

	return readings
}
