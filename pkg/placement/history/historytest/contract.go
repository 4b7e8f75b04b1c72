// Package historytest provides contract tests for [history.Store]
// implementations.
package historytest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/history"
)

// Factory creates a fresh [history.Store] for each test.
type Factory func(t *testing.T) history.Store

// Run exercises the [history.Store] contract.
func Run(t *testing.T, factory Factory) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	rec := func(planID, plan, region string, at time.Time) history.Record {
		return history.NewRecord(history.Deployment{
			PlanID:          planID,
			Plan:            plan,
			Region:          region,
			CarbonIntensity: 100,
			Replicas:        2,
			WattsPerReplica: 25,
			CostPerHour:     0.08,
		}, 1.2, at)
	}

	t.Run("AppendAndList", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		want := []history.Record{
			rec("p1", "max-green", "eu-north-1", now),
			rec("p2", "budget", "ap-south-1", now.Add(time.Minute)),
		}
		for _, r := range want {
			if err := store.Append(ctx, r); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("List len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].PlanID != want[i].PlanID || got[i].Region != want[i].Region || got[i].Plan != want[i].Plan {
				t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
			}
			if got[i].Replicas != want[i].Replicas || got[i].CO2GramsPerHour != want[i].CO2GramsPerHour {
				t.Errorf("record %d values = %+v, want %+v", i, got[i], want[i])
			}
			if !got[i].DeployedAt.Equal(want[i].DeployedAt) {
				t.Errorf("record %d DeployedAt = %v, want %v", i, got[i].DeployedAt, want[i].DeployedAt)
			}
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		store := factory(t)
		got, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List len = %d, want 0", len(got))
		}
	})

	t.Run("AppendKeepsDuplicates", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		first := rec("p1", "balanced", "us-west-2", now)
		second := rec("p1", "balanced", "us-east-1", now.Add(time.Hour))
		_ = store.Append(ctx, first)
		if err := store.Append(ctx, second); err != nil {
			t.Fatalf("second Append: %v", err)
		}

		all, _ := store.List(ctx)
		if len(all) != 2 {
			t.Fatalf("List len = %d, want 2", len(all))
		}

		latest, err := store.Latest(ctx, "p1")
		if err != nil {
			t.Fatalf("Latest: %v", err)
		}
		if latest.Region != "us-east-1" {
			t.Errorf("Latest region = %q, want us-east-1", latest.Region)
		}
	})

	t.Run("LatestNotFound", func(t *testing.T) {
		store := factory(t)
		_, err := store.Latest(context.Background(), "missing")
		if !errors.Is(err, history.ErrNotFound) {
			t.Fatalf("Latest: got %v, want ErrNotFound", err)
		}
	})
}
