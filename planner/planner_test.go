package planner

import (
	"testing"

	"github.com/inkstep/corexy/kinematics"
)

func TestPlanDropsNearZeroVertices(t *testing.T) {
	points := []kinematics.Delta{
		{X: 0, Y: 0},
		{X: 0.0001, Y: 0}, // below MinVertexDist, should be dropped
		{X: 1, Y: 0},
	}
	lim := Limits{SpeedLimit: 2, AccelRate: 10, MinVertexDist: 0.001, CornerStraightThreshold: 0.001, CornerFallbackRho: DefaultCornerFallbackRho}

	got := Plan(points, lim)
	if len(got) != 2 {
		t.Fatalf("Plan() returned %d vertices, want 2 after filtering near-zero segment", len(got))
	}
	if got[0].Velocity != 0 || got[len(got)-1].Velocity != 0 {
		t.Error("endpoints of a straight line must have zero velocity")
	}
}

func TestPlanStraightLineCornersFast(t *testing.T) {
	// A perfectly straight corner (all three points colinear) should not
	// be slowed by the cornering term; it's limited only by acceleration
	// distance.
	points := []kinematics.Delta{
		{X: 0, Y: 0},
		{X: 5, Y: 0},
		{X: 10, Y: 0},
	}
	lim := Limits{SpeedLimit: 2, AccelRate: 10, MinVertexDist: 0.001, CornerStraightThreshold: 0.001, CornerFallbackRho: DefaultCornerFallbackRho}

	got := Plan(points, lim)
	if len(got) != 3 {
		t.Fatalf("Plan() returned %d vertices, want 3", len(got))
	}
	if got[1].Velocity < 1.9 {
		t.Errorf("straight-through vertex velocity = %v, want near SpeedLimit (2)", got[1].Velocity)
	}
}

func TestPlanSharpCornerSlowsDown(t *testing.T) {
	// A full reversal at the middle vertex should clamp velocity to
	// something far below the straight-line case.
	points := []kinematics.Delta{
		{X: 0, Y: 0},
		{X: 5, Y: 0},
		{X: 0, Y: 0},
	}
	lim := Limits{SpeedLimit: 2, AccelRate: 10, MinVertexDist: 0.001, CornerStraightThreshold: 0.001, CornerFallbackRho: DefaultCornerFallbackRho}

	got := Plan(points, lim)
	if len(got) != 3 {
		t.Fatalf("Plan() returned %d vertices, want 3", len(got))
	}
	if got[1].Velocity > 1.0 {
		t.Errorf("reversal-corner velocity = %v, want well below SpeedLimit (2)", got[1].Velocity)
	}
}

func TestPlanTooShortReturnsNil(t *testing.T) {
	points := []kinematics.Delta{{X: 0, Y: 0}}
	lim := Limits{SpeedLimit: 2, AccelRate: 10, MinVertexDist: 0.001}
	if got := Plan(points, lim); got != nil {
		t.Errorf("Plan() with a single point = %v, want nil", got)
	}
}
