package executor

import (
	"testing"

	"github.com/inkstep/corexy/kinematics"
)

func baseLimits() Limits {
	return Limits{
		SpeedLimit:  2.0,
		AccelRate:   10.0,
		TimeSlice:   DefaultTimeSlice,
		MaxStepRate: 24000,
	}
}

func TestPlanSubStepMoveSkipped(t *testing.T) {
	curr := kinematics.Delta{X: 0, Y: 0}
	dest := kinematics.Delta{X: 0.00001, Y: 0} // far less than one step at any reasonable scale
	moves, _ := Plan(curr, dest, 0, 0, 1016, baseLimits())
	if moves != nil {
		t.Errorf("sub-step move should be dropped entirely, got %v", moves)
	}
}

func TestPlanLongMoveReachesTrapezoid(t *testing.T) {
	curr := kinematics.Delta{X: 0, Y: 0}
	dest := kinematics.Delta{X: 3, Y: 0} // long enough to cruise at full speed
	moves, actual := Plan(curr, dest, 0, 0, 1016, baseLimits())
	if len(moves) < 3 {
		t.Fatalf("expected multiple moves for a long trapezoid segment, got %d", len(moves))
	}
	if actual.X <= 0 {
		t.Errorf("actual delta X = %v, want > 0", actual.X)
	}
	var totalM1 int32
	for _, m := range moves {
		totalM1 += m.DeltaM1
		if m.DurationMS < 1 {
			t.Errorf("move duration must be at least 1ms, got %d", m.DurationMS)
		}
	}
	wantSteps := kinematics.ToMotorSteps(kinematics.Delta{X: actual.X, Y: actual.Y}, 1016)
	if totalM1 != wantSteps.M1 {
		t.Errorf("sum of DeltaM1 = %d, want %d (matching final motor position)", totalM1, wantSteps.M1)
	}
}

func TestPlanShortMoveUsesFallbackCase(t *testing.T) {
	curr := kinematics.Delta{X: 0, Y: 0}
	dest := kinematics.Delta{X: 0.01, Y: 0} // short hop: triangle/linear/constant territory
	moves, _ := Plan(curr, dest, 0, 0, 1016, baseLimits())
	if len(moves) == 0 {
		t.Fatal("expected at least one move for a short but step-significant segment")
	}
}

func TestPlanConstVelModeSkipsAccelProfile(t *testing.T) {
	lim := baseLimits()
	lim.ConstVel = true
	curr := kinematics.Delta{X: 0, Y: 0}
	dest := kinematics.Delta{X: 3, Y: 0} // long enough to trigger the trapezoid case otherwise
	moves, actual := Plan(curr, dest, 0, 0, 1016, lim)
	if len(moves) != 1 {
		t.Fatalf("const-velocity mode should emit a single move, got %d: %v", len(moves), moves)
	}
	wantMS := int(actual.X / lim.SpeedLimit * 1000)
	if d := moves[0].DurationMS - wantMS; d < -1 || d > 1 {
		t.Errorf("move duration = %dms, want ~%dms for a constant-speed crossing", moves[0].DurationMS, wantMS)
	}
}

func TestPlanRespectsMaxStepRate(t *testing.T) {
	lim := baseLimits()
	lim.MaxStepRate = 1 // absurdly low, forces the overspeed-correction loop to stretch durations
	curr := kinematics.Delta{X: 0, Y: 0}
	dest := kinematics.Delta{X: 1, Y: 0}
	moves, _ := Plan(curr, dest, 0, 0, 1016, lim)
	for _, m := range moves {
		rate1 := float64(abs32(m.DeltaM1)) * 1000 / float64(m.DurationMS) // steps/sec
		rate2 := float64(abs32(m.DeltaM2)) * 1000 / float64(m.DurationMS)
		if rate1 >= lim.MaxStepRate || rate2 >= lim.MaxStepRate {
			t.Errorf("move %+v exceeds MaxStepRate %v", m, lim.MaxStepRate)
		}
	}
}
