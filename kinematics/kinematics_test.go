package kinematics

import "testing"

func TestStepScale(t *testing.T) {
	cases := []struct {
		native float64
		res    Resolution
		want   float64
	}{
		{1016, LowRes, 1016},
		{1016, HighRes, 2032},
	}
	for _, c := range cases {
		if got := StepScale(c.native, c.res); got != c.want {
			t.Errorf("StepScale(%v, %v) = %v, want %v", c.native, c.res, got, c.want)
		}
	}
}

func TestRoundTripMotorSteps(t *testing.T) {
	stepScale := 2032.0
	d := Delta{X: 10, Y: 0}
	m := ToMotorSteps(d, stepScale)
	if m.M1 != 20320 || m.M2 != 20320 {
		t.Fatalf("ToMotorSteps = %+v, want {20320 20320}", m)
	}
	back := FromMotorSteps(m, stepScale)
	if approxAbs(back.X-d.X) > 1/(2*stepScale) {
		t.Errorf("X round-trip error too large: got %v want ~%v", back.X, d.X)
	}
	if approxAbs(back.Y-d.Y) > 1/(2*stepScale) {
		t.Errorf("Y round-trip error too large: got %v want ~%v", back.Y, d.Y)
	}
}

func TestConstrain(t *testing.T) {
	if got := Constrain(5, 0, 3); got != 3 {
		t.Errorf("Constrain(5,0,3) = %v, want 3", got)
	}
	if got := Constrain(-1, 0, 3); got != 0 {
		t.Errorf("Constrain(-1,0,3) = %v, want 0", got)
	}
	if got := Constrain(2, 0, 3); got != 2 {
		t.Errorf("Constrain(2,0,3) = %v, want 2", got)
	}
}

func TestVelocityPrimitives(t *testing.T) {
	if got := VFinal(0, 50, 10); approxAbs(got-31.622776) > 1e-2 {
		t.Errorf("VFinal(0,50,10) = %v, want ~31.62", got)
	}
	if got := Dot(1, 0, 1, 0); got != 1 {
		t.Errorf("Dot of identical unit vectors = %v, want 1", got)
	}
	if got := Dot(1, 0, -1, 0); got != -1 {
		t.Errorf("Dot of opposed unit vectors = %v, want -1", got)
	}
	if got := Dist(3, 4); approxAbs(got-5) > 1e-2 {
		t.Errorf("Dist(3,4) = %v, want ~5", got)
	}
}

func approxAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
