package resume

import "testing"

func TestAdvanceCountsNodes(t *testing.T) {
	c := New()
	for i := 0; i < 5; i++ {
		out := c.Advance(false)
		if out.Stop {
			t.Fatalf("Advance() unexpectedly stopped at node %d", i)
		}
	}
	if c.NodeCount != 5 {
		t.Errorf("NodeCount = %d, want 5", c.NodeCount)
	}
}

func TestAdvanceButtonPressStops(t *testing.T) {
	c := New()
	c.Advance(false)
	out := c.Advance(true)
	if !out.Stop || out.Code != -Button {
		t.Errorf("Advance(true) = %+v, want Stop with Code -Button", out)
	}
	// Once stopped, further Advance calls report the same terminal code.
	out2 := c.Advance(false)
	if !out2.Stop || out2.Code != -Button {
		t.Errorf("Advance() after stop = %+v, want Stop with Code -Button", out2)
	}
}

func TestAdvanceBetweenCopiesOverridesButton(t *testing.T) {
	c := New()
	c.DelayBetweenCopies = true
	out := c.Advance(true)
	if !out.Stop || out.Code != -BetweenCopies {
		t.Errorf("Advance(true) during DelayBetweenCopies = %+v, want -BetweenCopies", out)
	}
}

func TestAdvanceInterruptStops(t *testing.T) {
	c := New()
	c.RequestInterrupt()
	out := c.Advance(false)
	if !out.Stop || out.Code != -Keyboard {
		t.Errorf("Advance() after RequestInterrupt = %+v, want -Keyboard", out)
	}
}

func TestResumeSkipsToTargetThenResumes(t *testing.T) {
	c := New()
	c.BeginResume(3)
	if !c.ResumeMode {
		t.Fatal("BeginResume should enter ResumeMode")
	}
	var out Outcome
	for i := 0; i < 3; i++ {
		out = c.Advance(false)
	}
	if !out.ResumeReached {
		t.Error("expected ResumeReached once NodeCount reaches NodeTarget")
	}
	if c.ResumeMode {
		t.Error("ResumeMode should be cleared once the target node is reached")
	}
}

func TestResumePausedAgainSkipsToEnd(t *testing.T) {
	c := New()
	c.BeginResume(10)
	c.Advance(false) // NodeCount = 1, still well short of target
	out := c.Advance(true)
	if !out.Stop {
		t.Fatal("expected a stop on button press")
	}
	if c.NodeCount != 10 {
		t.Errorf("NodeCount after re-pause during resume = %d, want 10 (skip to target)", c.NodeCount)
	}
}

func TestCanReturnHome(t *testing.T) {
	cases := []struct {
		x, y float64
		want bool
	}{
		{0, 0, false},
		{0.0001, 0.0001, false},
		{0.1, 0, true},
		{0, 0.1, true},
		{-0.5, 0, true},
	}
	for _, c := range cases {
		if got := CanReturnHome(c.x, c.y); got != c.want {
			t.Errorf("CanReturnHome(%v, %v) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}
