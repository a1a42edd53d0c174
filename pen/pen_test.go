package pen

import "testing"

type fakeServo struct {
	calls []Height
}

func (f *fakeServo) SetHeight(h Height) int {
	f.calls = append(f.calls, h)
	return 200
}

func TestRaiseLowerAndLiftCount(t *testing.T) {
	servo := &fakeServo{}
	s := New(servo, 60, 30)

	if !s.PenUp() {
		t.Fatal("new Status should start pen-up")
	}
	if ms := s.Lower(); ms != 200 {
		t.Errorf("Lower() = %d, want 200", ms)
	}
	if s.PenUp() {
		t.Error("expected pen down after Lower")
	}
	if ms := s.Raise(); ms != 200 {
		t.Errorf("Raise() = %d, want 200", ms)
	}
	if s.LiftCount() != 1 {
		t.Errorf("LiftCount() = %d, want 1", s.LiftCount())
	}
	// Raising an already-raised pen is a no-op, no extra lift counted.
	if ms := s.Raise(); ms != 0 {
		t.Errorf("Raise() on already-up pen = %d, want 0", ms)
	}
	if s.LiftCount() != 1 {
		t.Errorf("LiftCount() after redundant Raise = %d, want 1", s.LiftCount())
	}
}

func TestResumeModeSuppressesServo(t *testing.T) {
	servo := &fakeServo{}
	s := New(servo, 60, 30)
	s.ResumeMode = true

	if ms := s.Lower(); ms != 0 {
		t.Errorf("Lower() during resume = %d, want 0", ms)
	}
	if !s.VirtualPenUp() == false {
		// virtual should now be down
	}
	if s.VirtualPenUp() {
		t.Error("virtual pen state should be down after Lower during resume")
	}
	if !s.PenUp() {
		t.Error("physical pen state must not change during resume")
	}
	if len(servo.calls) != 0 {
		t.Errorf("servo should not be called during resume, got %d calls", len(servo.calls))
	}
}

func TestSyncPhysicalAppliesVirtualState(t *testing.T) {
	servo := &fakeServo{}
	s := New(servo, 60, 30)
	s.ResumeMode = true
	s.Lower() // virtual down, physical untouched

	ms := s.SyncPhysical()
	if ms != 200 {
		t.Errorf("SyncPhysical() = %d, want 200", ms)
	}
	if s.ResumeMode {
		t.Error("SyncPhysical should clear ResumeMode")
	}
	if s.PenUp() {
		t.Error("physical pen should now be down, matching virtual state")
	}
}

func TestTempHeightOverride(t *testing.T) {
	servo := &fakeServo{}
	s := New(servo, 60, 30)
	s.SetTempHeight(90)
	s.Lower()
	if got := servo.calls[len(servo.calls)-1]; got != 90 {
		t.Errorf("Lower() with temp height commanded %v, want 90", got)
	}
	s.Raise()
	s.EndTempHeight()
	s.Lower()
	if got := servo.calls[len(servo.calls)-1]; got != 30 {
		t.Errorf("Lower() after EndTempHeight commanded %v, want 30", got)
	}
}
