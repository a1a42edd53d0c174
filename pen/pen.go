// Package pen tracks physical and virtual pen state for one plot
// invocation (spec §4.3). It is a thin stateful wrapper whose operations
// report the number of milliseconds the physical servo move will block,
// so planning code can fold that time into its estimates — grounded on
// max6675's Device: a small struct wrapping a hardware dependency behind
// a handful of named methods, returning typed values rather than raw
// register words.
package pen

// Height is a pen-down servo height, 0-100 per spec §3.
type Height int

// Servo is the minimal actuator surface this package depends on.
// cmd/corexyplot's servoAdapter implements it over a gateway.Controller;
// tests may supply a fake.
type Servo interface {
	// SetHeight commands the physical servo to the given height (0-100,
	// where some caller-chosen value represents "up") and returns the
	// number of milliseconds the move takes.
	SetHeight(h Height) (durationMS int)
}

// Status tracks pen state across one plot invocation (spec §3 PenStatus).
type Status struct {
	servo Servo

	penUp           bool
	virtualPenUp    bool
	previewPenState int // 0 = down, 1 = up, -1 = unknown (preview only)
	liftCount       int

	upHeight   Height
	downHeight Height
	tempHeight *Height // non-nil while a layer +h override is active

	// ResumeMode suppresses physical servo motion: raise/lower only
	// update virtualPenUp and return 0ms, per spec §4.3/§4.7.
	ResumeMode bool
}

// New constructs a Status bound to a servo, with the given resting
// up/down heights.
func New(servo Servo, upHeight, downHeight Height) *Status {
	return &Status{
		servo:           servo,
		penUp:           true,
		virtualPenUp:    true,
		previewPenState: -1,
		upHeight:        upHeight,
		downHeight:      downHeight,
	}
}

// PenUp reports the physical pen state.
func (s *Status) PenUp() bool { return s.penUp }

// VirtualPenUp reports the pen state tracked during resume skipping.
func (s *Status) VirtualPenUp() bool { return s.virtualPenUp }

// LiftCount returns the number of physical lower-to-raise transitions
// observed so far.
func (s *Status) LiftCount() int { return s.liftCount }

func (s *Status) downTarget() Height {
	if s.tempHeight != nil {
		return *s.tempHeight
	}
	return s.downHeight
}

// Raise commands the pen up. During ResumeMode it only updates virtual
// state and returns 0, per spec §4.3/§4.7.
func (s *Status) Raise() int {
	wasUp := s.virtualPenUp
	s.virtualPenUp = true
	if s.ResumeMode {
		return 0
	}
	if s.penUp {
		return 0
	}
	s.penUp = true
	if !wasUp {
		s.liftCount++
	}
	return s.servo.SetHeight(s.upHeight)
}

// Lower commands the pen down, applying any active temporary height
// override. During ResumeMode it only updates virtual state.
func (s *Status) Lower() int {
	s.virtualPenUp = false
	if s.ResumeMode {
		return 0
	}
	if !s.penUp {
		return 0
	}
	s.penUp = false
	return s.servo.SetHeight(s.downTarget())
}

// Toggle flips the current physical pen state.
func (s *Status) Toggle() int {
	if s.penUp {
		return s.Lower()
	}
	return s.Raise()
}

// Cycle lowers then raises the pen, for calibration/diagnostic use
// (spec §5.4 manual modes).
func (s *Status) Cycle() int {
	return s.Lower() + s.Raise()
}

// SetTempHeight installs a per-layer pen-down height override (+h escape).
func (s *Status) SetTempHeight(h Height) {
	v := h
	s.tempHeight = &v
}

// EndTempHeight clears any active override, reverting to the resting
// pen-down height.
func (s *Status) EndTempHeight() {
	s.tempHeight = nil
}

// SyncPhysical re-commands the physical servo to match the virtual pen
// state accumulated while ResumeMode was active, then clears ResumeMode.
// Called once by the orchestrator (package plot) when package resume
// reports that the saved node index is reached (spec §4.7
// "re-commands the pen to its real state").
func (s *Status) SyncPhysical() int {
	s.ResumeMode = false
	if s.virtualPenUp {
		s.penUp = false // force Raise() to act, since penUp already true is a no-op
		return s.Raise()
	}
	s.penUp = true
	return s.Lower()
}

// PreviewPenState returns the state tracked for preview rendering only.
func (s *Status) PreviewPenState() int { return s.previewPenState }

// SetPreviewPenState records the pen state for preview rendering.
func (s *Status) SetPreviewPenState(v int) { s.previewPenState = v }
