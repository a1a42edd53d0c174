// Package resume implements the Pause/Resume Controller (spec §4.7): it
// tracks the plot's node counter, decides when a plot should stop, and
// drives the skip-then-replay logic used when a saved checkpoint is
// resumed. Grounded on axidraw.py's pause_res_check (the per-node
// decision logic) and resume_plot_setup (the resume bootstrap).
package resume

import (
	"math"
	"sync/atomic"
)

// Code is a stop/pause reason, matching the sign and magnitude
// conventions of the reference driver's plot_status.stopped field:
// negative while a stop is being processed, then negated to a positive
// "reported" code once the caller has reacted to it.
type Code int

const (
	// None means the plot is running normally.
	None Code = 0
	// Programmatic is a stop requested by calling code (e.g. for test harnesses).
	Programmatic Code = -1
	// BetweenCopies is a pause between repeated copies of the same document.
	BetweenCopies Code = -2
	// Button is a stop triggered by the controller's physical pause button.
	Button Code = -102
	// Keyboard is a stop triggered by an interrupt signal (Ctrl-C) mid-plot.
	Keyboard Code = -103
	// LostUSB is a stop triggered by the serial connection dropping.
	LostUSB Code = -104
)

// HomeTolerance is the distance (inches) below which a saved position is
// treated as "already at home" by CanReturnHome.
const HomeTolerance = 0.001

// Outcome reports the result of one Advance call.
type Outcome struct {
	// Stop is true once the plot must halt; Code explains why. Code is
	// reported as a positive value (the negation the reference driver
	// performs once a stop has been fully handled).
	Stop bool
	Code Code

	// ResumeReached is true exactly once: the node at which a resumed
	// plot should switch from skipping (virtual pen only) to actually
	// drawing. The orchestrator should call pen.Status.SyncPhysical
	// when this is set.
	ResumeReached bool
}

// Controller holds the pause/resume state for one plot invocation.
type Controller struct {
	NodeCount  int
	NodeTarget int
	ResumeMode bool

	// DelayBetweenCopies is set by the orchestrator while it is in the
	// inter-copy delay loop; a pause request during that window is
	// reported as BetweenCopies rather than Button/Keyboard.
	DelayBetweenCopies bool

	// InterruptFlag is set from the host's signal handler (e.g. on
	// SIGINT) and polled by Advance at each node boundary. It is the
	// only piece of state in this package touched from outside the
	// orchestrator's single execution goroutine.
	InterruptFlag atomic.Bool

	stopped Code
}

// New returns a Controller ready for a fresh plot.
func New() *Controller {
	return &Controller{}
}

// RequestInterrupt records that an external interrupt (e.g. SIGINT) was
// received. Equivalent to c.InterruptFlag.Store(true); provided for
// callers that prefer a named method over touching the field directly.
func (c *Controller) RequestInterrupt() {
	c.InterruptFlag.Store(true)
}

// Advance runs the per-node pause/resume decision and increments the
// node counter when the plot is not stopping. buttonPressed reports
// whether the controller's pause button has latched since the last
// call.
func (c *Controller) Advance(buttonPressed bool) Outcome {
	if c.stopped > 0 {
		return Outcome{Stop: true, Code: c.stopped}
	}

	if c.InterruptFlag.Load() {
		c.InterruptFlag.Store(false)
		c.stopped = Keyboard
		if c.DelayBetweenCopies {
			c.stopped = BetweenCopies
		}
	}

	if c.stopped == None && buttonPressed {
		if c.DelayBetweenCopies {
			c.stopped = BetweenCopies
		} else {
			c.stopped = Button
		}
	}

	if c.stopped != None {
		// If we're already resuming and get paused again before reaching
		// the target node, skip straight to the end of resume mode: there
		// is nothing left to replay.
		if c.ResumeMode && c.NodeCount < c.NodeTarget {
			c.NodeCount = c.NodeTarget
		}
	}

	if c.stopped < 0 {
		reported := -c.stopped
		c.stopped = reported
		return Outcome{Stop: true, Code: reported}
	}

	c.NodeCount++

	var out Outcome
	if c.ResumeMode && c.NodeCount >= c.NodeTarget {
		c.ResumeMode = false
		out.ResumeReached = true
	}
	return out
}

// RequestStop schedules a programmatic stop, taking effect on the next
// Advance call.
func (c *Controller) RequestStop(code Code) {
	if c.stopped == None {
		c.stopped = code
	}
}

// BeginResume configures the controller to skip forward to targetNode
// before resuming real plotting, per resume_plot_setup.
func (c *Controller) BeginResume(targetNode int) {
	c.NodeTarget = targetNode
	c.ResumeMode = targetNode > 0
}

// CanReturnHome reports whether a "return to home" operation has
// anything to do, given the last known paused position (document
// inches, relative to the drawing's origin).
//
// The reference driver computes this as
// math.fabs(self.svg_last_known_x_old < 0.001), which evaluates the
// comparison *before* taking the absolute value and is therefore
// always comparing fabs(0) or fabs(1) rather than the intended
// tolerance check. This implementation applies Abs to the coordinate
// itself, as the surrounding comment and the analogous Y check both
// clearly intend.
func CanReturnHome(lastX, lastY float64) bool {
	return !(math.Abs(lastX) < HomeTolerance && math.Abs(lastY) < HomeTolerance)
}
