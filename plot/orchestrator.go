package plot

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkstep/corexy/checkpoint"
	"github.com/inkstep/corexy/config"
	"github.com/inkstep/corexy/document"
	"github.com/inkstep/corexy/executor"
	"github.com/inkstep/corexy/gateway"
	"github.com/inkstep/corexy/internal/perr"
	"github.com/inkstep/corexy/kinematics"
	"github.com/inkstep/corexy/pen"
	"github.com/inkstep/corexy/planner"
	"github.com/inkstep/corexy/resume"
	"github.com/inkstep/corexy/warn"
)

// pageDelayStepMS is the polling granularity of the inter-copy page
// delay: long enough to avoid busy-waiting, short enough that a pause
// request during the delay is noticed promptly (spec §4.8).
const pageDelayStepMS = 100

// Stats accumulates the counters the reference driver reports at the
// end of a plot (distance pen-up/down, node count, layers plotted).
type Stats struct {
	DistancePenDown float64
	DistancePenUp   float64
	NodesPlotted    int
	LayersPlotted   int
}

// Orchestrator is the Plot Orchestrator of spec §4.8: it walks a
// document's layers and paths, driving the planner/executor for each
// path and the pen/gateway for each move, while the resume controller
// decides whether a given node is actually drawn or only tracked.
// Grounded on axidraw.py's plot_document/plot_polyline main loop and,
// structurally, on comboat.go's single top-level device struct that
// owns every subordinate component.
type Orchestrator struct {
	gw   *gateway.Controller
	pen  *pen.Status
	res  *resume.Controller
	warn *warn.Collector
	log  *logrus.Entry

	opts      config.Options
	stepScale float64

	curr kinematics.Delta

	voltageOK      bool
	voltageChecked bool

	stats Stats

	// curLayerIdx, curPathOrdinal, and pathNodeCount track where the
	// orchestrator is in the document so a stop mid-plot can be
	// checkpointed precisely; see capturePause.
	curLayerIdx    int
	curPathOrdinal int
	pathNodeCount  int
	paused         checkpoint.Progress
}

// New constructs an Orchestrator. opts must already have passed
// Validate.
func New(gw *gateway.Controller, p *pen.Status, opts config.Options, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		gw:        gw,
		pen:       p,
		res:       resume.New(),
		warn:      warn.New(),
		log:       log.WithField("component", "plot"),
		opts:      opts,
		stepScale: kinematics.StepScale(opts.NativeResFactor, opts.Resolution),
	}
}

// Warnings returns the collector accumulated over the run so far.
func (o *Orchestrator) Warnings() *warn.Collector { return o.warn }

// Stats returns the counters accumulated over the run so far.
func (o *Orchestrator) Stats() Stats { return o.stats }

// Resume returns the pause/resume controller, so the host can wire a
// signal handler to it (e.g. res.RequestInterrupt on SIGINT) before
// calling Plot.
func (o *Orchestrator) Resume() *resume.Controller { return o.res }

// PausedProgress returns the checkpoint captured at the moment of the
// most recent stop: the node, layer, and path position plus the
// physical position a resumed plot should restart from. It is the
// zero Progress if Plot has not stopped mid-document.
func (o *Orchestrator) PausedProgress() checkpoint.Progress { return o.paused }

// Plot walks doc's layers and paths in order, running each path's
// points through the planner and executor and each move through the
// gateway. If resuming is true, the first copy skips
// (virtual-pen-only) until the saved node is reached, then resumes real
// plotting — the behavior package resume and package pen's ResumeMode
// implement.
//
// o.opts.Copies controls how many times doc is plotted; zero means
// plot continuously until stopped. Copies after the first always start
// fresh, and a page delay (o.opts.PageDelay) separates each pair of
// copies (spec §4.8).
//
// Plot returns the accumulated Stats and, if the plot stopped early
// (button press, interrupt, page-delay pause, or a connection error), a
// *perr.Paused or *perr.ConnectionError describing why. A nil error
// means every requested copy reached the end of the document.
func (o *Orchestrator) Plot(doc document.DocumentDigest, resumeFrom checkpoint.Progress, resuming bool) (Stats, error) {
	if err := o.checkVoltageOnce(); err != nil {
		return o.stats, err
	}

	copies := o.opts.Copies
	for copyNum := 0; copies == 0 || copyNum < copies; copyNum++ {
		o.stats = Stats{}

		resumingThisCopy := resuming && copyNum == 0
		if resumingThisCopy {
			o.pen.ResumeMode = true
			o.res.BeginResume(resumeFrom.Node)
			o.curr = kinematics.Delta{X: resumeFrom.PausedX, Y: resumeFrom.PausedY}
		}

		firstPoint, err := o.plotOneCopy(doc, resumeFrom, resumingThisCopy)
		if err != nil {
			return o.stats, err
		}
		if err := o.finishPlot(firstPoint); err != nil {
			return o.stats, err
		}

		if copies != 0 && copyNum == copies-1 {
			break
		}
		if err := o.interCopyDelay(); err != nil {
			return o.stats, err
		}
	}
	return o.stats, nil
}

// plotOneCopy walks every layer and path of doc once, returning the
// first plotted point (the default return-to-origin target).
func (o *Orchestrator) plotOneCopy(doc document.DocumentDigest, resumeFrom checkpoint.Progress, resuming bool) (*document.Point, error) {
	var firstPoint *document.Point
	for li := range doc.Layers {
		layer := doc.Layers[li]
		directive := ParseLayerName(layer.Name)
		if resuming && li < resumeFrom.Layer {
			continue
		}

		if directive.Pause && !(resuming && li == resumeFrom.Layer) {
			o.res.RequestStop(resume.Programmatic)
		}

		if err := o.applyOverrides(directive); err != nil {
			return firstPoint, err
		}

		for _, path := range layer.Paths {
			if len(path.Line) < 2 {
				continue
			}
			if firstPoint == nil {
				firstPoint = &document.Point{X: path.Line[0].X, Y: path.Line[0].Y}
			}
			o.curLayerIdx = path.LayerIndex
			o.curPathOrdinal = path.Ordinal
			o.pathNodeCount = 0
			if err := o.plotPolyline(path.Line, directive); err != nil {
				return firstPoint, err
			}
		}
		o.stats.LayersPlotted++
		o.applyOverrides(LayerDirective{}) // clear any temp-height override between layers
	}
	return firstPoint, nil
}

// interCopyDelay waits o.opts.PageDelay seconds between copies, polling
// for a pause request every pageDelayStepMS so the wait is preemptible
// rather than blocking straight through (spec §4.8). A stop here is
// reported with resume.BetweenCopies.
func (o *Orchestrator) interCopyDelay() error {
	if o.opts.PageDelay <= 0 {
		return nil
	}
	o.res.DelayBetweenCopies = true
	defer func() { o.res.DelayBetweenCopies = false }()

	remainingMS := int(o.opts.PageDelay * 1000)
	for remainingMS > 0 {
		buttonPressed, err := o.gw.QueryButton()
		if err != nil {
			return err
		}
		if outcome := o.res.Advance(buttonPressed); outcome.Stop {
			o.capturePause()
			return &perr.Paused{Code: int(outcome.Code)}
		}
		wait := pageDelayStepMS
		if remainingMS < wait {
			wait = remainingMS
		}
		time.Sleep(time.Duration(wait) * time.Millisecond)
		remainingMS -= wait
	}
	return nil
}

// capturePause records the orchestrator's current position and
// document location as the checkpoint to persist for a later res_plot,
// per spec §4.7 ("records paused_x/y ... on entering a stop").
func (o *Orchestrator) capturePause() {
	o.paused = checkpoint.Progress{
		Layer:         o.curLayerIdx,
		Node:          o.res.NodeCount,
		LastPath:      o.curPathOrdinal,
		NodeAfterPath: o.pathNodeCount,
		LastKnownX:    o.curr.X,
		LastKnownY:    o.curr.Y,
		PausedX:       o.curr.X,
		PausedY:       o.curr.Y,
	}
}

// applyOverrides installs or clears a layer's +h/+s/+d escape-driven
// overrides. The pen-height override has a durable effect here; the
// speed override is consulted by plotPolyline/plotSegment; the delay
// override issues an immediate dwell through the gateway.
func (o *Orchestrator) applyOverrides(d LayerDirective) error {
	o.pen.EndTempHeight()
	for _, ov := range d.Overrides {
		switch ov.Kind {
		case OverrideHeight:
			if ov.Value < 0 || ov.Value > 100 {
				return &perr.ConfigError{Field: "layer height override", Reason: fmt.Sprintf("%d out of [0,100]", ov.Value)}
			}
			o.pen.SetTempHeight(pen.Height(ov.Value))
		case OverrideDelay:
			if err := o.gw.TimedPause(ov.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// layerSpeed returns the pen-down speed in effect for this layer,
// applying any "+s" override as a percentage of the configured
// o.opts.SpeedPenDown (not of a machine maximum speed), in the role of
// axidraw.py's use_layer_speed/layer_speed_pendown.
func (o *Orchestrator) layerSpeed(d LayerDirective) float64 {
	speed := o.opts.SpeedPenDown
	for _, ov := range d.Overrides {
		if ov.Kind == OverrideSpeed {
			speed = o.opts.SpeedPenDown * float64(ov.Value) / 100.0
		}
	}
	return speed
}

// plotPolyline lowers the pen, plans and executes every vertex of
// line, then raises the pen. directive supplies this layer's speed
// override, if any.
func (o *Orchestrator) plotPolyline(line document.Polyline, directive LayerDirective) error {
	points := make([]kinematics.Delta, len(line))
	for i, p := range line {
		points[i] = kinematics.Delta{X: p.X, Y: p.Y}
	}

	speed := o.layerSpeed(directive)
	lim := planner.Limits{
		SpeedLimit:              speed,
		AccelRate:               o.opts.AccelRate(o.baseAccel()),
		MinVertexDist:           o.opts.MinVertexDist,
		CornerStraightThreshold: o.opts.CornerStraightThreshold,
		CornerFallbackRho:       o.opts.CornerFallbackRho,
	}
	plan := planner.Plan(points, lim)
	if len(plan) < 2 {
		return nil
	}

	if err := o.travelTo(kinematics.Delta{X: plan[0].X, Y: plan[0].Y}, o.opts.SpeedPenUp); err != nil {
		return err
	}
	o.pen.Lower()

	for i := 1; i < len(plan); i++ {
		dest := kinematics.Delta{X: plan[i].X, Y: plan[i].Y}
		vi := plan[i-1].Velocity
		vf := plan[i].Velocity
		if err := o.plotSegment(dest, vi, vf, speed); err != nil {
			return err
		}
	}

	o.pen.Raise()
	return nil
}

// travelTo moves the pen-up from the current position to dest at
// speed, as a single zero-acceleration-aware segment (used for the
// pen-up jump to a path's start and the end-of-plot return travel).
// Travel moves always run the full acceleration profile, regardless of
// --const-speed, which applies only to pen-down segments.
func (o *Orchestrator) travelTo(dest kinematics.Delta, speed float64) error {
	return o.plotSegmentAt(dest, speed, 0, 0, o.opts.AccelRate(o.baseAccel()), false)
}

// plotSegment executes one pen-down line segment from the
// orchestrator's current position to dest, honoring the resume
// controller's node-boundary decision before any motion is issued.
func (o *Orchestrator) plotSegment(dest kinematics.Delta, vi, vf, speedLimit float64) error {
	return o.plotSegmentAt(dest, speedLimit, vi, vf, o.opts.AccelRate(o.baseAccel()), true)
}

func (o *Orchestrator) plotSegmentAt(dest kinematics.Delta, speedLimit, vi, vf, accelRate float64, penDown bool) error {
	buttonPressed, err := o.gw.QueryButton()
	if err != nil {
		return err
	}
	outcome := o.res.Advance(buttonPressed)
	if outcome.ResumeReached {
		o.pen.SyncPhysical()
	}
	if outcome.Stop {
		o.capturePause()
		return &perr.Paused{Code: int(outcome.Code)}
	}
	o.stats.NodesPlotted++
	o.pathNodeCount++

	if o.pen.ResumeMode {
		// Skipping: track position virtually, issue no motor commands.
		o.curr = dest
		return nil
	}

	dest = o.clampToBounds(dest)

	lim := executor.Limits{
		SpeedLimit:  speedLimit,
		AccelRate:   accelRate,
		TimeSlice:   o.opts.TimeSlice,
		MaxStepRate: o.opts.MaxStepRate,
		// ConstVel only applies to pen-down segments: travel moves
		// always run the full accel profile (axidraw.py's "if not
		// constant_vel_mode or pen_up" guard).
		ConstVel:   penDown && o.opts.ConstSpeed,
		FloorSpeed: o.opts.SpeedPenDown / 10,
	}
	moves, actual := executor.Plan(o.curr, dest, vi, vf, o.stepScale, lim)
	for _, m := range moves {
		if err := o.gw.TimedXYMove(m.DeltaM1, m.DeltaM2, m.DurationMS); err != nil {
			return err
		}
	}

	dist := kinematics.Dist(actual.X, actual.Y)
	if o.pen.PenUp() {
		o.stats.DistancePenUp += dist
	} else {
		o.stats.DistancePenDown += dist
	}

	o.curr = kinematics.Delta{X: o.curr.X + actual.X, Y: o.curr.Y + actual.Y}
	return nil
}

// clampToBounds restricts dest to the configured travel rectangle,
// recording a warning for any axis that was out of range.
func (o *Orchestrator) clampToBounds(dest kinematics.Delta) kinematics.Delta {
	clamped := dest
	tol := o.opts.BoundsTolerance
	if dest.X < o.opts.BoundsMin.X-tol || dest.X > o.opts.BoundsMax.X+tol {
		o.warn.Add(warn.Bounds)
	}
	if dest.Y < o.opts.BoundsMin.Y-tol || dest.Y > o.opts.BoundsMax.Y+tol {
		o.warn.Add(warn.Bounds)
	}
	clamped.X = kinematics.Constrain(dest.X, o.opts.BoundsMin.X, o.opts.BoundsMax.X)
	clamped.Y = kinematics.Constrain(dest.Y, o.opts.BoundsMin.Y, o.opts.BoundsMax.Y)
	return clamped
}

// baseAccel is the unscaled inches/sec^2 the Accel percent option is
// applied to, matching the reference driver's const_accel_factor.
func (o *Orchestrator) baseAccel() float64 {
	const baseAccelRate = 50.0
	return baseAccelRate
}

// finishPlot raises the pen and travels to the configured end
// position, defaulting to the first point plotted (spec §5.2).
func (o *Orchestrator) finishPlot(firstPoint *document.Point) error {
	o.pen.Raise()

	target := o.opts.EndPosition
	if target == nil {
		target = firstPoint
	}
	if target == nil {
		return nil
	}
	return o.travelTo(kinematics.Delta{X: target.X, Y: target.Y}, o.opts.SpeedPenUp)
}

// checkVoltageOnce queries the controller's supply voltage exactly
// once per plot and caches the result, per spec §5.3.
func (o *Orchestrator) checkVoltageOnce() error {
	if o.voltageChecked {
		return nil
	}
	o.voltageChecked = true
	ok, err := o.gw.QueryVoltage()
	if err != nil {
		return err
	}
	o.voltageOK = ok
	if !ok {
		o.warn.Add(warn.Voltage)
	}
	return nil
}

// AlignMode disables the motors so the carriage can be moved by hand,
// matching axidraw.py's align mode (spec §5.4). It does not invoke the
// planner or executor.
func AlignMode(gw *gateway.Controller) error {
	return gw.DisableMotors()
}

// ToggleMode flips the physical pen state and returns the resulting
// servo move duration in milliseconds (spec §5.4).
func ToggleMode(p *pen.Status) int {
	return p.Toggle()
}

// CycleMode lowers then raises the pen once, for calibration, and
// returns the total servo move duration in milliseconds (spec §5.4).
func CycleMode(p *pen.Status) int {
	return p.Cycle()
}
