// Package config provides the typed configuration surface for a plot
// run (spec §9's "dynamic option bag → typed configuration struct"
// redesign). Options is populated by cli.go from cobra flags and an
// optional viper-backed config file; nothing downstream of this
// package touches either library.
package config

import (
	"fmt"

	"github.com/inkstep/corexy/document"
	"github.com/inkstep/corexy/internal/perr"
	"github.com/inkstep/corexy/kinematics"
	"github.com/inkstep/corexy/pen"
)

// Options mirrors the tunable parameters axidraw.py exposes as loose
// attributes on self.options/self.params, collected here as one typed,
// validated struct.
type Options struct {
	Model string // controller/hardware model identifier, persisted to checkpoints

	Resolution kinematics.Resolution
	// NativeResFactor is the 8x-microstepping steps-per-inch constant
	// kinematics.StepScale scales by Resolution; 1016 for a standard
	// EBB-class controller (2032 at 16x/HighRes).
	NativeResFactor float64

	SpeedPenDown float64 // inches/sec, percent-of-max already applied
	SpeedPenUp   float64
	Accel        float64 // percent, 0-100
	ConstSpeed   bool

	PenUpHeight   pen.Height
	PenDownHeight pen.Height

	Copies    int
	PageDelay float64 // seconds between copies

	BoundsMin       kinematics.Delta
	BoundsMax       kinematics.Delta
	BoundsTolerance float64

	MinVertexDist           float64
	CornerStraightThreshold float64
	CornerFallbackRho       float64
	MaxStepRate             float64
	TimeSlice               float64

	EndPosition *document.Point

	// Mode selects which of the orchestrator's entry points to run:
	// "plot", "res_plot", "res_home", "align", "toggle", "cycle", or
	// "manual", matching axidraw.py's options.mode values.
	Mode string
}

// Default returns the reference driver's stock parameters (the values
// baked into axidraw.py's params module for a MiniKit-class machine,
// converted to inches/sec and inches).
func Default() Options {
	return Options{
		Model:                   "MiniKit/2",
		Resolution:              kinematics.HighRes,
		NativeResFactor:         1016,
		SpeedPenDown:            8.0,
		SpeedPenUp:              12.0,
		Accel:                   75,
		PenUpHeight:             60,
		PenDownHeight:           30,
		Copies:                  1,
		PageDelay:               15,
		BoundsMin:               kinematics.Delta{X: 0, Y: 0},
		BoundsMax:               kinematics.Delta{X: 11.8, Y: 8.5},
		BoundsTolerance:         1.0 / 2032.0, // truncate up to one high-res step without error
		MinVertexDist:           1.0 / 2032.0,
		CornerStraightThreshold: 0.006, // cornering percent / 5000, at the default cornering=30
		CornerFallbackRho:       100000,
		MaxStepRate:             24000,
		TimeSlice:               0.030,
		Mode:                    "plot",
	}
}

// Validate checks the invariants the planner/executor assume hold.
func (o Options) Validate() error {
	if o.SpeedPenDown <= 0 || o.SpeedPenUp <= 0 {
		return &perr.ConfigError{Field: "speed_pendown/speed_penup", Reason: "must be positive"}
	}
	if o.Accel <= 0 || o.Accel > 100 {
		return &perr.ConfigError{Field: "accel", Reason: "must be in (0, 100]"}
	}
	if o.PenUpHeight < 0 || o.PenUpHeight > 100 || o.PenDownHeight < 0 || o.PenDownHeight > 100 {
		return &perr.ConfigError{Field: "pen_height", Reason: "must be in [0, 100]"}
	}
	if o.BoundsMax.X <= o.BoundsMin.X || o.BoundsMax.Y <= o.BoundsMin.Y {
		return &perr.ConfigError{Field: "bounds", Reason: "max must exceed min on both axes"}
	}
	if o.Copies < 0 {
		return &perr.ConfigError{Field: "copies", Reason: "must be >= 0 (0 means continuous)"}
	}
	switch o.Mode {
	case "plot", "res_plot", "res_home", "align", "toggle", "cycle", "manual", "layers":
	default:
		return &perr.ConfigError{Field: "mode", Reason: fmt.Sprintf("unrecognized mode %q", o.Mode)}
	}
	return nil
}

// AccelRate converts the percent-of-max Accel option and a base rate
// into the inches/sec^2 the planner and executor consume.
func (o Options) AccelRate(baseRate float64) float64 {
	return baseRate * o.Accel / 100.0
}
