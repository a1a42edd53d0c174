// Package kinematics implements the CoreXY unit mapping (§4.1 of the
// design) and the closed-form velocity primitives (§4.2) that the
// planner and executor build on. Every function here is pure: no
// hardware or channel state crosses this package boundary.
package kinematics

import (
	"github.com/orsinium-labs/tinymath"
)

// Resolution selects the microstepping mode applied via StepScale.
type Resolution uint8

const (
	// LowRes is 8x microstepping.
	LowRes Resolution = 1
	// HighRes is 16x microstepping.
	HighRes Resolution = 2
)

// StepScale returns the inches-to-motor-steps conversion factor for a
// 45-degree CoreXY axis, given a native resolution factor and the
// selected microstepping mode. Grounded on tmc5160/helpers.go's pattern
// of small conversion functions over a scalar "native" parameter.
func StepScale(nativeResFactor float64, res Resolution) float64 {
	switch res {
	case HighRes:
		return nativeResFactor * 2
	default:
		return nativeResFactor
	}
}

// Delta is a Cartesian displacement in inches.
type Delta struct {
	X, Y float64
}

// MotorSteps is a CoreXY motor-pair displacement in native steps.
type MotorSteps struct {
	M1, M2 int32
}

// ToMotorSteps maps a Cartesian delta to the CoreXY motor pair, rounding
// each motor's travel to the nearest integer step.
func ToMotorSteps(d Delta, stepScale float64) MotorSteps {
	return MotorSteps{
		M1: roundToInt32(stepScale * (d.X + d.Y)),
		M2: roundToInt32(stepScale * (d.X - d.Y)),
	}
}

// FromMotorSteps recovers the Cartesian delta that (m1, m2) actually
// commands, once rounded to integer steps. Tracking position from this
// recomputed delta — rather than from the originally requested delta —
// is what prevents rounding error from accumulating across segments.
func FromMotorSteps(m MotorSteps, stepScale float64) Delta {
	return Delta{
		X: (float64(m.M1) + float64(m.M2)) / (2 * stepScale),
		Y: (float64(m.M1) - float64(m.M2)) / (2 * stepScale),
	}
}

func roundToInt32(v float64) int32 {
	return int32(tinymath.Round(float32(v)))
}

// Constrain clamps value to [lo, hi]. Grounded on tmc5160/utils.go's
// generic constrain helper.
func Constrain[T int | int32 | int64 | float32 | float64](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
