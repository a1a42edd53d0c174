// Package executor implements the Segment Executor (spec §4.6): it
// takes one planned line segment — start point, destination, initial
// and final velocity — and breaks it into a series of short,
// constant-velocity motor moves that approximate the requested
// acceleration profile. Grounded on axidraw.py's plot_seg_with_v,
// including its four-way case split (trapezoid / triangle / linear
// ramp / constant velocity) and its final rate-limit correction pass.
package executor

import (
	"math"

	"github.com/inkstep/corexy/kinematics"
)

// Limits bundles the constants a segment is executed against.
type Limits struct {
	SpeedLimit  float64
	AccelRate   float64
	TimeSlice   float64 // seconds; ~0.030 in the reference driver
	MaxStepRate float64 // steps/sec; rounding-error moves above this are delayed, not dropped

	// ConstVel requests pen-down constant-speed mode (--const-speed):
	// the whole acceleration profile is skipped and the segment moves
	// at a single speed, SpeedLimit, end to end. Grounded on
	// axidraw.py's "if not constant_vel_mode or pen_up" guard around
	// its entire accel-profile block.
	ConstVel bool

	// FloorSpeed is the minimum velocity used when a constant-velocity
	// segment's endpoints are both zero — a degenerate case that would
	// otherwise divide by zero. Callers should pass a small fraction of
	// the pen-down speed; if left at zero, Plan falls back to
	// SpeedLimit/10.
	FloorSpeed float64
}

// DefaultTimeSlice is the reference driver's 30ms planning interval.
const DefaultTimeSlice = 0.030

// cruiseIntervalFactor subdivides the cruising phase of a trapezoid
// into chunks of (factor * TimeSlice), so a long cruise does not
// collapse into a single multi-second move.
const cruiseIntervalFactor = 20

// underflowStepRate is the per-axis step rate below which a move is
// dropped rather than issued, since sub-threshold rates are dominated
// by rounding noise.
const underflowStepRate = 0.002

// Move is one constant-velocity motor command: move (DeltaM1, DeltaM2)
// native steps over DurationMS milliseconds.
type Move struct {
	DeltaM1, DeltaM2 int32
	DurationMS       int
}

// Plan converts a single line segment into a sequence of timed motor
// moves. curr and dest are in document inches; vi and vf are the
// junction velocities (inches/sec) the planner assigned to this
// segment's endpoints. stepScale converts inches to native motor
// steps (see kinematics.StepScale). It returns the moves to issue and
// the actual Cartesian delta they produce, which may differ slightly
// from dest-curr due to step rounding (see kinematics.FromMotorSteps).
func Plan(curr, dest kinematics.Delta, vi, vf float64, stepScale float64, lim Limits) ([]Move, kinematics.Delta) {
	deltaX := dest.X - curr.X
	deltaY := dest.Y - curr.Y

	steps := kinematics.ToMotorSteps(kinematics.Delta{X: deltaX, Y: deltaY}, stepScale)
	if abs32(steps.M1) < 1 && abs32(steps.M2) < 1 {
		return nil, kinematics.Delta{}
	}
	actual := kinematics.FromMotorSteps(steps, stepScale)
	segLen := kinematics.Dist(actual.X, actual.Y)
	if segLen <= 0 {
		return nil, actual
	}

	vi = math.Min(vi, lim.SpeedLimit)
	vf = math.Min(vf, lim.SpeedLimit)

	accelRate := lim.AccelRate
	tAccelMax := (lim.SpeedLimit - vi) / accelRate
	tDecelMax := (lim.SpeedLimit - vf) / accelRate
	accelDistMax := vi*tAccelMax + 0.5*accelRate*tAccelMax*tAccelMax
	decelDistMax := vf*tDecelMax + 0.5*accelRate*tDecelMax*tDecelMax
	maxVelTimeEstimate := segLen / lim.SpeedLimit

	floorSpeed := lim.FloorSpeed
	if floorSpeed <= 0 {
		floorSpeed = lim.SpeedLimit / 10
	}

	ts := lim.TimeSlice

	durations := make([]float64, 0, 8) // seconds elapsed at each sample
	positions := make([]float64, 0, 8) // distance along travel at each sample

	timeElapsed := 0.0
	position := 0.0
	velocity := vi

	appendSample := func() {
		durations = append(durations, timeElapsed)
		positions = append(positions, position)
	}

	switch {
	case lim.ConstVel:
		// Pen-down constant-speed mode: skip the accel profile entirely
		// and cross the whole segment at one speed.
		v := lim.SpeedLimit
		if v <= 0 {
			v = floorSpeed
		}
		timeElapsed = segLen / v
		position = segLen
		appendSample()

	case segLen > accelDistMax+decelDistMax+ts*lim.SpeedLimit && maxVelTimeEstimate > 4*ts:
		// Case 1: Trapezoid — segment is long enough to cruise at full speed.
		speedMax := lim.SpeedLimit

		if intervals := int(math.Floor(tAccelMax / ts)); intervals > 0 {
			tPer := tAccelMax / float64(intervals)
			step := (speedMax - vi) / float64(intervals+1)
			for i := 0; i < intervals; i++ {
				velocity += step
				timeElapsed += tPer
				position += velocity * tPer
				appendSample()
			}
		}

		coastDist := segLen - (accelDistMax + decelDistMax)
		if coastDist > ts*speedMax {
			velocity = speedMax
			ct := coastDist / velocity
			cruiseInterval := cruiseIntervalFactor * ts
			for ct > cruiseInterval {
				ct -= cruiseInterval
				timeElapsed += cruiseInterval
				position += velocity * cruiseInterval
				appendSample()
			}
			timeElapsed += ct
			position += velocity * ct
			appendSample()
		}

		if intervals := int(math.Floor(tDecelMax / ts)); intervals > 0 {
			tPer := tDecelMax / float64(intervals)
			step := (speedMax - vf) / float64(intervals+1)
			for i := 0; i < intervals; i++ {
				velocity -= step
				timeElapsed += tPer
				position += velocity * tPer
				appendSample()
			}
		}

	default:
		planShortSegment(&durations, &positions, &timeElapsed, &position, &velocity, vi, vf, segLen, accelDistMax, decelDistMax, accelRate, ts, floorSpeed)
	}

	if len(positions) == 0 {
		return nil, actual
	}

	finalPos := position
	m1 := make([]int32, len(positions))
	m2 := make([]int32, len(positions))
	for i, p := range positions {
		frac := p / finalPos
		m1[i] = roundInt32(frac * float64(steps.M1))
		m2[i] = roundInt32(frac * float64(steps.M2))
	}

	var moves []Move
	var prevM1, prevM2 int32
	prevTimeMS := 0
	for i := range positions {
		moveM1 := m1[i] - prevM1
		moveM2 := m2[i] - prevM2
		durMS := int(math.Round(durations[i] * 1000.0))
		moveTimeMS := durMS - prevTimeMS
		prevTimeMS = durMS
		if moveTimeMS < 1 {
			moveTimeMS = 1
		}

		if math.Abs(float64(moveM1)/float64(moveTimeMS)) < underflowStepRate {
			moveM1 = 0
		}
		if math.Abs(float64(moveM2)/float64(moveTimeMS)) < underflowStepRate {
			moveM2 = 0
		}

		// MaxStepRate is in steps/sec; moveTimeMS is in milliseconds.
		for lim.MaxStepRate > 0 &&
			(math.Abs(float64(moveM1))*1000/float64(moveTimeMS) >= lim.MaxStepRate ||
				math.Abs(float64(moveM2))*1000/float64(moveTimeMS) >= lim.MaxStepRate) {
			moveTimeMS++
		}

		prevM1 += moveM1
		prevM2 += moveM2

		if moveM1 != 0 || moveM2 != 0 {
			moves = append(moves, Move{DeltaM1: moveM1, DeltaM2: moveM2, DurationMS: moveTimeMS})
		}
	}

	return moves, actual
}

// planShortSegment handles the three short-segment cases (triangle,
// linear ramp, and constant velocity) that plot_seg_with_v falls
// through to when the segment is too short to reach full cruising
// speed. Samples are appended directly to durations/positions.
func planShortSegment(durations, positions *[]float64, timeElapsed, position, velocity *float64, vi, vf, segLen, accelDistMax, decelDistMax, accelRate, ts, floorSpeed float64) {
	append_ := func() {
		*durations = append(*durations, *timeElapsed)
		*positions = append(*positions, *position)
	}

	accelRateLocal := accelRate
	if segLen >= 0.9*(accelDistMax+decelDistMax) {
		if accelDistMax+decelDistMax == 0 {
			accelRateLocal = accelRate
		} else {
			accelRateLocal = 0.9 * ((accelDistMax + decelDistMax) / segLen) * accelRate
		}
	}

	var ta float64
	if accelRateLocal > 0 {
		ta = (kinematics.Sqrt(2*vi*vi+2*vf*vf+4*accelRateLocal*segLen) - 2*vi) / (2 * accelRateLocal)
	}

	intervals := int(math.Floor(ta / ts))
	if intervals == 0 {
		ta = 0
	}

	var td float64
	if accelRateLocal > 0 {
		td = ta - (vf-vi)/accelRateLocal
	}
	dIntervals := int(math.Floor(td / ts))

	vmax := vi + accelRateLocal*ta

	constantVelMode := false
	viCmp := vi // tracks the original's practice of reusing vi_inch_per_s after boosting it

	if intervals+dIntervals > 4 {
		// Case 2: Triangle.
		if intervals > 0 {
			tPer := ta / float64(intervals)
			step := (vmax - vi) / float64(intervals+1)
			for i := 0; i < intervals; i++ {
				*velocity += step
				*timeElapsed += tPer
				*position += *velocity * tPer
				append_()
			}
		}
		if dIntervals > 0 {
			tPer := td / float64(dIntervals)
			step := (vmax - vf) / float64(dIntervals+1)
			for i := 0; i < dIntervals; i++ {
				*velocity -= step
				*timeElapsed += tPer
				*position += *velocity * tPer
				append_()
			}
		}
	} else {
		// Case 3: Linear ramp, boosting the starting speed toward vmax
		// so short segments aren't needlessly conservative.
		viBoosted := (vmax + vi) / 2
		*velocity = viBoosted
		viCmp = viBoosted

		var localAccel float64
		if segLen > 0 {
			localAccel = (vf*vf - viBoosted*viBoosted) / (2.0 * segLen)
		}
		if localAccel > accelRate {
			localAccel = accelRate
		} else if localAccel < -accelRate {
			localAccel = -accelRate
		}

		if localAccel == 0 {
			constantVelMode = true
		} else {
			tSegment := (vf - viBoosted) / localAccel
			segIntervals := int(math.Floor(tSegment / ts))
			if segIntervals > 1 {
				tPer := tSegment / float64(segIntervals)
				step := (vf - viBoosted) / float64(segIntervals+1)
				for i := 0; i < segIntervals; i++ {
					*velocity += step
					*timeElapsed += tPer
					*position += *velocity * tPer
					append_()
				}
			} else {
				*velocity = vmax
				viCmp = vmax
				constantVelMode = true
			}
		}
	}

	if constantVelMode {
		// Case 4: Constant velocity — one sample covering the whole segment.
		var v float64
		switch {
		case vf > viCmp:
			v = vf
		case viCmp > vf:
			v = viCmp
		case viCmp > 0:
			v = viCmp
		default:
			v = viCmp // both endpoints zero; floorSpeed applies below
		}
		if v <= 0 {
			v = floorSpeed
		}
		*timeElapsed = segLen / v
		*position = segLen
		*durations = append(*durations, *timeElapsed)
		*positions = append(*positions, *position)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func roundInt32(v float64) int32 {
	return int32(math.Round(v))
}
