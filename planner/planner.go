// Package planner implements the Trajectory Planner (spec §4.5): given
// an ordered polyline in document inches, it assigns a junction velocity
// to every vertex so that the Segment Executor can accelerate smoothly
// from one line segment into the next instead of stopping at every
// vertex. Grounded on axidraw.py's plan_trajectory: a forward pass
// bounds velocity by available acceleration distance and cornering
// geometry, then a reverse pass clamps it again so that deceleration
// into each vertex is actually achievable.
package planner

import "github.com/inkstep/corexy/kinematics"

// Limits bundles the physical constants a plan is computed against.
// SpeedLimit and AccelRate are in document inches and inches/sec; both
// already have the pen-up/pen-down and percent-accel scaling folded in
// by the caller, matching axidraw.py's speed_limit/accel_rate locals.
type Limits struct {
	SpeedLimit float64
	AccelRate  float64

	// MinVertexDist discards vertices closer together than this,
	// matching the per-resolution max_step_dist_hr/lr skip in
	// plan_trajectory ("Skip segments likely to be < one step").
	MinVertexDist float64

	// CornerStraightThreshold is the cornering/tolerance factor (named
	// "delta" in the original, derived there from a percent-based
	// cornering option divided by 5000). It controls how sharply a
	// corner must bend before the planner slows down for it: larger
	// values permit a faster turn.
	CornerStraightThreshold float64

	// CornerFallbackRho is substituted for the corner radius factor
	// when the path runs so nearly straight through the vertex that the
	// geometric formula's denominator collapses toward zero (denominator
	// <= 1e-4 in the original, an arbitrary but large constant so the
	// junction velocity clamp still applies rather than being skipped
	// outright).
	CornerFallbackRho float64
}

// DefaultCornerFallbackRho mirrors the original driver's literal 100000.
const DefaultCornerFallbackRho = 100000.0

// cornerDenominatorFloor is the point below which the rfactor formula's
// denominator is considered degenerate (a nearly straight-through vertex).
const cornerDenominatorFloor = 1e-4

// Vertex is one point of a planned trajectory, paired with the junction
// velocity the executor should be moving at upon arrival.
type Vertex struct {
	X, Y     float64
	Velocity float64
}

// Plan assigns junction velocities to an ordered path of points. Points
// closer together than lim.MinVertexDist are dropped first, matching
// the original's vertex-filtering pass; a path with fewer than two
// usable points after filtering returns nil.
func Plan(points []kinematics.Delta, lim Limits) []Vertex {
	filtered := filterVertices(points, lim.MinVertexDist)
	if len(filtered) < 2 {
		return nil
	}

	// Straight line, no cornering to reason about.
	if len(filtered) == 2 {
		return []Vertex{
			{X: filtered[0].X, Y: filtered[0].Y, Velocity: 0},
			{X: filtered[1].X, Y: filtered[1].Y, Velocity: 0},
		}
	}

	n := len(filtered)
	dists := make([]float64, n)   // dists[i] = length of segment arriving at vertex i
	unitX := make([]float64, n)   // unit direction of the segment arriving at vertex i
	unitY := make([]float64, n)
	for i := 1; i < n; i++ {
		dx := filtered[i].X - filtered[i-1].X
		dy := filtered[i].Y - filtered[i-1].Y
		d := kinematics.Dist(dx, dy)
		dists[i] = d
		if d > 0 {
			unitX[i] = dx / d
			unitY[i] = dy / d
		}
	}

	vels := make([]float64, n) // vels[0] and vels[n-1] both start/end at 0

	tMax := lim.SpeedLimit / lim.AccelRate
	accelDist := 0.5 * lim.AccelRate * tMax * tMax

	for i := 1; i < n-1; i++ {
		dcurrent := dists[i]
		vPrevExit := vels[i-1]

		var vCurrentMax float64
		if dcurrent > accelDist {
			vCurrentMax = lim.SpeedLimit
		} else {
			vCurrentMax = kinematics.VFinal(vPrevExit, lim.AccelRate, dcurrent)
			if vCurrentMax > lim.SpeedLimit {
				vCurrentMax = lim.SpeedLimit
			}
		}

		cosineFactor := -kinematics.Dot(unitX[i], unitY[i], unitX[i+1], unitY[i+1])
		rootFactor := kinematics.Sqrt((1 - cosineFactor) / 2)
		denominator := 1 - rootFactor

		var rfactor float64
		if denominator > cornerDenominatorFloor {
			rfactor = (lim.CornerStraightThreshold * rootFactor) / denominator
		} else {
			rfactor = lim.CornerFallbackRho
		}
		vJunctionMax := kinematics.Sqrt(lim.AccelRate * rfactor)

		if vJunctionMax < vCurrentMax {
			vCurrentMax = vJunctionMax
		}
		vels[i] = vCurrentMax
	}
	vels[n-1] = 0

	// Reverse pass: ensure each vertex's forward-assigned velocity is
	// actually reachable given the deceleration needed into the next one.
	for i := n - 1; i >= 1; i-- {
		vFinal := vels[i]
		vInitial := vels[i-1]
		segLen := dists[i]
		if vInitial > vFinal && segLen > 0 {
			vInitMax := kinematics.VInitial(vFinal, lim.AccelRate, segLen)
			if vInitMax < vInitial {
				vInitial = vInitMax
			}
			vels[i-1] = vInitial
		}
	}

	out := make([]Vertex, n)
	for i := range filtered {
		out[i] = Vertex{X: filtered[i].X, Y: filtered[i].Y, Velocity: vels[i]}
	}
	return out
}

// filterVertices drops points whose distance from the last retained
// point is below minDist, mirroring the original's "skip segments
// likely to be < one step" pass. The first point is always retained.
func filterVertices(points []kinematics.Delta, minDist float64) []kinematics.Delta {
	if len(points) == 0 {
		return nil
	}
	out := make([]kinematics.Delta, 0, len(points))
	out = append(out, points[0])
	last := points[0]
	for i := 1; i < len(points); i++ {
		d := kinematics.Dist(points[i].X-last.X, points[i].Y-last.Y)
		if d >= minDist {
			out = append(out, points[i])
			last = points[i]
		}
	}
	return out
}
