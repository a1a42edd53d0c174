package kinematics

import "github.com/orsinium-labs/tinymath"

// VFinal returns the velocity reached after accelerating at rate a over
// distance dx, starting from vi: v_f = sqrt(vi^2 + 2*a*dx).
func VFinal(vi, a, dx float64) float64 {
	return sqrt(vi*vi + 2*a*dx)
}

// VInitial returns the velocity that, decelerating at rate a over
// distance dx, arrives at vf: same closed form as VFinal, called with
// the deceleration leg reversed (vInitial_VF_A_Dx in the original
// driver). Kept as a distinct name because callers reason about it in
// the opposite time direction from VFinal.
func VInitial(vf, a, dx float64) float64 {
	return sqrt(vf*vf + 2*a*dx)
}

// Dot returns the dot product of two vectors expressed as (x, y) pairs.
func Dot(ux, uy, vx, vy float64) float64 {
	return ux*vx + uy*vy
}

// Dist returns the Euclidean length of (dx, dy).
func Dist(dx, dy float64) float64 {
	return sqrt(dx*dx + dy*dy)
}

func sqrt(v float64) float64 {
	return float64(tinymath.Sqrt(float32(v)))
}

// Sqrt exposes the package's approximate square root for callers that
// need it directly, such as the cornering-velocity formula in package
// planner.
func Sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return sqrt(v)
}
