package kinematics

import "math"

// Pose is a planar robot pose. Theta is in radians and is never wrapped by
// this package; use WrapAngle where a canonical range is needed.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Add returns p advanced by the increment d.
func (p Pose) Add(d Pose) Pose {
	return Pose{X: p.X + d.X, Y: p.Y + d.Y, Theta: p.Theta + d.Theta}
}

// Sub returns the component-wise difference p - q.
func (p Pose) Sub(q Pose) Pose {
	return Pose{X: p.X - q.X, Y: p.Y - q.Y, Theta: p.Theta - q.Theta}
}

// Vec returns the pose as an [x, y, θ] slice.
func (p Pose) Vec() []float64 {
	return []float64{p.X, p.Y, p.Theta}
}

// PoseFromVec builds a Pose from the first three entries of v.
func PoseFromVec(v []float64) Pose {
	return Pose{X: v[0], Y: v[1], Theta: v[2]}
}

// IsFinite reports whether every component is a finite number.
func (p Pose) IsFinite() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Theta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// WrapAngle maps a to the half-open interval (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
