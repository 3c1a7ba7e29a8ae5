package kinematics

import "math"

// InverseArc recovers the arc parameters that carry pose from to pose to
// under the constant-curvature model. It is the exact inverse of ArcDelta
// when to was produced from from by ArcDelta.
func InverseArc(from, to Pose) (dLen, dAngle float64) {
	d := to.Sub(from)
	dAngle = d.Theta
	phi := from.Theta + dAngle/2
	chord := d.X*math.Cos(phi) + d.Y*math.Sin(phi)
	return chord * chordToArc(dAngle), dAngle
}

// ExpectedTicks returns the left/right encoder deltas that would move the
// robot from pose from to pose to.
func ExpectedTicks(g Geometry, from, to Pose) (left, right float64) {
	dLen, dAngle := InverseArc(from, to)
	return g.WheelTicks(dLen, dAngle)
}

// ExpectedTicksJacobian returns ∂(left, right)/∂(x, y, θ) of ExpectedTicks
// taken with respect to to, with from held fixed.
func ExpectedTicksJacobian(g Geometry, from, to Pose) [2][3]float64 {
	d := to.Sub(from)
	phi := from.Theta + d.Theta/2
	s, c := math.Sin(phi), math.Cos(phi)
	chord := d.X*c + d.Y*s
	dChorddTheta := 0.5 * (-d.X*s + d.Y*c)

	f := chordToArc(d.Theta)
	dLendX := f * c
	dLendY := f * s
	dLendTheta := f*dChorddTheta + chord*chordToArcSlope(d.Theta)

	k := g.MetresPerTick()
	half := g.TrackLength / 2
	return [2][3]float64{
		{dLendX / k, dLendY / k, (dLendTheta - half) / k},
		{dLendX / k, dLendY / k, (dLendTheta + half) / k},
	}
}

// chordToArc is the ratio arc/chord for an arc subtending dAngle radians.
func chordToArc(dAngle float64) float64 {
	if dAngle != 0 {
		u := dAngle / 2
		return u / math.Sin(u)
	}
	return 1
}

// chordToArcSlope is d(chordToArc)/d(dAngle).
func chordToArcSlope(dAngle float64) float64 {
	if dAngle != 0 {
		u := dAngle / 2
		s := math.Sin(u)
		return 0.5 * (s - u*math.Cos(u)) / (s * s)
	}
	return 0
}
