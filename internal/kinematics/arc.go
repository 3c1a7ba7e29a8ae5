package kinematics

import "math"

// ArcDelta returns the pose increment for travelling dLen metres along a
// constant-curvature arc that turns the heading by dAngle radians, starting
// at heading theta. Only theta is needed from the current pose.
func ArcDelta(theta, dLen, dAngle float64) Pose {
	if dAngle != 0 {
		radius := dLen / dAngle
		return Pose{
			X:     radius * (-math.Sin(theta) + math.Sin(theta+dAngle)),
			Y:     radius * (math.Cos(theta) - math.Cos(theta+dAngle)),
			Theta: dAngle,
		}
	}
	// Straight segment: the arc form is 0/0 here.
	return Pose{
		X:     dLen * math.Cos(theta),
		Y:     dLen * math.Sin(theta),
		Theta: 0,
	}
}

// MotionDelta converts per-wheel encoder tick deltas into a pose increment
// from heading theta.
func MotionDelta(g Geometry, theta, leftDelta, rightDelta float64) Pose {
	dLen, dAngle := g.WheelArc(leftDelta, rightDelta)
	return ArcDelta(theta, dLen, dAngle)
}

// ArcHeadingPartials returns ∂dx/∂θ and ∂dy/∂θ of ArcDelta with the arc
// parameters held fixed. The heading row of the state Jacobian is the identity.
func ArcHeadingPartials(theta, dLen, dAngle float64) (dxdTheta, dydTheta float64) {
	if dAngle != 0 {
		radius := dLen / dAngle
		return radius * (-math.Cos(theta) + math.Cos(theta+dAngle)),
			radius * (-math.Sin(theta) + math.Sin(theta+dAngle))
	}
	return -dLen * math.Sin(theta), dLen * math.Cos(theta)
}

// ArcControlPartials returns the 3x2 Jacobian of ArcDelta(theta, v·dt, ω·dt)
// with respect to the control (v, ω). Rows are (dx, dy, dθ).
func ArcControlPartials(theta, v, w, dt float64) [3][2]float64 {
	var J [3][2]float64
	J[2][1] = dt

	if w*dt != 0 {
		s0, c0 := math.Sin(theta), math.Cos(theta)
		s1, c1 := math.Sin(theta+w*dt), math.Cos(theta+w*dt)
		J[0][0] = (-s0 + s1) / w
		J[0][1] = -v*(-s0+s1)/(w*w) + v*c1*dt/w
		J[1][0] = (c0 - c1) / w
		J[1][1] = -v*(c0-c1)/(w*w) + v*s1*dt/w
		return J
	}

	s0, c0 := math.Sin(theta), math.Cos(theta)
	J[0][0] = dt * c0
	J[0][1] = -0.5 * v * dt * dt * s0
	J[1][0] = dt * s0
	J[1][1] = 0.5 * v * dt * dt * c0
	return J
}
