package kinematics

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned by Geometry.Validate.
var ErrInvalidGeometry = errors.New("invalid robot geometry")

// Geometry describes the fixed wheel layout of a differential-drive robot.
type Geometry struct {
	TrackLength         float64 // l: distance between the wheel contact points (metres)
	WheelRadius         float64 // r: wheel radius (metres)
	CountsPerRevolution float64 // encoder ticks per full wheel revolution
}

// MetresPerTick returns k = 2πr / countsPerRevolution, the arc length a wheel
// rolls for one encoder tick.
func (g Geometry) MetresPerTick() float64 {
	return 2 * math.Pi * g.WheelRadius / g.CountsPerRevolution
}

// Validate checks that every parameter is finite and strictly positive.
func (g Geometry) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"track_length_m", g.TrackLength},
		{"wheel_radius_m", g.WheelRadius},
		{"counts_per_revolution", g.CountsPerRevolution},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidGeometry, f.name, f.v)
		}
	}
	return nil
}

// WheelArc converts per-wheel tick deltas into the arc parameters of the
// robot centre: average travelled distance and heading change.
func (g Geometry) WheelArc(leftDelta, rightDelta float64) (dLen, dAngle float64) {
	k := g.MetresPerTick()
	dRight := rightDelta * k
	dLeft := leftDelta * k
	dLen = (dRight + dLeft) / 2
	dAngle = (dRight - dLeft) / g.TrackLength
	return dLen, dAngle
}

// WheelTicks is the inverse of WheelArc.
func (g Geometry) WheelTicks(dLen, dAngle float64) (leftDelta, rightDelta float64) {
	k := g.MetresPerTick()
	half := dAngle * g.TrackLength / 2
	return (dLen - half) / k, (dLen + half) / k
}
