package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeometry = Geometry{TrackLength: 0.490, WheelRadius: 0.130, CountsPerRevolution: 2394}

func TestMetresPerTick(t *testing.T) {
	want := 2 * math.Pi * 0.130 / 2394
	assert.InDelta(t, want, testGeometry.MetresPerTick(), 1e-15)
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Geometry
		wantErr bool
	}{
		{"valid", testGeometry, false},
		{"zero track", Geometry{0, 0.13, 2394}, true},
		{"negative radius", Geometry{0.49, -0.13, 2394}, true},
		{"nan counts", Geometry{0.49, 0.13, math.NaN()}, true},
		{"inf track", Geometry{math.Inf(1), 0.13, 2394}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidGeometry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMotionDeltaStraightLine(t *testing.T) {
	k := testGeometry.MetresPerTick()
	for _, theta := range []float64{0, 0.3, math.Pi / 2, -2.1, math.Pi, 7.5} {
		d := MotionDelta(testGeometry, theta, 100, 100)
		dLen := 100 * k
		// Exact branch: no tolerance needed.
		assert.Equal(t, dLen*math.Cos(theta), d.X, "theta=%v", theta)
		assert.Equal(t, dLen*math.Sin(theta), d.Y, "theta=%v", theta)
		assert.Equal(t, 0.0, d.Theta, "theta=%v", theta)
	}
}

func TestMotionDeltaTurnInPlace(t *testing.T) {
	d := MotionDelta(testGeometry, 0.4, -50, 50)
	k := testGeometry.MetresPerTick()
	assert.InDelta(t, 0, d.X, 1e-12)
	assert.InDelta(t, 0, d.Y, 1e-12)
	assert.InDelta(t, 100*k/testGeometry.TrackLength, d.Theta, 1e-12)
}

func TestMotionDeltaQuarterCircle(t *testing.T) {
	// Drive a quarter circle of radius 1 m turning left from heading 0.
	dLen := math.Pi / 2
	d := ArcDelta(0, dLen, math.Pi/2)
	assert.InDelta(t, 1.0, d.X, 1e-12)
	assert.InDelta(t, 1.0, d.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, d.Theta, 1e-12)
}

func TestArcDeltaContinuity(t *testing.T) {
	for _, theta := range []float64{0, 1, -1.3, 3} {
		straight := ArcDelta(theta, 0.8, 0)
		for _, eps := range []float64{1e-3, 1e-5, 1e-7, 1e-9} {
			arc := ArcDelta(theta, 0.8, eps)
			tol := 2 * eps
			if tol < 1e-6 {
				tol = 1e-6
			}
			assert.InDelta(t, straight.X, arc.X, tol, "theta=%v eps=%v", theta, eps)
			assert.InDelta(t, straight.Y, arc.Y, tol, "theta=%v eps=%v", theta, eps)
		}
	}
}

func TestArcHeadingPartialsMatchFiniteDifference(t *testing.T) {
	const h = 1e-6
	cases := []struct{ theta, dLen, dAngle float64 }{
		{0.2, 0.5, 0},
		{0.2, 0.5, 0.3},
		{-1.1, 0.05, -0.02},
	}
	for _, c := range cases {
		dx, dy := ArcHeadingPartials(c.theta, c.dLen, c.dAngle)
		plus := ArcDelta(c.theta+h, c.dLen, c.dAngle)
		minus := ArcDelta(c.theta-h, c.dLen, c.dAngle)
		assert.InDelta(t, (plus.X-minus.X)/(2*h), dx, 1e-7)
		assert.InDelta(t, (plus.Y-minus.Y)/(2*h), dy, 1e-7)
	}
}

func TestArcControlPartialsMatchFiniteDifference(t *testing.T) {
	const h = 1e-6
	cases := []struct{ theta, v, w, dt float64 }{
		{0.3, 0.8, 0.5, 0.1},
		{-2.0, 1.2, -0.9, 0.05},
		{1.0, 0.4, 0, 0.2},
	}
	for _, c := range cases {
		J := ArcControlPartials(c.theta, c.v, c.w, c.dt)
		f := func(v, w float64) Pose { return ArcDelta(c.theta, v*c.dt, w*c.dt) }

		pv, mv := f(c.v+h, c.w), f(c.v-h, c.w)
		assert.InDelta(t, (pv.X-mv.X)/(2*h), J[0][0], 1e-7)
		assert.InDelta(t, (pv.Y-mv.Y)/(2*h), J[1][0], 1e-7)
		assert.InDelta(t, 0, J[2][0], 1e-12)

		if c.w == 0 {
			// The straight branch is a one-sided limit in ω.
			pw := f(c.v, 1e-4)
			assert.InDelta(t, (pw.X-f(c.v, 0).X)/1e-4, J[0][1], 1e-4)
			assert.InDelta(t, (pw.Y-f(c.v, 0).Y)/1e-4, J[1][1], 1e-4)
		} else {
			pw, mw := f(c.v, c.w+h), f(c.v, c.w-h)
			assert.InDelta(t, (pw.X-mw.X)/(2*h), J[0][1], 1e-7)
			assert.InDelta(t, (pw.Y-mw.Y)/(2*h), J[1][1], 1e-7)
		}
		assert.Equal(t, c.dt, J[2][1])
	}
}

func TestArcControlPartialsZeroDt(t *testing.T) {
	J := ArcControlPartials(0.7, 1.5, 0.4, 0)
	assert.Equal(t, [3][2]float64{}, J)
}

func TestInverseArcRoundTrip(t *testing.T) {
	cases := []struct{ theta, dLen, dAngle float64 }{
		{0, 0.3, 0},
		{0.4, 0.3, 0.2},
		{-2.5, 0.01, -0.4},
		{1.0, 0, 0.1},
	}
	for _, c := range cases {
		from := Pose{X: 1, Y: -2, Theta: c.theta}
		to := from.Add(ArcDelta(c.theta, c.dLen, c.dAngle))
		dLen, dAngle := InverseArc(from, to)
		assert.InDelta(t, c.dLen, dLen, 1e-12)
		assert.InDelta(t, c.dAngle, dAngle, 1e-12)
	}
}

func TestExpectedTicksInvertsMotionDelta(t *testing.T) {
	from := Pose{X: 0.5, Y: 0.1, Theta: 0.9}
	for _, ticks := range [][2]float64{{25, 25}, {10, 40}, {-30, 30}, {0, 0}} {
		to := from.Add(MotionDelta(testGeometry, from.Theta, ticks[0], ticks[1]))
		l, r := ExpectedTicks(testGeometry, from, to)
		assert.InDelta(t, ticks[0], l, 1e-8)
		assert.InDelta(t, ticks[1], r, 1e-8)
	}
}

func TestExpectedTicksJacobianMatchesFiniteDifference(t *testing.T) {
	const h = 1e-7
	from := Pose{X: 0.2, Y: -0.4, Theta: 0.3}
	for _, to := range []Pose{
		{X: 0.25, Y: -0.38, Theta: 0.3},
		{X: 0.26, Y: -0.37, Theta: 0.42},
		{X: 0.19, Y: -0.41, Theta: 0.1},
	} {
		H := ExpectedTicksJacobian(testGeometry, from, to)
		base := to.Vec()
		for j := 0; j < 3; j++ {
			plus := append([]float64(nil), base...)
			minus := append([]float64(nil), base...)
			plus[j] += h
			minus[j] -= h
			lp, rp := ExpectedTicks(testGeometry, from, PoseFromVec(plus))
			lm, rm := ExpectedTicks(testGeometry, from, PoseFromVec(minus))
			assert.InDelta(t, (lp-lm)/(2*h), H[0][j], 1e-3, "left col %d", j)
			assert.InDelta(t, (rp-rm)/(2*h), H[1][j], 1e-3, "right col %d", j)
		}
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4 * math.Pi, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapAngle(tt.in), 1e-12, "WrapAngle(%v)", tt.in)
	}
}

func TestPoseIsFinite(t *testing.T) {
	assert.True(t, Pose{1, 2, 3}.IsFinite())
	assert.False(t, Pose{math.NaN(), 0, 0}.IsFinite())
	assert.False(t, Pose{0, 0, math.Inf(-1)}.IsFinite())
}
