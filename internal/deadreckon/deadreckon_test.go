package deadreckon

import (
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/odometry/internal/control"
	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/ticklog"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var geom = kinematics.Geometry{TrackLength: 0.490, WheelRadius: 0.130, CountsPerRevolution: 2394}

func deriver(t *testing.T, mode control.Mode) *control.Deriver {
	t.Helper()
	d, err := control.NewDeriver(control.Params{
		Geometry:  geom,
		Mode:      mode,
		LeftRate:  1,
		RightRate: 1,
		TimeScale: 0.001,
	})
	require.NoError(t, err)
	return d
}

func TestCumulativeStraightLine(t *testing.T) {
	src := ticklog.FromSlice([]ticklog.Sample{
		{Timestamp: 0, Left: 0, Right: 0},
		{Timestamp: 100, Left: 50, Right: 50},
		{Timestamp: 200, Left: 100, Right: 100},
	})
	traj, err := Run(deriver(t, control.ModeCumulative), kinematics.Pose{}, src)
	require.NoError(t, err)

	k := geom.MetresPerTick()
	want := []kinematics.Pose{{}, {}, {X: 50 * k}, {X: 100 * k}}
	if diff := cmp.Diff(want, traj.Poses(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("poses mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 100*k, traj.PathLength(), 1e-12)
	last, ok := traj.Last()
	require.True(t, ok)
	assert.InDelta(t, 0.2, last.Time, 1e-12)
}

func TestStartsFromInitialPose(t *testing.T) {
	start := kinematics.Pose{X: 1, Y: 2, Theta: math.Pi / 2}
	in := New(deriver(t, control.ModeCumulative), start)
	in.Push(ticklog.Sample{Timestamp: 500})
	in.Push(ticklog.Sample{Timestamp: 600, Left: 10, Right: 10})

	k := geom.MetresPerTick()
	assert.InDelta(t, 1, in.Pose().X, 1e-12)
	assert.InDelta(t, 2+10*k, in.Pose().Y, 1e-12)
	assert.Equal(t, start, in.Trajectory().Points[0].Pose)
	assert.InDelta(t, 0.1, in.Trajectory().Points[2].Time, 1e-12)
}

func TestEqualTicksNeverTurn(t *testing.T) {
	var samples []ticklog.Sample
	for i := int64(0); i < 500; i++ {
		samples = append(samples, ticklog.Sample{Timestamp: i * 20, Left: i * 7, Right: i * 7})
	}
	traj, err := Run(deriver(t, control.ModeCumulative), kinematics.Pose{}, ticklog.FromSlice(samples))
	require.NoError(t, err)
	for _, p := range traj.Points {
		require.Equal(t, 0.0, p.Pose.Theta)
		require.Equal(t, 0.0, p.Pose.Y)
	}
}

func TestRateModeUsesPreviousCommand(t *testing.T) {
	src := ticklog.FromSlice([]ticklog.Sample{
		{Timestamp: 0, Left: 100, Right: 300},
		{Timestamp: 1000, Left: 0, Right: 0},
	})
	traj, err := Run(deriver(t, control.ModeRate), kinematics.Pose{}, src)
	require.NoError(t, err)

	want := kinematics.MotionDelta(geom, 0, 100, 300)
	got := traj.Poses()[2]
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Theta, got.Theta, 1e-12)
	assert.Greater(t, got.Theta, 0.0)
}

func TestRunPropagatesReadErrors(t *testing.T) {
	src := ticklog.NewReader(strings.NewReader("0 0 0\nbad line here\n"), "input.log")
	traj, err := Run(deriver(t, control.ModeCumulative), kinematics.Pose{}, src)
	var pe *ticklog.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, traj.Len())
}
