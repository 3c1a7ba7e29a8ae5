// Package testutil provides shared test helpers and tick-log fixtures.
package testutil

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/ticklog"
)

// AssertPoseNear fails the test if any component of got differs from want
// by more than tol.
func AssertPoseNear(t *testing.T, want, got kinematics.Pose, tol float64) {
	t.Helper()
	if PoseDistance(want, got) > tol {
		t.Errorf("pose = (%.9g, %.9g, %.9g), want (%.9g, %.9g, %.9g) within %g",
			got.X, got.Y, got.Theta, want.X, want.Y, want.Theta, tol)
	}
}

// PoseDistance returns the largest absolute component difference.
func PoseDistance(a, b kinematics.Pose) float64 {
	return math.Max(math.Abs(a.X-b.X), math.Max(math.Abs(a.Y-b.Y), math.Abs(a.Theta-b.Theta)))
}

// TickLog formats samples in the on-disk log layout.
func TickLog(samples ...ticklog.Sample) string {
	var b strings.Builder
	for _, s := range samples {
		fmt.Fprintf(&b, "%d %d %d\n", s.Timestamp, s.Left, s.Right)
	}
	return b.String()
}

// StraightRun returns n samples at period spacing with both wheels
// advancing by step ticks per sample, starting at start.
func StraightRun(start, period, step int64, n int) []ticklog.Sample {
	out := make([]ticklog.Sample, n)
	for i := range out {
		k := int64(i)
		out[i] = ticklog.Sample{Timestamp: start + k*period, Left: k * step, Right: k * step}
	}
	return out
}
