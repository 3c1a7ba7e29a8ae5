package testutil

import (
	"testing"

	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/ticklog"
)

func TestAssertPoseNear(t *testing.T) {
	t.Parallel()
	AssertPoseNear(t, kinematics.Pose{X: 1}, kinematics.Pose{X: 1 + 1e-10}, 1e-9)
}

func TestPoseDistance(t *testing.T) {
	t.Parallel()
	got := PoseDistance(kinematics.Pose{X: 1, Y: 2, Theta: 3}, kinematics.Pose{X: 1.5, Y: 1, Theta: 3.25})
	if got != 1 {
		t.Errorf("PoseDistance = %v, want 1", got)
	}
}

func TestTickLog(t *testing.T) {
	t.Parallel()
	got := TickLog(ticklog.Sample{Timestamp: 0, Left: 1, Right: 2}, ticklog.Sample{Timestamp: 10, Left: -3, Right: 4})
	want := "0 1 2\n10 -3 4\n"
	if got != want {
		t.Errorf("TickLog = %q, want %q", got, want)
	}
}

func TestStraightRun(t *testing.T) {
	t.Parallel()
	got := StraightRun(100, 20, 5, 3)
	want := []ticklog.Sample{{Timestamp: 100}, {Timestamp: 120, Left: 5, Right: 5}, {Timestamp: 140, Left: 10, Right: 10}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
