// Package deadreckon integrates a single tick stream open loop. The result
// is the baseline the filtered trajectory is compared against.
package deadreckon

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/odometry/internal/control"
	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/ticklog"
	"github.com/banshee-data/odometry/internal/trajectory"
)

// Integrator accumulates pose from per-wheel tick increments.
type Integrator struct {
	deriver *control.Deriver
	pose    kinematics.Pose
	origin  int64
	traj    *trajectory.Trajectory
}

// New returns an Integrator starting at initial. The trajectory's first
// point is the initial pose.
func New(d *control.Deriver, initial kinematics.Pose) *Integrator {
	traj := trajectory.New(trajectory.KindBaseline)
	traj.Append(0, trajectory.StepInitial, initial)
	return &Integrator{deriver: d, pose: initial, traj: traj}
}

// Push integrates the increment ending at s and records the new pose.
func (in *Integrator) Push(s ticklog.Sample) {
	in.deriver.Push(s)
	ring := in.deriver.Ring()
	if ring.Len() == 1 {
		in.origin = s.Timestamp
	}
	left, right := in.deriver.Increments()
	in.pose = in.pose.Add(kinematics.MotionDelta(in.deriver.Geometry(), in.pose.Theta, left, right))
	t := float64(s.Timestamp-in.origin) * in.deriver.TimeScale()
	in.traj.Append(t, trajectory.StepIntegrate, in.pose)
}

// Pose returns the current pose.
func (in *Integrator) Pose() kinematics.Pose {
	return in.pose
}

// Trajectory returns the poses recorded so far.
func (in *Integrator) Trajectory() *trajectory.Trajectory {
	return in.traj
}

// Run integrates src to exhaustion.
func Run(d *control.Deriver, initial kinematics.Pose, src ticklog.Source) (*trajectory.Trajectory, error) {
	in := New(d, initial)
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			return in.Trajectory(), nil
		}
		if err != nil {
			return in.Trajectory(), fmt.Errorf("dead reckoning: %w", err)
		}
		in.Push(s)
	}
}
