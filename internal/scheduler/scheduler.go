// Package scheduler interleaves EKF predict and update calls across the
// action and observation tick streams in timestamp order.
//
// For each action sample the scheduler derives the control over the
// interval ending at that sample, then drains every observation whose
// timestamp is not after the action: each one costs a predict up to the
// observation time followed by an update. A final catch-up predict carries
// the belief to the action time. An exhausted observation stream behaves
// as if its next timestamp were later than any action.
package scheduler

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/odometry/internal/control"
	"github.com/banshee-data/odometry/internal/ekf"
	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/monitoring"
	"github.com/banshee-data/odometry/internal/ticklog"
	"github.com/banshee-data/odometry/internal/trajectory"
)

// ErrTimestampRegression is returned when a stream's timestamps decrease
// or an observation would require a negative predict interval.
var ErrTimestampRegression = errors.New("timestamp regression")

// State is the scheduler's position in its cycle.
type State int

const (
	AwaitingAction State = iota
	DrainingObservations
	CatchUpPredict
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingAction:
		return "awaiting_action"
	case DrainingObservations:
		return "draining_observations"
	case CatchUpPredict:
		return "catch_up_predict"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Filter is the estimator surface the scheduler drives. *ekf.Estimator
// satisfies it.
type Filter interface {
	Predict(u ekf.Control, dt float64)
	Update(z ekf.Observation) error
	Pose() kinematics.Pose
}

// Stats counts what the scheduler consumed and produced.
type Stats struct {
	Actions      int `json:"actions"`
	Observations int `json:"observations"`
	Predicts     int `json:"predicts"`
	Updates      int `json:"updates"`
	CatchUps     int `json:"catch_ups"`
}

// Scheduler is a single-use state machine over two tick streams.
type Scheduler struct {
	filter       Filter
	deriver      *control.Deriver
	actions      ticklog.Source
	observations ticklog.Source

	state   State
	traj    *trajectory.Trajectory
	stats   Stats
	control ekf.Control

	action    ticklog.Sample
	hasAction bool

	pending      ticklog.Sample
	hasPending   bool
	exhausted    bool
	prevObs      ticklog.Sample
	hasPrevObs   bool
	lastObsStamp int64

	lastPredict int64
}

// New returns a scheduler positioned at AwaitingAction. The filtered
// trajectory starts with the filter's current pose at time zero. Both
// streams are expected to be normalised so their first samples are at
// time zero.
func New(f Filter, d *control.Deriver, actions, observations ticklog.Source) *Scheduler {
	traj := trajectory.New(trajectory.KindFiltered)
	traj.Append(0, trajectory.StepInitial, f.Pose())
	return &Scheduler{
		filter:       f,
		deriver:      d,
		actions:      actions,
		observations: observations,
		state:        AwaitingAction,
		traj:         traj,
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Stats returns the running counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Trajectory returns the filtered trajectory built so far.
func (s *Scheduler) Trajectory() *trajectory.Trajectory {
	return s.traj
}

// Run steps until Done and returns the filtered trajectory.
func (s *Scheduler) Run() (*trajectory.Trajectory, error) {
	for s.state != Done {
		if err := s.Step(); err != nil {
			return s.traj, err
		}
	}
	return s.traj, nil
}

// Step performs one transition. Calling Step in Done is a no-op.
func (s *Scheduler) Step() error {
	switch s.state {
	case AwaitingAction:
		return s.nextAction()
	case DrainingObservations:
		return s.drain()
	case CatchUpPredict:
		return s.catchUp()
	default:
		return nil
	}
}

func (s *Scheduler) nextAction() error {
	a, err := s.actions.Next()
	if errors.Is(err, io.EOF) {
		s.state = Done
		monitoring.Debugf("scheduler: actions exhausted after %d samples", s.stats.Actions)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading action: %w", err)
	}
	if s.hasAction && a.Timestamp < s.action.Timestamp {
		return fmt.Errorf("%w: action at %d follows %d", ErrTimestampRegression, a.Timestamp, s.action.Timestamp)
	}
	s.deriver.Push(a)
	s.control = s.deriver.Control()
	s.action, s.hasAction = a, true
	s.stats.Actions++
	s.state = DrainingObservations
	return nil
}

// peek makes the next observation available in s.pending unless the stream
// is exhausted.
func (s *Scheduler) peek() error {
	if s.hasPending || s.exhausted {
		return nil
	}
	o, err := s.observations.Next()
	if errors.Is(err, io.EOF) {
		s.exhausted = true
		monitoring.Debugf("scheduler: observations exhausted after %d samples", s.stats.Observations)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading observation: %w", err)
	}
	if s.hasPrevObs && o.Timestamp < s.lastObsStamp {
		return fmt.Errorf("%w: observation at %d follows %d", ErrTimestampRegression, o.Timestamp, s.lastObsStamp)
	}
	s.pending, s.hasPending = o, true
	return nil
}

func (s *Scheduler) drain() error {
	if err := s.peek(); err != nil {
		return err
	}
	if s.exhausted || s.pending.Timestamp > s.action.Timestamp {
		s.state = CatchUpPredict
		return nil
	}

	obs := s.pending
	if obs.Timestamp < s.lastPredict {
		return fmt.Errorf("%w: observation at %d precedes last predict at %d", ErrTimestampRegression, obs.Timestamp, s.lastPredict)
	}
	s.predict(obs.Timestamp, trajectory.StepPredict)

	prev := obs
	if s.hasPrevObs {
		prev = s.prevObs
	}
	dl, dr := obs.Delta(prev)
	if err := s.filter.Update(ekf.Observation{Left: float64(dl), Right: float64(dr)}); err != nil {
		return fmt.Errorf("update at %d: %w", obs.Timestamp, err)
	}
	s.stats.Updates++
	s.traj.Append(s.seconds(obs.Timestamp), trajectory.StepUpdate, s.filter.Pose())

	s.prevObs, s.hasPrevObs = obs, true
	s.lastObsStamp = obs.Timestamp
	s.hasPending = false
	s.stats.Observations++
	return nil
}

func (s *Scheduler) catchUp() error {
	if s.action.Timestamp < s.lastPredict {
		return fmt.Errorf("%w: action at %d precedes last predict at %d", ErrTimestampRegression, s.action.Timestamp, s.lastPredict)
	}
	s.predict(s.action.Timestamp, trajectory.StepCatchUp)
	s.stats.CatchUps++
	s.state = AwaitingAction
	return nil
}

// predict advances the filter from lastPredict to stamp under the current
// control.
func (s *Scheduler) predict(stamp int64, step trajectory.Step) {
	dt := s.seconds(stamp - s.lastPredict)
	s.filter.Predict(s.control, dt)
	s.stats.Predicts++
	s.lastPredict = stamp
	pose := s.filter.Pose()
	s.traj.Append(s.seconds(stamp), step, pose)
	monitoring.Debugf("scheduler: %s t=%d dt=%.4f pose=(%.4f, %.4f, %.4f)", step, stamp, dt, pose.X, pose.Y, pose.Theta)
}

func (s *Scheduler) seconds(units int64) float64 {
	return float64(units) * s.deriver.TimeScale()
}
