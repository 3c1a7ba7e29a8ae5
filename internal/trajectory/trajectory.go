// Package trajectory stores pose sequences produced by the filter and the
// dead-reckoning baseline, and computes simple comparison metrics.
package trajectory

import (
	"math"

	"github.com/banshee-data/odometry/internal/kinematics"
)

// Kind names the producer of a trajectory.
type Kind string

const (
	KindFiltered Kind = "filtered"
	KindBaseline Kind = "baseline"
)

// Step identifies the operation that produced a point.
type Step string

const (
	StepInitial   Step = "initial"
	StepPredict   Step = "predict"
	StepUpdate    Step = "update"
	StepCatchUp   Step = "catch_up"
	StepIntegrate Step = "integrate"
)

// Point is one pose snapshot. Time is seconds since the stream origin.
type Point struct {
	Time float64
	Step Step
	Pose kinematics.Pose
}

// Trajectory is an append-only sequence of points.
type Trajectory struct {
	Kind   Kind
	Points []Point
}

// New returns an empty trajectory.
func New(kind Kind) *Trajectory {
	return &Trajectory{Kind: kind}
}

// Append adds a point.
func (t *Trajectory) Append(time float64, step Step, p kinematics.Pose) {
	t.Points = append(t.Points, Point{Time: time, Step: step, Pose: p})
}

// Len returns the number of points.
func (t *Trajectory) Len() int {
	return len(t.Points)
}

// Last returns the final point.
func (t *Trajectory) Last() (Point, bool) {
	if len(t.Points) == 0 {
		return Point{}, false
	}
	return t.Points[len(t.Points)-1], true
}

// Poses returns the poses in order.
func (t *Trajectory) Poses() []kinematics.Pose {
	out := make([]kinematics.Pose, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Pose
	}
	return out
}

// XY returns the x and y coordinates as parallel slices.
func (t *Trajectory) XY() (xs, ys []float64) {
	xs = make([]float64, len(t.Points))
	ys = make([]float64, len(t.Points))
	for i, p := range t.Points {
		xs[i], ys[i] = p.Pose.X, p.Pose.Y
	}
	return xs, ys
}

// Count returns how many points were produced by step.
func (t *Trajectory) Count(step Step) int {
	n := 0
	for _, p := range t.Points {
		if p.Step == step {
			n++
		}
	}
	return n
}

// PathLength returns the summed Euclidean distance between consecutive points.
func (t *Trajectory) PathLength() float64 {
	total := 0.0
	for i := 1; i < len(t.Points); i++ {
		a, b := t.Points[i-1].Pose, t.Points[i].Pose
		total += math.Hypot(b.X-a.X, b.Y-a.Y)
	}
	return total
}

// EndpointDistance returns the distance between the final positions of a
// and b, or NaN if either is empty.
func EndpointDistance(a, b *Trajectory) float64 {
	pa, okA := a.Last()
	pb, okB := b.Last()
	if !okA || !okB {
		return math.NaN()
	}
	return math.Hypot(pa.Pose.X-pb.Pose.X, pa.Pose.Y-pb.Pose.Y)
}
