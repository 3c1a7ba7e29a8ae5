package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/scheduler"
	"github.com/banshee-data/odometry/internal/trajectory"
)

// PoseJSON is the serialised form of a pose.
type PoseJSON struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPoseJSON converts p.
func NewPoseJSON(p kinematics.Pose) PoseJSON {
	return PoseJSON{X: p.X, Y: p.Y, Theta: p.Theta}
}

// Summary describes one run.
type Summary struct {
	RunID     string    `json:"run_id,omitempty"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	Scheduler           scheduler.Stats `json:"scheduler"`
	BaselineSamples     int             `json:"baseline_samples"`
	ObservationsSkipped int             `json:"observations_skipped"`

	FinalPose          PoseJSON        `json:"final_pose"`
	FinalCovariance    [3][3]float64   `json:"final_covariance"`
	BaselineFinalPose  PoseJSON        `json:"baseline_final_pose"`
	FilteredPathLength float64         `json:"filtered_path_length_m"`
	BaselinePathLength float64         `json:"baseline_path_length_m"`
	EndpointDistance   float64         `json:"endpoint_distance_m"`
	LastInnovation     [2]float64      `json:"last_innovation_ticks"`
	LastNIS            float64         `json:"last_nis"`
	Config             json.RawMessage `json:"config,omitempty"`
}

// FillTrajectoryMetrics sets the pose and path fields from the two
// trajectories.
func (s *Summary) FillTrajectoryMetrics(filtered, baseline *trajectory.Trajectory) {
	if last, ok := filtered.Last(); ok {
		s.FinalPose = NewPoseJSON(last.Pose)
	}
	if last, ok := baseline.Last(); ok {
		s.BaselineFinalPose = NewPoseJSON(last.Pose)
	}
	s.FilteredPathLength = filtered.PathLength()
	s.BaselinePathLength = baseline.PathLength()
	if d := trajectory.EndpointDistance(filtered, baseline); !math.IsNaN(d) {
		s.EndpointDistance = d
	}
}

// WriteSummary writes s as indented JSON.
func WriteSummary(w io.Writer, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
