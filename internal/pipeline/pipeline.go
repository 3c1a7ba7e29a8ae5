// Package pipeline wires configuration, tick logs, the filter, the
// scheduler and the dead-reckoning baseline into one batch run.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/odometry/internal/config"
	"github.com/banshee-data/odometry/internal/control"
	"github.com/banshee-data/odometry/internal/deadreckon"
	"github.com/banshee-data/odometry/internal/ekf"
	"github.com/banshee-data/odometry/internal/fsutil"
	"github.com/banshee-data/odometry/internal/monitoring"
	"github.com/banshee-data/odometry/internal/report"
	"github.com/banshee-data/odometry/internal/runstore"
	"github.com/banshee-data/odometry/internal/scheduler"
	"github.com/banshee-data/odometry/internal/ticklog"
	"github.com/banshee-data/odometry/internal/timeutil"
	"github.com/banshee-data/odometry/internal/trajectory"
	"github.com/banshee-data/odometry/internal/version"
)

// Artifact file names written by WriteArtifacts.
const (
	PathPNG     = "path.png"
	PathHTML    = "path.html"
	SummaryJSON = "summary.json"
)

// Inputs names the tick logs of one run.
type Inputs struct {
	FS           fsutil.FileSystem
	Observations string // measured encoder ticks
	Actions      string // commanded ticks
	Baseline     string // stream for dead reckoning; defaults to Actions
}

// Result is everything a run produced.
type Result struct {
	Config              *config.RobotConfig // effective values
	Filtered            *trajectory.Trajectory
	Baseline            *trajectory.Trajectory
	Stats               scheduler.Stats
	ObservationsSkipped int
	Final               ekf.Belief
	LastInnovation      [2]float64
	LastNIS             float64
	RunID               string
}

// Run executes the filter over the two streams and the baseline over the
// baseline stream.
func Run(cfg *config.RobotConfig, in Inputs) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	fsys := in.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	baselinePath := in.Baseline
	if baselinePath == "" {
		baselinePath = in.Actions
	}

	initial, err := cfg.InitialBelief()
	if err != nil {
		return nil, err
	}
	est, err := ekf.New(cfg.EKFConfig(), initial)
	if err != nil {
		return nil, err
	}
	deriver, err := control.NewDeriver(cfg.ControlParams())
	if err != nil {
		return nil, err
	}

	obsFile, err := ticklog.Open(fsys, in.Observations)
	if err != nil {
		return nil, err
	}
	defer obsFile.Close()
	actFile, err := ticklog.Open(fsys, in.Actions)
	if err != nil {
		return nil, err
	}
	defer actFile.Close()

	var obs ticklog.Source = obsFile
	var trimmed *ticklog.IdleTrimmed
	if cfg.GetTrimLeadingIdle() {
		trimmed = ticklog.TrimLeadingIdle(obsFile)
		obs = trimmed
	}

	sched := scheduler.New(est, deriver, ticklog.Normalize(actFile), ticklog.Normalize(obs))
	filtered, err := sched.Run()
	if err != nil {
		return nil, fmt.Errorf("filter run: %w", err)
	}

	baseline, err := runBaseline(fsys, cfg, baselinePath)
	if err != nil {
		return nil, err
	}

	left, right, nis := est.LastInnovation()
	res := &Result{
		Config:         cfg.Effective(),
		Filtered:       filtered,
		Baseline:       baseline,
		Stats:          sched.Stats(),
		Final:          est.Belief(),
		LastInnovation: [2]float64{left, right},
		LastNIS:        nis,
	}
	if trimmed != nil {
		res.ObservationsSkipped = trimmed.Skipped()
	}

	final := res.Final.Mean
	monitoring.Logf("run complete: actions=%d observations=%d (skipped %d idle) predicts=%d updates=%d final=(%.4f, %.4f, %.4f)",
		res.Stats.Actions, res.Stats.Observations, res.ObservationsSkipped, res.Stats.Predicts, res.Stats.Updates,
		final.X, final.Y, final.Theta)
	return res, nil
}

func runBaseline(fsys fsutil.FileSystem, cfg *config.RobotConfig, path string) (*trajectory.Trajectory, error) {
	f, err := ticklog.Open(fsys, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := control.NewDeriver(cfg.ControlParams())
	if err != nil {
		return nil, err
	}
	traj, err := deadreckon.Run(d, cfg.GetInitialPose(), ticklog.Normalize(f))
	if err != nil {
		return nil, err
	}
	return traj, nil
}

// Summary returns the run summary.
func (r *Result) Summary() (*report.Summary, error) {
	s := &report.Summary{
		RunID:               r.RunID,
		Version:             version.Version,
		Scheduler:           r.Stats,
		BaselineSamples:     r.Baseline.Len() - 1,
		ObservationsSkipped: r.ObservationsSkipped,
		LastInnovation:      r.LastInnovation,
		LastNIS:             r.LastNIS,
	}
	s.FillTrajectoryMetrics(r.Filtered, r.Baseline)
	if r.Final.Cov != nil {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				s.FinalCovariance[i][j] = r.Final.Cov.At(i, j)
			}
		}
	}
	data, err := json.Marshal(r.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	s.Config = data
	return s, nil
}

// WriteArtifacts writes path.png and summary.json, plus path.html when
// html is set, into dir.
func (r *Result) WriteArtifacts(fsys fsutil.FileSystem, dir string, html bool, clock timeutil.Clock) error {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	summary, err := r.Summary()
	if err != nil {
		return err
	}
	summary.CreatedAt = clock.Now().UTC()

	if err := writeFile(fsys, filepath.Join(dir, PathPNG), func(w io.Writer) error {
		return report.WritePNG(w, r.Filtered, r.Baseline)
	}); err != nil {
		return err
	}
	if html {
		title := "odometry run"
		if r.RunID != "" {
			title += " " + r.RunID
		}
		if err := writeFile(fsys, filepath.Join(dir, PathHTML), func(w io.Writer) error {
			return report.WriteHTML(w, title, r.Filtered, r.Baseline)
		}); err != nil {
			return err
		}
	}
	return writeFile(fsys, filepath.Join(dir, SummaryJSON), func(w io.Writer) error {
		return report.WriteSummary(w, summary)
	})
}

func writeFile(fsys fsutil.FileSystem, path string, render func(io.Writer) error) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := render(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// Record stores the run in store and sets RunID.
func (r *Result) Record(ctx context.Context, store *runstore.Store) (string, error) {
	s, err := r.Summary()
	if err != nil {
		return "", err
	}
	id, err := store.SaveRun(ctx, &runstore.Run{
		ID:                  r.RunID,
		Config:              s.Config,
		Stats:               r.Stats,
		ObservationsSkipped: r.ObservationsSkipped,
		BaselineSamples:     s.BaselineSamples,
		EndpointDistance:    s.EndpointDistance,
		FilteredPathLength:  s.FilteredPathLength,
		BaselinePathLength:  s.BaselinePathLength,
		Filtered:            r.Filtered,
		Baseline:            r.Baseline,
	})
	if err != nil {
		return "", err
	}
	r.RunID = id
	return id, nil
}
