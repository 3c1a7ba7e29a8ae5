// Package runstore persists filter runs and their trajectories in SQLite.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/scheduler"
	"github.com/banshee-data/odometry/internal/timeutil"
	"github.com/banshee-data/odometry/internal/trajectory"
	"github.com/banshee-data/odometry/internal/version"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Store is a run history database.
type Store struct {
	*sql.DB
	clock timeutil.Clock
}

// Run is one stored pipeline execution. Trajectories are only populated by
// SaveRun callers and LoadRun; ListRuns leaves them nil.
type Run struct {
	ID        string
	CreatedAt time.Time
	Version   string
	GitSHA    string
	Config    json.RawMessage

	Stats               scheduler.Stats
	ObservationsSkipped int
	BaselineSamples     int

	EndpointDistance   float64
	FilteredPathLength float64
	BaselinePathLength float64

	Filtered *trajectory.Trajectory
	Baseline *trajectory.Trajectory
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injected clock for run timestamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA foreign_keys = ON;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	s := &Store{DB: db, clock: clock}
	if err := s.MigrateUp(Migrations()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SaveRun stores run and both trajectories in one transaction. A missing ID
// is filled with a new UUID, a zero CreatedAt with the store clock, and an
// empty Version with the build version. The stored ID is returned.
func (s *Store) SaveRun(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock.Now().UTC()
	}
	if run.Version == "" {
		run.Version, run.GitSHA = version.Version, version.GitSHA
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var cfg interface{}
	if len(run.Config) > 0 {
		cfg = string(run.Config)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, created_at, version, git_sha, config_json,
			actions, observations, predicts, updates, catch_ups,
			observations_skipped, baseline_samples,
			endpoint_distance_m, filtered_path_length_m, baseline_path_length_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Version, run.GitSHA, cfg,
		run.Stats.Actions, run.Stats.Observations, run.Stats.Predicts, run.Stats.Updates, run.Stats.CatchUps,
		run.ObservationsSkipped, run.BaselineSamples,
		run.EndpointDistance, run.FilteredPathLength, run.BaselinePathLength,
	)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO poses (run_id, kind, seq, t, step, x, y, theta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare pose insert: %w", err)
	}
	defer stmt.Close()

	for _, traj := range []*trajectory.Trajectory{run.Filtered, run.Baseline} {
		if traj == nil {
			continue
		}
		for i, p := range traj.Points {
			if _, err := stmt.ExecContext(ctx, run.ID, string(traj.Kind), i, p.Time, string(p.Step), p.Pose.X, p.Pose.Y, p.Pose.Theta); err != nil {
				return "", fmt.Errorf("insert %s pose %d: %w", traj.Kind, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

const runColumns = `run_id, created_at, version, git_sha, config_json,
	actions, observations, predicts, updates, catch_ups,
	observations_skipped, baseline_samples,
	endpoint_distance_m, filtered_path_length_m, baseline_path_length_m`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		createdAt int64
		cfg       sql.NullString
		endpoint  sql.NullFloat64
		filtered  sql.NullFloat64
		baseline  sql.NullFloat64
	)
	err := row.Scan(&r.ID, &createdAt, &r.Version, &r.GitSHA, &cfg,
		&r.Stats.Actions, &r.Stats.Observations, &r.Stats.Predicts, &r.Stats.Updates, &r.Stats.CatchUps,
		&r.ObservationsSkipped, &r.BaselineSamples,
		&endpoint, &filtered, &baseline)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	if cfg.Valid {
		r.Config = json.RawMessage(cfg.String)
	}
	r.EndpointDistance = endpoint.Float64
	r.FilteredPathLength = filtered.Float64
	r.BaselinePathLength = baseline.Float64
	return &r, nil
}

// ListRuns returns all runs, newest first, without trajectories.
func (s *Store) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run without trajectories.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// LoadRun returns a run with both trajectories.
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, error) {
	r, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Filtered, err = s.LoadTrajectory(ctx, id, trajectory.KindFiltered); err != nil {
		return nil, err
	}
	if r.Baseline, err = s.LoadTrajectory(ctx, id, trajectory.KindBaseline); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadTrajectory returns the stored trajectory of the given kind for a run.
func (s *Store) LoadTrajectory(ctx context.Context, runID string, kind trajectory.Kind) (*trajectory.Trajectory, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.QueryContext(ctx, `
		SELECT t, step, x, y, theta FROM poses
		WHERE run_id = ? AND kind = ?
		ORDER BY seq`, runID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("load %s trajectory of %s: %w", kind, runID, err)
	}
	defer rows.Close()

	traj := trajectory.New(kind)
	for rows.Next() {
		var (
			t    float64
			step string
			p    kinematics.Pose
		)
		if err := rows.Scan(&t, &step, &p.X, &p.Y, &p.Theta); err != nil {
			return nil, fmt.Errorf("scan pose: %w", err)
		}
		traj.Append(t, trajectory.Step(step), p)
	}
	return traj, rows.Err()
}

// DeleteRun removes a run and its poses.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
