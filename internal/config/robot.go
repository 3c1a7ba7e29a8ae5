// Package config loads the robot description and filter tuning used by the
// odometry pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/odometry/internal/control"
	"github.com/banshee-data/odometry/internal/ekf"
	"github.com/banshee-data/odometry/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// DefaultConfigPath is the path to the canonical robot defaults file.
const DefaultConfigPath = "config/robot.defaults.json"

// Defaults used when a field is omitted. They describe the reference robot
// whose logs the tool was first written for.
const (
	DefaultTrackLength         = 0.490
	DefaultWheelRadius         = 0.130
	DefaultCountsPerRevolution = 2394
	DefaultTimestampScale      = 0.001

	// Per-wheel rate constants measured on the reference robot: ticks
	// travelled during a 223 s calibration run at a 26.359 command scale.
	DefaultLeftRateTicks  = (4283919143.0 - 4283826615.0) / (1000 * 26.359 * 223)
	DefaultRightRateTicks = (4288936710.0 - 4288840803.0) / (1000 * 26.359 * 223)
)

// RobotConfig is the JSON robot description. Every field is optional; the
// Get* accessors supply defaults for omitted fields.
type RobotConfig struct {
	// Geometry
	TrackLengthM        *float64 `json:"track_length_m,omitempty"`
	WheelRadiusM        *float64 `json:"wheel_radius_m,omitempty"`
	CountsPerRevolution *float64 `json:"counts_per_revolution,omitempty"`

	// Noise
	MotionNoise      *[4]float64    `json:"motion_noise,omitempty"`      // alpha1..alpha4
	MeasurementNoise *[2][2]float64 `json:"measurement_noise,omitempty"` // ticks^2, (left, right)

	// Initial belief
	InitialPose       *[3]float64    `json:"initial_pose,omitempty"` // x, y, theta
	InitialCovariance *[3][3]float64 `json:"initial_covariance,omitempty"`

	// Stream interpretation
	ActionMode      *string  `json:"action_mode,omitempty"` // "cumulative" or "rate"
	LeftRateTicks   *float64 `json:"left_rate_ticks,omitempty"`
	RightRateTicks  *float64 `json:"right_rate_ticks,omitempty"`
	TimestampScaleS *float64 `json:"timestamp_scale_s,omitempty"`
	TrimLeadingIdle *bool    `json:"trim_leading_idle,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyRobotConfig returns a RobotConfig with all fields set to nil.
func EmptyRobotConfig() *RobotConfig {
	return &RobotConfig{}
}

// LoadRobotConfig loads a RobotConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Omitted fields
// keep their defaults, so partial configs are safe.
func LoadRobotConfig(path string) (*RobotConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRobotConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *RobotConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRobotConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks every value the filter, the control deriver and the
// initial belief depend on.
func (c *RobotConfig) Validate() error {
	if err := c.EKFConfig().Validate(); err != nil {
		return err
	}
	if err := c.ControlParams().Validate(); err != nil {
		return err
	}
	if c.InitialPose != nil {
		for i, v := range c.InitialPose {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("initial_pose[%d] must be finite, got %v", i, v)
			}
		}
	}
	if c.InitialCovariance != nil {
		m := c.InitialCovariance
		for i := 0; i < 3; i++ {
			if m[i][i] < 0 {
				return fmt.Errorf("initial_covariance[%d][%d] must be non-negative, got %v", i, i, m[i][i])
			}
			for j := 0; j < 3; j++ {
				if m[i][j] != m[j][i] {
					return fmt.Errorf("initial_covariance must be symmetric: [%d][%d]=%v, [%d][%d]=%v", i, j, m[i][j], j, i, m[j][i])
				}
			}
		}
	}
	if c.MeasurementNoise != nil && c.MeasurementNoise[0][1] != c.MeasurementNoise[1][0] {
		return fmt.Errorf("measurement_noise must be symmetric")
	}
	if _, err := c.InitialBelief(); err != nil {
		return fmt.Errorf("initial_covariance: %w", err)
	}
	return nil
}

// GetTrackLength returns the wheel separation in metres or the default.
func (c *RobotConfig) GetTrackLength() float64 {
	if c.TrackLengthM == nil {
		return DefaultTrackLength
	}
	return *c.TrackLengthM
}

// GetWheelRadius returns the wheel radius in metres or the default.
func (c *RobotConfig) GetWheelRadius() float64 {
	if c.WheelRadiusM == nil {
		return DefaultWheelRadius
	}
	return *c.WheelRadiusM
}

// GetCountsPerRevolution returns encoder ticks per wheel revolution or the default.
func (c *RobotConfig) GetCountsPerRevolution() float64 {
	if c.CountsPerRevolution == nil {
		return DefaultCountsPerRevolution
	}
	return *c.CountsPerRevolution
}

// GetMotionNoise returns alpha1..alpha4; the default is noiseless motion.
func (c *RobotConfig) GetMotionNoise() ekf.MotionNoise {
	if c.MotionNoise == nil {
		return ekf.MotionNoise{}
	}
	return ekf.MotionNoise(*c.MotionNoise)
}

// GetMeasurementNoise returns the tick covariance; the default is identity.
func (c *RobotConfig) GetMeasurementNoise() [2][2]float64 {
	if c.MeasurementNoise == nil {
		return [2][2]float64{{1, 0}, {0, 1}}
	}
	return *c.MeasurementNoise
}

// GetInitialPose returns the starting pose or the origin.
func (c *RobotConfig) GetInitialPose() kinematics.Pose {
	if c.InitialPose == nil {
		return kinematics.Pose{}
	}
	return kinematics.PoseFromVec(c.InitialPose[:])
}

// GetInitialCovariance returns the starting covariance or zeros.
func (c *RobotConfig) GetInitialCovariance() [3][3]float64 {
	if c.InitialCovariance == nil {
		return [3][3]float64{}
	}
	return *c.InitialCovariance
}

// GetActionMode returns the action stream layout or the default.
func (c *RobotConfig) GetActionMode() control.Mode {
	if c.ActionMode == nil || *c.ActionMode == "" {
		return control.ModeCumulative
	}
	return control.Mode(*c.ActionMode)
}

// GetLeftRateTicks returns the left wheel rate constant or the default.
func (c *RobotConfig) GetLeftRateTicks() float64 {
	if c.LeftRateTicks == nil {
		return DefaultLeftRateTicks
	}
	return *c.LeftRateTicks
}

// GetRightRateTicks returns the right wheel rate constant or the default.
func (c *RobotConfig) GetRightRateTicks() float64 {
	if c.RightRateTicks == nil {
		return DefaultRightRateTicks
	}
	return *c.RightRateTicks
}

// GetTimestampScale returns seconds per log timestamp unit or the default.
func (c *RobotConfig) GetTimestampScale() float64 {
	if c.TimestampScaleS == nil {
		return DefaultTimestampScale
	}
	return *c.TimestampScaleS
}

// GetTrimLeadingIdle returns whether idle observations before the first
// movement are skipped. Default true.
func (c *RobotConfig) GetTrimLeadingIdle() bool {
	if c.TrimLeadingIdle == nil {
		return true
	}
	return *c.TrimLeadingIdle
}

// Geometry returns the robot geometry.
func (c *RobotConfig) Geometry() kinematics.Geometry {
	return kinematics.Geometry{
		TrackLength:         c.GetTrackLength(),
		WheelRadius:         c.GetWheelRadius(),
		CountsPerRevolution: c.GetCountsPerRevolution(),
	}
}

// EKFConfig returns the estimator configuration.
func (c *RobotConfig) EKFConfig() ekf.Config {
	q := c.GetMeasurementNoise()
	return ekf.Config{
		Geometry:         c.Geometry(),
		MotionNoise:      c.GetMotionNoise(),
		MeasurementNoise: mat.NewSymDense(2, []float64{q[0][0], q[0][1], q[1][0], q[1][1]}),
	}
}

// ControlParams returns the action deriver parameters.
func (c *RobotConfig) ControlParams() control.Params {
	return control.Params{
		Geometry:  c.Geometry(),
		Mode:      c.GetActionMode(),
		LeftRate:  c.GetLeftRateTicks(),
		RightRate: c.GetRightRateTicks(),
		TimeScale: c.GetTimestampScale(),
	}
}

// InitialBelief returns the belief the estimator starts from.
func (c *RobotConfig) InitialBelief() (ekf.Belief, error) {
	p := c.GetInitialCovariance()
	data := make([]float64, 0, 9)
	for i := range p {
		data = append(data, p[i][:]...)
	}
	return ekf.NewBelief(c.GetInitialPose(), mat.NewSymDense(3, data))
}

// Effective returns a copy with every field populated from the accessors.
// It is what gets recorded alongside a run.
func (c *RobotConfig) Effective() *RobotConfig {
	noise := [4]float64(c.GetMotionNoise())
	q := c.GetMeasurementNoise()
	pose := c.GetInitialPose()
	initial := [3]float64{pose.X, pose.Y, pose.Theta}
	cov := c.GetInitialCovariance()
	return &RobotConfig{
		TrackLengthM:        ptrFloat64(c.GetTrackLength()),
		WheelRadiusM:        ptrFloat64(c.GetWheelRadius()),
		CountsPerRevolution: ptrFloat64(c.GetCountsPerRevolution()),
		MotionNoise:         &noise,
		MeasurementNoise:    &q,
		InitialPose:         &initial,
		InitialCovariance:   &cov,
		ActionMode:          ptrString(string(c.GetActionMode())),
		LeftRateTicks:       ptrFloat64(c.GetLeftRateTicks()),
		RightRateTicks:      ptrFloat64(c.GetRightRateTicks()),
		TimestampScaleS:     ptrFloat64(c.GetTimestampScale()),
		TrimLeadingIdle:     ptrBool(c.GetTrimLeadingIdle()),
	}
}
