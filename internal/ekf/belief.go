package ekf

import (
	"fmt"
	"math"

	"github.com/banshee-data/odometry/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Control is a commanded linear and angular velocity (m/s, rad/s).
type Control struct {
	V float64
	W float64
}

// Observation is a pair of encoder tick deltas over one observation interval.
type Observation struct {
	Left  float64
	Right float64
}

// Belief is a Gaussian estimate of the robot pose.
type Belief struct {
	Mean kinematics.Pose
	Cov  *mat.SymDense
}

// psdTolerance is the relative slack allowed on negative eigenvalues.
const psdTolerance = 1e-9

// NewBelief returns a belief at pose with the given covariance. A nil
// covariance means complete certainty (all zeros). The covariance must be
// positive semidefinite.
func NewBelief(pose kinematics.Pose, cov *mat.SymDense) (Belief, error) {
	if cov == nil {
		return Belief{Mean: pose, Cov: mat.NewSymDense(3, nil)}, nil
	}
	if n := cov.SymmetricDim(); n != 3 {
		return Belief{}, fmt.Errorf("%w: initial covariance is %dx%d, want 3x3", ErrDimension, n, n)
	}
	if err := checkPSD(cov); err != nil {
		return Belief{}, fmt.Errorf("%w: initial covariance %v", ErrInvalidCovariance, err)
	}
	c := mat.NewSymDense(3, nil)
	c.CopySym(cov)
	return Belief{Mean: pose, Cov: c}, nil
}

// checkPSD reports an error unless every entry of m is finite and no
// eigenvalue is below -psdTolerance scaled by the largest entry.
func checkPSD(m *mat.SymDense) error {
	n := m.SymmetricDim()
	scale := 1.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("has non-finite entry (%d,%d)", i, j)
			}
			scale = math.Max(scale, math.Abs(v))
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(m, false) {
		return fmt.Errorf("eigen decomposition failed")
	}
	for _, ev := range eig.Values(nil) {
		if ev < -psdTolerance*scale {
			return fmt.Errorf("is not positive semidefinite (eigenvalue %g)", ev)
		}
	}
	return nil
}

// symmetrize returns (A + Aᵀ)/2 for a square A.
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return out
}
