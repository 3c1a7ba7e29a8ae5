package ekf

import (
	"fmt"
	"math"
)

// MotionNoise holds α₁..α₄ of the odometry noise model. Process noise in
// control space is diag(α₁v² + α₂ω², α₃v² + α₄ω²).
type MotionNoise [4]float64

// Validate checks that every α is finite and non-negative.
func (n MotionNoise) Validate() error {
	for i, a := range n {
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			return fmt.Errorf("%w: alpha%d must be non-negative, got %v", ErrInvalidNoise, i+1, a)
		}
	}
	return nil
}

// ControlCovariance returns the diagonal of M for the given control.
func (n MotionNoise) ControlCovariance(u Control) (vv, ww float64) {
	v2, w2 := u.V*u.V, u.W*u.W
	return n[0]*v2 + n[1]*w2, n[2]*v2 + n[3]*w2
}
