package ekf

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/odometry/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Config holds the fixed parameters of the filter.
type Config struct {
	Geometry         kinematics.Geometry
	MotionNoise      MotionNoise
	MeasurementNoise *mat.SymDense // 2x2 over (left, right) ticks
}

// Validate checks the configuration before any predict/update runs.
func (c Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if err := c.MotionNoise.Validate(); err != nil {
		return err
	}
	if c.MeasurementNoise == nil {
		return fmt.Errorf("%w: measurement noise is required", ErrInvalidNoise)
	}
	if n := c.MeasurementNoise.SymmetricDim(); n != 2 {
		return fmt.Errorf("%w: measurement noise is %dx%d, want 2x2", ErrDimension, n, n)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := c.MeasurementNoise.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: measurement noise has non-finite entry (%d,%d)", ErrInvalidNoise, i, j)
			}
		}
	}
	if c.MeasurementNoise.At(0, 0) < 0 || c.MeasurementNoise.At(1, 1) < 0 {
		return fmt.Errorf("%w: measurement noise variances must be non-negative", ErrInvalidNoise)
	}
	if err := checkPSD(c.MeasurementNoise); err != nil {
		return fmt.Errorf("%w: measurement noise %v", ErrInvalidNoise, err)
	}
	return nil
}

// Estimator is an EKF over the planar pose (x, y, θ).
type Estimator struct {
	cfg Config

	mean kinematics.Pose
	cov  *mat.SymDense

	// anchor is the mean at the start of the current observation interval.
	anchor       kinematics.Pose
	intervalOpen bool

	predicts int
	updates  int

	lastInnovation [2]float64
	lastNIS        float64
}

// New validates cfg and returns an estimator initialised to initial.
func New(cfg Config, initial Belief) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := NewBelief(initial.Mean, initial.Cov)
	if err != nil {
		return nil, err
	}
	q := mat.NewSymDense(2, nil)
	q.CopySym(cfg.MeasurementNoise)
	cfg.MeasurementNoise = q

	return &Estimator{
		cfg:    cfg,
		mean:   b.Mean,
		cov:    b.Cov,
		anchor: b.Mean,
	}, nil
}

// Predict propagates the belief by dt seconds under control u. A
// non-positive dt leaves the belief unchanged.
func (e *Estimator) Predict(u Control, dt float64) {
	e.predicts++
	if !e.intervalOpen {
		e.anchor = e.mean
		e.intervalOpen = true
	}
	if dt <= 0 {
		return
	}

	theta := e.mean.Theta
	dLen, dAngle := u.V*dt, u.W*dt
	gx, gy := kinematics.ArcHeadingPartials(theta, dLen, dAngle)
	G := mat.NewDense(3, 3, []float64{
		1, 0, gx,
		0, 1, gy,
		0, 0, 1,
	})
	J := kinematics.ArcControlPartials(theta, u.V, u.W, dt)
	V := mat.NewDense(3, 2, []float64{
		J[0][0], J[0][1],
		J[1][0], J[1][1],
		J[2][0], J[2][1],
	})
	mv, mw := e.cfg.MotionNoise.ControlCovariance(u)
	M := mat.NewDiagDense(2, []float64{mv, mw})

	var gs, gsg mat.Dense
	gs.Mul(G, e.cov)
	gsg.Mul(&gs, G.T())

	var vm, vmv mat.Dense
	vm.Mul(V, M)
	vmv.Mul(&vm, V.T())
	gsg.Add(&gsg, &vmv)

	e.mean = e.mean.Add(kinematics.ArcDelta(theta, dLen, dAngle))
	e.cov = symmetrize(&gsg)
}

// Update corrects the belief with the encoder ticks observed since the
// previous observation. On error the belief is unchanged.
func (e *Estimator) Update(z Observation) error {
	g := e.cfg.Geometry
	expL, expR := kinematics.ExpectedTicks(g, e.anchor, e.mean)
	innov := mat.NewVecDense(2, []float64{z.Left - expL, z.Right - expR})

	Hj := kinematics.ExpectedTicksJacobian(g, e.anchor, e.mean)
	H := mat.NewDense(2, 3, []float64{
		Hj[0][0], Hj[0][1], Hj[0][2],
		Hj[1][0], Hj[1][1], Hj[1][2],
	})

	// S = HΣHᵀ + Q
	var hs, s mat.Dense
	hs.Mul(H, e.cov)
	s.Mul(&hs, H.T())
	s.Add(&s, e.cfg.MeasurementNoise)

	var chol mat.Cholesky
	if ok := chol.Factorize(symmetrize(&s)); !ok {
		return fmt.Errorf("update %d: %w", e.updates+1, ErrSingularInnovation)
	}

	// K = ΣHᵀS⁻¹ = (S⁻¹HΣ)ᵀ since Σ and S are symmetric.
	var sinvHS mat.Dense
	if err := chol.SolveTo(&sinvHS, &hs); !conditionOnly(err) {
		return fmt.Errorf("update %d: %w: %v", e.updates+1, ErrSingularInnovation, err)
	}
	K := sinvHS.T()

	var correction mat.VecDense
	correction.MulVec(K, innov)

	var sinvInnov mat.VecDense
	if err := chol.SolveVecTo(&sinvInnov, innov); !conditionOnly(err) {
		return fmt.Errorf("update %d: %w: %v", e.updates+1, ErrSingularInnovation, err)
	}

	// Joseph form of (I - KH)Σ: (I-KH)Σ(I-KH)ᵀ + KQKᵀ.
	var kh mat.Dense
	kh.Mul(K, H)
	iKH := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		iKH.Set(i, i, 1)
	}
	iKH.Sub(iKH, &kh)

	var a, aSa, kq, kqk mat.Dense
	a.Mul(iKH, e.cov)
	aSa.Mul(&a, iKH.T())
	kq.Mul(K, e.cfg.MeasurementNoise)
	kqk.Mul(&kq, K.T())
	aSa.Add(&aSa, &kqk)

	e.mean = e.mean.Add(kinematics.PoseFromVec(correction.RawVector().Data))
	e.cov = symmetrize(&aSa)
	e.intervalOpen = false
	e.updates++
	e.lastInnovation = [2]float64{innov.AtVec(0), innov.AtVec(1)}
	e.lastNIS = mat.Dot(innov, &sinvInnov)
	return nil
}

// Pose returns the current mean.
func (e *Estimator) Pose() kinematics.Pose {
	return e.mean
}

// Covariance returns a copy of the current covariance.
func (e *Estimator) Covariance() *mat.SymDense {
	c := mat.NewSymDense(3, nil)
	c.CopySym(e.cov)
	return c
}

// Belief returns a copy of the current belief.
func (e *Estimator) Belief() Belief {
	return Belief{Mean: e.mean, Cov: e.Covariance()}
}

// Counts returns the number of Predict and Update calls made so far.
func (e *Estimator) Counts() (predicts, updates int) {
	return e.predicts, e.updates
}

// LastInnovation returns the (left, right) innovation of the most recent
// successful Update and its normalised squared magnitude yᵀS⁻¹y.
func (e *Estimator) LastInnovation() (left, right, nis float64) {
	return e.lastInnovation[0], e.lastInnovation[1], e.lastNIS
}

// conditionOnly reports whether err is nil or only a gonum condition-number
// warning, in which case the solve result is still valid.
func conditionOnly(err error) bool {
	if err == nil {
		return true
	}
	var cond mat.Condition
	return errors.As(err, &cond)
}
