package ekf

import "errors"

var (
	// ErrSingularInnovation is returned by Update when S = HΣHᵀ + Q cannot be
	// factorised. The belief is left untouched.
	ErrSingularInnovation = errors.New("innovation covariance is not positive definite")

	// ErrInvalidNoise reports negative or non-finite noise parameters.
	ErrInvalidNoise = errors.New("invalid noise parameters")

	// ErrInvalidCovariance reports a belief covariance that is not symmetric
	// positive semidefinite.
	ErrInvalidCovariance = errors.New("invalid covariance")

	// ErrDimension reports a covariance of the wrong size.
	ErrDimension = errors.New("matrix dimension mismatch")
)
