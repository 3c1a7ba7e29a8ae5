// Package kinematics holds the differential-drive geometry and the
// constant-curvature (arc) motion model shared by the EKF and the
// dead-reckoning baseline.
//
// Every function here is pure. The straight-line case is selected by an
// exact dAngle == 0 comparison, and the Jacobians follow the same switch so
// that the linearisation always matches the branch used to move the mean.
package kinematics
