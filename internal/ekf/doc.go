// Package ekf implements the extended Kalman filter that tracks the pose of
// a differential-drive robot.
//
// The Estimator owns the belief (mean pose and 3x3 covariance) and is its
// only writer. Predict propagates the belief through the arc motion model
// driven by a commanded (v, ω); Update corrects it against the left/right
// encoder tick deltas observed over the same interval.
//
// Measurement model: the ticks an observation is compared against are the
// exact inverse of the arc model applied to the pose change accumulated by
// the predicts since the interval anchor. The anchor is the mean at the
// first Predict that follows an Update, so the pose change compared against
// an observation covers exactly the time that observation spans. Update never
// reads the control input, which keeps command evidence (predict) and
// encoder evidence (update) disjoint. The anchor is treated as a known
// constant when linearising.
package ekf
