// Package control turns the action tick stream into commanded velocities
// and per-wheel increments.
//
// Two log layouts are supported. In cumulative mode the action values are
// cumulative wheel ticks and the command for an interval is the tick delta
// across it. In rate mode each action line carries per-wheel command values
// that hold until the next line; they are scaled to ticks per second by a
// fixed per-wheel rate constant.
package control

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/odometry/internal/ekf"
	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/ticklog"
)

// Mode selects how action samples are interpreted.
type Mode string

const (
	ModeCumulative Mode = "cumulative"
	ModeRate       Mode = "rate"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid control parameters")

// Params configures a Deriver.
type Params struct {
	Geometry  kinematics.Geometry
	Mode      Mode
	LeftRate  float64 // rate mode: ticks per second per unit of left command
	RightRate float64 // rate mode: ticks per second per unit of right command
	TimeScale float64 // seconds per timestamp unit
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if err := p.Geometry.Validate(); err != nil {
		return err
	}
	switch p.Mode {
	case ModeCumulative, ModeRate:
	default:
		return fmt.Errorf("%w: unknown action mode %q", ErrInvalidParams, p.Mode)
	}
	if !(p.TimeScale > 0) || math.IsInf(p.TimeScale, 0) {
		return fmt.Errorf("%w: timestamp scale must be positive, got %v", ErrInvalidParams, p.TimeScale)
	}
	if p.Mode == ModeRate {
		for name, v := range map[string]float64{"left_rate_ticks": p.LeftRate, "right_rate_ticks": p.RightRate} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s must be finite", ErrInvalidParams, name)
			}
		}
	}
	return nil
}

// Ring holds the previous and current samples of a stream. The first push
// fills both slots so the first interval is empty.
type Ring struct {
	Prev ticklog.Sample
	Cur  ticklog.Sample
	n    int
}

// Push shifts s into the ring.
func (r *Ring) Push(s ticklog.Sample) {
	if r.n == 0 {
		r.Prev, r.Cur = s, s
	} else {
		r.Prev, r.Cur = r.Cur, s
	}
	r.n++
}

// Len returns the number of samples pushed.
func (r *Ring) Len() int {
	return r.n
}

// Interval returns the time spanned by the ring in seconds.
func (r *Ring) Interval(timeScale float64) float64 {
	return float64(r.Cur.Timestamp-r.Prev.Timestamp) * timeScale
}

// Deriver derives controls from consecutive action samples.
type Deriver struct {
	p    Params
	ring Ring
}

// NewDeriver validates p and returns a Deriver.
func NewDeriver(p Params) (*Deriver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{p: p}, nil
}

// Push records the next action sample.
func (d *Deriver) Push(s ticklog.Sample) {
	d.ring.Push(s)
}

// Geometry returns the robot geometry used for conversions.
func (d *Deriver) Geometry() kinematics.Geometry {
	return d.p.Geometry
}

// TimeScale returns the seconds per timestamp unit.
func (d *Deriver) TimeScale() float64 {
	return d.p.TimeScale
}

// Ring exposes the current two-slot state.
func (d *Deriver) Ring() Ring {
	return d.ring
}

// Control returns the command in force over the interval ending at the
// most recently pushed sample.
func (d *Deriver) Control() ekf.Control {
	left, right, ok := d.rates()
	if !ok {
		return ekf.Control{}
	}
	dLen, dAngle := d.p.Geometry.WheelArc(left, right)
	return ekf.Control{V: dLen, W: dAngle}
}

// Increments returns per-wheel tick increments over the interval ending at
// the most recently pushed sample.
func (d *Deriver) Increments() (left, right float64) {
	switch d.p.Mode {
	case ModeRate:
		dt := d.ring.Interval(d.p.TimeScale)
		return float64(d.ring.Prev.Left) * d.p.LeftRate * dt, float64(d.ring.Prev.Right) * d.p.RightRate * dt
	default:
		l, r := d.ring.Cur.Delta(d.ring.Prev)
		return float64(l), float64(r)
	}
}

// rates returns per-wheel tick rates (ticks per second).
func (d *Deriver) rates() (left, right float64, ok bool) {
	if d.ring.Len() == 0 {
		return 0, 0, false
	}
	switch d.p.Mode {
	case ModeRate:
		return float64(d.ring.Prev.Left) * d.p.LeftRate, float64(d.ring.Prev.Right) * d.p.RightRate, true
	default:
		dt := d.ring.Interval(d.p.TimeScale)
		if dt <= 0 {
			return 0, 0, false
		}
		l, r := d.ring.Cur.Delta(d.ring.Prev)
		return float64(l) / dt, float64(r) / dt, true
	}
}
