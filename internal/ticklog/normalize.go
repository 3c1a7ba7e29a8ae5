package ticklog

import (
	"errors"
	"io"
)

// Normalized rebases timestamps so that the first sample is at time zero.
// Tick counts are left untouched.
type Normalized struct {
	src    Source
	origin int64
	seen   bool
}

// Normalize wraps src.
func Normalize(src Source) *Normalized {
	return &Normalized{src: src}
}

// Next implements Source.
func (n *Normalized) Next() (Sample, error) {
	s, err := n.src.Next()
	if err != nil {
		return s, err
	}
	if !n.seen {
		n.origin = s.Timestamp
		n.seen = true
	}
	s.Timestamp -= n.origin
	return s, nil
}

// Origin returns the raw timestamp of the first sample, once one was read.
func (n *Normalized) Origin() (int64, bool) {
	return n.origin, n.seen
}

// IdleTrimmed drops the stationary prefix of a stream.
type IdleTrimmed struct {
	src     Source
	pending []Sample
	primed  bool
	skipped int
}

// TrimLeadingIdle skips samples until the tick counts first change. The
// last stationary sample is kept as the first element so that the first
// moving sample still has a reference to diff against.
func TrimLeadingIdle(src Source) *IdleTrimmed {
	return &IdleTrimmed{src: src}
}

// Skipped returns how many stationary samples were dropped.
func (t *IdleTrimmed) Skipped() int {
	return t.skipped
}

func (t *IdleTrimmed) prime() error {
	t.primed = true
	prev, err := t.src.Next()
	if err != nil {
		return err
	}
	for {
		next, err := t.src.Next()
		if errors.Is(err, io.EOF) {
			t.pending = []Sample{prev}
			return nil
		}
		if err != nil {
			return err
		}
		if next.Left != prev.Left || next.Right != prev.Right {
			t.pending = []Sample{prev, next}
			return nil
		}
		prev = next
		t.skipped++
	}
}

// Next implements Source.
func (t *IdleTrimmed) Next() (Sample, error) {
	if !t.primed {
		if err := t.prime(); err != nil {
			return Sample{}, err
		}
	}
	if len(t.pending) > 0 {
		s := t.pending[0]
		t.pending = t.pending[1:]
		return s, nil
	}
	return t.src.Next()
}
