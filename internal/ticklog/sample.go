package ticklog

import (
	"errors"
	"io"
)

// Sample is one cumulative tick reading taken at Timestamp.
type Sample struct {
	Timestamp int64
	Left      int64
	Right     int64
}

// Delta returns the per-wheel tick change from prev to s.
func (s Sample) Delta(prev Sample) (left, right int64) {
	return s.Left - prev.Left, s.Right - prev.Right
}

// Source is a lazy, non-restartable sequence of samples. Next returns io.EOF
// once the sequence is exhausted and keeps returning it afterwards.
type Source interface {
	Next() (Sample, error)
}

// SliceSource serves samples from memory.
type SliceSource struct {
	samples []Sample
	pos     int
}

// FromSlice returns a Source over samples.
func FromSlice(samples []Sample) *SliceSource {
	return &SliceSource{samples: samples}
}

// Next implements Source.
func (s *SliceSource) Next() (Sample, error) {
	if s.pos >= len(s.samples) {
		return Sample{}, io.EOF
	}
	smp := s.samples[s.pos]
	s.pos++
	return smp, nil
}

// Collect drains src into a slice.
func Collect(src Source) ([]Sample, error) {
	var out []Sample
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}
