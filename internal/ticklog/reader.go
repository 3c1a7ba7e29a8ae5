package ticklog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedLine is wrapped by every ParseError.
var ErrMalformedLine = errors.New("malformed tick line")

// ParseError describes a line that is not a valid integer triple.
type ParseError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Source, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedLine, e.Err}
}

// ParseLine parses "timestamp left right".
func ParseLine(line string) (Sample, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Sample{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	var vals [3]int64
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return Sample{Timestamp: vals[0], Left: vals[1], Right: vals[2]}, nil
}

// Reader is a Source over a line-oriented tick log.
type Reader struct {
	name string
	sc   *bufio.Scanner
	line int
	done bool
}

// NewReader returns a Reader over r. name is used in error messages.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{name: name, sc: bufio.NewScanner(r)}
}

// Next implements Source. A blank line ends the stream.
func (r *Reader) Next() (Sample, error) {
	if r.done {
		return Sample{}, io.EOF
	}
	if !r.sc.Scan() {
		r.done = true
		if err := r.sc.Err(); err != nil {
			return Sample{}, fmt.Errorf("read %s: %w", r.name, err)
		}
		return Sample{}, io.EOF
	}
	r.line++
	text := r.sc.Text()
	if strings.TrimSpace(text) == "" {
		r.done = true
		return Sample{}, io.EOF
	}
	s, err := ParseLine(text)
	if err != nil {
		r.done = true
		return Sample{}, &ParseError{Source: r.name, Line: r.line, Text: text, Err: err}
	}
	return s, nil
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}
