package encoderport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/odometry/internal/monitoring"
	"github.com/banshee-data/odometry/internal/ticklog"
	"github.com/banshee-data/odometry/internal/timeutil"
)

// CaptureStats counts what a capture saw.
type CaptureStats struct {
	Lines   int // non-blank lines read from the device
	Written int // samples written to the log
	Skipped int // malformed or out-of-order lines dropped
}

// Capturer copies encoder lines from a device to a tick log.
//
// A device line is either "left right", which is stamped with the
// milliseconds elapsed since the first line, or a full
// "timestamp left right" triple. Lines that fail to parse or whose
// timestamp goes backwards are dropped so the log stays readable by
// ticklog.Reader.
type Capturer struct {
	Clock timeutil.Clock

	start    time.Time
	started  bool
	last     int64
	haveLast bool
}

// NewCapturer returns a Capturer using the wall clock.
func NewCapturer() *Capturer {
	return &Capturer{Clock: timeutil.RealClock{}}
}

// Capture reads r until EOF or ctx is cancelled, writing accepted samples
// to w. It returns ctx.Err() on cancellation and nil on EOF.
func (c *Capturer) Capture(ctx context.Context, r io.Reader, w io.Writer) (CaptureStats, error) {
	var stats CaptureStats
	scan := bufio.NewScanner(r)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs in its own goroutine so cancellation is not
	// held up by a silent device.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case err := <-scanErrChan:
			return stats, fmt.Errorf("read encoder port: %w", err)

		case line, ok := <-lineChan:
			if !ok {
				// A scan error is queued before lineChan closes.
				select {
				case err := <-scanErrChan:
					return stats, fmt.Errorf("read encoder port: %w", err)
				default:
				}
				return stats, nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			stats.Lines++
			s, err := c.sample(line)
			if err != nil {
				stats.Skipped++
				monitoring.Logf("encoderport: dropping line %d: %v", stats.Lines, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "%d %d %d\n", s.Timestamp, s.Left, s.Right); err != nil {
				return stats, fmt.Errorf("write tick log: %w", err)
			}
			stats.Written++
		}
	}
}

func (c *Capturer) sample(line string) (ticklog.Sample, error) {
	if !c.started {
		c.start = c.Clock.Now()
		c.started = true
	}
	text := line
	if len(strings.Fields(line)) == 2 {
		text = fmt.Sprintf("%d %s", c.Clock.Since(c.start).Milliseconds(), line)
	}
	s, err := ticklog.ParseLine(text)
	if err != nil {
		return ticklog.Sample{}, err
	}
	if c.haveLast && s.Timestamp < c.last {
		return ticklog.Sample{}, fmt.Errorf("timestamp %d precedes %d", s.Timestamp, c.last)
	}
	c.last, c.haveLast = s.Timestamp, true
	return s, nil
}
