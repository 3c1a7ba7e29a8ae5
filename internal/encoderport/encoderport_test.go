package encoderport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/odometry/internal/monitoring"
	"github.com/banshee-data/odometry/internal/ticklog"
	"github.com/banshee-data/odometry/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestPortOptionsNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{name: "defaults", in: PortOptions{}, want: PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}},
		{name: "explicit", in: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"}, want: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}},
		{name: "negative baud uses default", in: PortOptions{BaudRate: -1}, want: PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}},
		{name: "bad data bits", in: PortOptions{DataBits: 9}, wantErr: true},
		{name: "bad stop bits", in: PortOptions{StopBits: 3}, wantErr: true},
		{name: "bad parity", in: PortOptions{Parity: "mark"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: DefaultBaudRate, DataBits: 8, Parity: serial.OddParity, StopBits: serial.TwoStopBits}, mode)

	_, err = PortOptions{Parity: "?"}.SerialMode()
	assert.Error(t, err)
}

type fakePort struct {
	io.Reader
	closed bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestOpenPort(t *testing.T) {
	var gotPath string
	var gotMode *serial.Mode
	open := func(path string, mode *serial.Mode) (Port, error) {
		gotPath, gotMode = path, mode
		return &fakePort{Reader: strings.NewReader("")}, nil
	}
	p, err := OpenPort(open, "/dev/ttyUSB0", PortOptions{BaudRate: 57600})
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.Equal(t, "/dev/ttyUSB0", gotPath)
	assert.Equal(t, 57600, gotMode.BaudRate)

	failing := func(string, *serial.Mode) (Port, error) { return nil, errors.New("busy") }
	_, err = OpenPort(failing, "/dev/ttyUSB0", PortOptions{})
	assert.ErrorContains(t, err, "busy")
}

// steppingClock advances by step each time it is asked for elapsed time.
type steppingClock struct {
	*timeutil.MockClock
	step time.Duration
}

func (c *steppingClock) Since(t time.Time) time.Duration {
	d := c.MockClock.Since(t)
	c.Advance(c.step)
	return d
}

func TestCaptureStampsPairsAndValidatesTriples(t *testing.T) {
	clock := &steppingClock{MockClock: timeutil.NewMockClock(time.Unix(0, 0)), step: 20 * time.Millisecond}
	c := &Capturer{Clock: clock}

	device := strings.NewReader("0 0\n\n5 6\ngarbage\n10 12\n")
	var out bytes.Buffer
	stats, err := c.Capture(context.Background(), device, &out)
	require.NoError(t, err)
	assert.Equal(t, CaptureStats{Lines: 4, Written: 3, Skipped: 1}, stats)
	assert.Equal(t, "0 0 0\n20 5 6\n40 10 12\n", out.String())

	samples, err := ticklog.Collect(ticklog.NewReader(&out, "capture"))
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestCaptureDropsRegressions(t *testing.T) {
	c := &Capturer{Clock: timeutil.NewMockClock(time.Unix(0, 0))}
	var out bytes.Buffer
	stats, err := c.Capture(context.Background(), strings.NewReader("100 1 1\n90 2 2\n110 3 3\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, "100 1 1\n110 3 3\n", out.String())
}

func TestCaptureStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		_, err := NewCapturer().Capture(ctx, pr, &out)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Capture did not return after cancel")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestCaptureReportsReadErrors(t *testing.T) {
	_, err := NewCapturer().Capture(context.Background(), errReader{}, io.Discard)
	assert.ErrorContains(t, err, "device unplugged")
}
