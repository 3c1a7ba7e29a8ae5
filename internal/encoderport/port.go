package encoderport

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port is the part of a serial port the capture loop needs.
type Port interface {
	io.Reader
	io.Closer
}

// Opener opens a port at path. Tests substitute a fake.
type Opener func(path string, mode *serial.Mode) (Port, error)

// SerialOpener opens a real serial device.
func SerialOpener(path string, mode *serial.Mode) (Port, error) {
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenPort normalises opts and opens path with open.
func OpenPort(open Opener, path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	p, err := open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return p, nil
}
