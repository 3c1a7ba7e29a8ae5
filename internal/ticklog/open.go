package ticklog

import (
	"fmt"
	"io"

	"github.com/banshee-data/odometry/internal/fsutil"
)

// File is a Reader bound to an open log file.
type File struct {
	*Reader
	closer io.Closer
}

// Open opens path on fsys for reading.
func Open(fsys fsutil.FileSystem, path string) (*File, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tick log: %w", err)
	}
	return &File{Reader: NewReader(f, path), closer: f}, nil
}

// Close releases the underlying file.
func (f *File) Close() error {
	return f.closer.Close()
}
