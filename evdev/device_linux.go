//go:build linux

package evdev

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Device is a read-only, non-blocking handle on an input device node.
type Device struct {
	path string
	fd   int
}

// Open opens path read-only and non-blocking.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Device{path: path, fd: fd}, nil
}

// Path returns the device node the handle was opened on.
func (d *Device) Path() string { return d.path }

// Fd returns the underlying descriptor for readiness polling.
func (d *Device) Fd() int { return d.fd }

// Read performs one non-blocking read into p. It never blocks.
func (d *Device) Read(p []byte) ReadResult {
	if d.fd < 0 {
		return ReadResult{Status: ReadError, Err: ErrClosed}
	}
	for {
		n, err := unix.Read(d.fd, p)
		switch {
		case err == nil && n > 0:
			return ReadResult{N: n, Status: ReadOK}
		case err == nil:
			return ReadResult{Status: ReadEOF, Err: io.EOF}
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return ReadResult{Status: ReadWouldBlock}
		case errors.Is(err, unix.ENODEV):
			return ReadResult{Status: ReadEOF, Err: fmt.Errorf("%s: %w", d.path, err)}
		default:
			return ReadResult{Status: ReadError, Err: fmt.Errorf("%s: %w", d.path, err)}
		}
	}
}

// Close releases the descriptor. Closing twice is a no-op.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
