package evdev

import "errors"

// ErrClosed is returned by reads on a closed device.
var ErrClosed = errors.New("device closed")

// ReadStatus tags the outcome of a single non-blocking read.
type ReadStatus int

const (
	ReadOK ReadStatus = iota
	ReadWouldBlock
	ReadEOF
	ReadError
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadWouldBlock:
		return "would-block"
	case ReadEOF:
		return "eof"
	case ReadError:
		return "error"
	default:
		return "unknown"
	}
}

// ReadResult is what a read returned: N bytes on ReadOK, the cause on
// ReadEOF and ReadError, nothing on ReadWouldBlock.
type ReadResult struct {
	N      int
	Status ReadStatus
	Err    error
}
