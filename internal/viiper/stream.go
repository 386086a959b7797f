package viiper

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

var ErrStreamClosed = errors.New("stream closed")

// Stream is the input channel of one device.
type Stream struct {
	conn   net.Conn
	BusID  uint32
	DevID  string
	closed atomic.Bool

	writeTimeout time.Duration
}

// OpenStream connects to an existing device's stream.
func (c *Client) OpenStream(ctx context.Context, busID uint32, devID string) (*Stream, error) {
	if c.transport.mock != nil {
		return nil, errors.New("stream connections not supported with mock transport")
	}
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(conn, "bus/%d/%s\x00", busID, devID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}
	return &Stream{conn: conn, BusID: busID, DevID: devID, writeTimeout: c.transport.cfg.WriteTimeout}, nil
}

func (s *Stream) Write(data []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.Write(data)
}

// WriteBinary sends one marshaled record.
func (s *Stream) WriteBinary(v encoding.BinaryMarshaler) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.Write(data)
	return err
}

func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// Read receives device feedback, such as LED state for keyboards.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	return s.conn.Read(p)
}

func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}
