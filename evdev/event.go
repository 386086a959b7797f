// Package evdev decodes the Linux input-event stream of /dev/input/event*
// devices and reads it without blocking.
package evdev

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Event mirrors the kernel's struct input_event:
//
//	struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
//
// Records are written by the driver in host byte order.
type Event struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// EventSize is the size in bytes of one record on this host (24 on 64-bit).
var EventSize = binary.Size(Event{})

// Timestamp returns the kernel timestamp of the event.
func (e Event) Timestamp() time.Time {
	return time.Unix(int64(e.Time.Sec), int64(e.Time.Usec)*int64(time.Microsecond))
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %d", TypeName(e.Type), CodeName(e.Type, e.Code), e.Value)
}

// MarshalBinary encodes the event in the device wire layout.
func (e Event) MarshalBinary() ([]byte, error) {
	return binary.Append(make([]byte, 0, EventSize), binary.NativeEndian, &e)
}

// UnmarshalBinary decodes exactly one record.
func (e *Event) UnmarshalBinary(data []byte) error {
	if len(data) < EventSize {
		return fmt.Errorf("short input_event: %d of %d bytes", len(data), EventSize)
	}
	_, err := binary.Decode(data[:EventSize], binary.NativeEndian, e)
	return err
}

// Decode appends every complete record in p to dst, in stream order.
// A trailing partial record is ignored.
func Decode(p []byte, dst []Event) []Event {
	for len(p) >= EventSize {
		var ev Event
		if err := ev.UnmarshalBinary(p); err != nil {
			break
		}
		dst = append(dst, ev)
		p = p[EventSize:]
	}
	return dst
}
