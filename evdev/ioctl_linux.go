//go:build linux

package evdev

import (
	"bytes"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// _IOC encoding from include/uapi/asm-generic/ioctl.h.
const (
	iocWrite = 1
	iocRead  = 2

	nameLen = 256
)

func ioc(dir, typ, nr, size uint32) uint {
	return uint(dir<<30 | size<<16 | typ<<8 | nr)
}

var (
	eviocgname = ioc(iocRead, 'E', 0x06, nameLen)
	eviocgrab  = ioc(iocWrite, 'E', 0x90, 4)
)

func eviocgabs(code uint16) uint {
	return ioc(iocRead, 'E', 0x40+uint32(code), uint32(unsafe.Sizeof(AbsInfo{})))
}

// AbsInfo mirrors struct input_absinfo.
type AbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

func (d *Device) ioctl(req uint, arg unsafe.Pointer) error {
	if d.fd < 0 {
		return ErrClosed
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return fmt.Errorf("%s: %w", d.path, errno)
	}
	return nil
}

// Name returns the name the driver reports for the device.
func (d *Device) Name() (string, error) {
	var buf [nameLen]byte
	if err := d.ioctl(eviocgname, unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf[:], 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return string(buf[:]), nil
}

// Grab takes or releases exclusive access to the device's events.
func (d *Device) Grab(exclusive bool) error {
	if d.fd < 0 {
		return ErrClosed
	}
	v := 0
	if exclusive {
		v = 1
	}
	if err := unix.IoctlSetInt(d.fd, eviocgrab, v); err != nil {
		return fmt.Errorf("%s: grab: %w", d.path, err)
	}
	return nil
}

// AbsInfo returns the range reported for an absolute axis.
func (d *Device) AbsInfo(code uint16) (AbsInfo, error) {
	var info AbsInfo
	err := d.ioctl(eviocgabs(code), unsafe.Pointer(&info))
	return info, err
}
