//go:build linux

package sink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/internal/log"

	"golang.org/x/sys/unix"
)

var uinputPaths = []string{"/dev/uinput", "/dev/input/uinput"}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputUserDev mirrors struct uinput_user_dev.
type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FFEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// UInput is a virtual keyboard created through /dev/uinput.
type UInput struct {
	file *os.File
	raw  log.RawLogger
}

type UInputOption func(*UInput)

// WithRawLogger dumps every record written to the device.
func WithRawLogger(raw log.RawLogger) UInputOption {
	return func(u *UInput) { u.raw = raw }
}

// OpenUInput creates a virtual keyboard named name that can emit codes.
func OpenUInput(name string, codes []uint16, opts ...UInputOption) (*UInput, error) {
	if len(codes) == 0 {
		return nil, errors.New("uinput: no key codes")
	}
	var lastErr error
	for _, p := range uinputPaths {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_NONBLOCK, 0)
		if err != nil {
			lastErr = err
			continue
		}
		u := newUInput(f, opts...)
		if err := u.configure(name, codes); err != nil {
			_ = f.Close()
			return nil, err
		}
		return u, nil
	}
	return nil, fmt.Errorf("open uinput: %w", lastErr)
}

func newUInput(f *os.File, opts ...UInputOption) *UInput {
	u := &UInput{file: f}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *UInput) configure(name string, codes []uint16) error {
	fd := int(u.file.Fd())
	if err := unix.IoctlSetInt(fd, unix.UI_SET_EVBIT, evdev.EV_KEY); err != nil {
		return fmt.Errorf("UI_SET_EVBIT EV_KEY: %w", err)
	}
	for _, code := range codes {
		if err := unix.IoctlSetInt(fd, unix.UI_SET_KEYBIT, int(code)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %s: %w", evdev.CodeName(evdev.EV_KEY, code), err)
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:len(dev.Name)-1], name)
	dev.ID = inputID{Bustype: unix.BUS_VIRTUAL, Vendor: 0x1, Product: 0x1, Version: 1}
	if err := binary.Write(u.file, binary.NativeEndian, &dev); err != nil {
		return fmt.Errorf("write uinput_user_dev: %w", err)
	}
	if err := unix.IoctlSetInt(fd, unix.UI_DEV_CREATE, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

func (u *UInput) Key(code uint16, value int32) error {
	return u.emit(evdev.EV_KEY, code, value)
}

func (u *UInput) Sync() error {
	return u.emit(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

func (u *UInput) emit(typ, code uint16, value int32) error {
	if u.file == nil {
		return evdev.ErrClosed
	}
	b, err := evdev.Event{Type: typ, Code: code, Value: value}.MarshalBinary()
	if err != nil {
		return err
	}
	if u.raw != nil {
		u.raw.Log("uinput", b)
	}
	_, err = u.file.Write(b)
	return err
}

// Close destroys the virtual device.
func (u *UInput) Close() error {
	if u.file == nil {
		return nil
	}
	_ = unix.IoctlSetInt(int(u.file.Fd()), unix.UI_DEV_DESTROY, 0)
	err := u.file.Close()
	u.file = nil
	return err
}
