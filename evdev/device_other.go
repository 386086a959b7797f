//go:build !linux

package evdev

import (
	"context"
	"errors"
	"fmt"
)

type Device struct{}

func Open(path string) (*Device, error) {
	return nil, fmt.Errorf("%s: %w", path, errors.ErrUnsupported)
}

func (d *Device) Path() string { return "" }

func (d *Device) Fd() int { return -1 }

func (d *Device) Read(p []byte) ReadResult {
	return ReadResult{Status: ReadError, Err: errors.ErrUnsupported}
}

func (d *Device) Close() error { return nil }

type AbsInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

func (d *Device) Name() (string, error) { return "", errors.ErrUnsupported }

func (d *Device) Grab(exclusive bool) error { return errors.ErrUnsupported }

func (d *Device) AbsInfo(code uint16) (AbsInfo, error) { return AbsInfo{}, errors.ErrUnsupported }

func WaitFor(ctx context.Context, path string) error { return errors.ErrUnsupported }
