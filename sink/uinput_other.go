//go:build !linux

package sink

import (
	"errors"

	"github.com/Alia5/padboard/internal/log"
)

type UInput struct{}

type UInputOption func(*UInput)

func WithRawLogger(raw log.RawLogger) UInputOption {
	return func(*UInput) {}
}

func OpenUInput(name string, codes []uint16, opts ...UInputOption) (*UInput, error) {
	return nil, errors.ErrUnsupported
}

func (u *UInput) Key(code uint16, value int32) error { return errors.ErrUnsupported }

func (u *UInput) Sync() error { return errors.ErrUnsupported }

func (u *UInput) Close() error { return nil }
