// Package sink delivers key events produced by the on-screen keyboard to an
// output: the log, a local uinput device or a VIIPER virtual keyboard.
package sink

import (
	"errors"
	"log/slog"

	"github.com/Alia5/padboard/evdev"
)

// Sink receives key events. Sync marks the end of a group of events.
type Sink interface {
	Key(code uint16, value int32) error
	Sync() error
	Close() error
}

type logSink struct {
	logger *slog.Logger
}

// NewLog returns a sink that only logs what it receives.
func NewLog(logger *slog.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Key(code uint16, value int32) error {
	s.logger.Info("key", "code", evdev.CodeName(evdev.EV_KEY, code), "value", value)
	return nil
}

func (s *logSink) Sync() error {
	s.logger.Debug("sync")
	return nil
}

func (s *logSink) Close() error { return nil }

type multi []Sink

// Multi fans events out to every sink, in order. Errors are joined.
func Multi(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multi(sinks)
}

func (m multi) Key(code uint16, value int32) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Key(code, value))
	}
	return errors.Join(errs...)
}

func (m multi) Sync() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Sync())
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
