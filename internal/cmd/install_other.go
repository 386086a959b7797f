//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
)

func install(logger *slog.Logger, args []string) error { return errors.ErrUnsupported }

func uninstall(logger *slog.Logger) error { return errors.ErrUnsupported }
