package cmd

import "log/slog"

// Install registers padboard as a system service.
type Install struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Extra flags for the installed run command"`
}

func (i *Install) Run(logger *slog.Logger) error {
	return install(logger, i.Args)
}

// Uninstall removes the system service.
type Uninstall struct{}

func (u *Uninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}
