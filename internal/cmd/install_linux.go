//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	serviceName = "padboard.service"
	servicePath = "/etc/systemd/system/padboard.service"
)

func install(logger *slog.Logger, args []string) error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(exePath); err == nil {
		exePath = resolved
	}

	unit := systemdUnitContent(exePath, args)
	if err := os.WriteFile(servicePath, []byte(unit), 0o644); err != nil {
		return err
	}

	steps := [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"restart", serviceName},
	}
	for _, a := range steps {
		if err := runSystemctl(a...); err != nil {
			return err
		}
	}

	logger.Info("padboard systemd service installed", "path", servicePath, "exe", exePath)
	return nil
}

func uninstall(logger *slog.Logger) error {
	var errs []error

	if err := runSystemctl("stop", serviceName); err != nil {
		errs = append(errs, err)
	}
	if err := runSystemctl("disable", serviceName); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(servicePath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := runSystemctl("daemon-reload"); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("padboard systemd service removed", "path", servicePath)
	return nil
}

// systemdUnitContent runs `padboard run --input.wait` with args appended.
// Restart=on-failure brings it back after the gamepad is unplugged.
func systemdUnitContent(exePath string, args []string) string {
	cmdline := []string{fmt.Sprintf("%q", exePath), "run", "--input.wait"}
	for _, a := range args {
		cmdline = append(cmdline, fmt.Sprintf("%q", a))
	}
	return fmt.Sprintf(`[Unit]
Description=padboard gamepad keyboard
After=systemd-udevd.service

[Service]
Type=simple
ExecStart=%s
WorkingDirectory=%s
Restart=on-failure
RestartSec=1

[Install]
WantedBy=multi-user.target
`, strings.Join(cmdline, " "), filepath.Dir(exePath))
}

func runSystemctl(args ...string) error {
	out, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
