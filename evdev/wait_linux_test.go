//go:build linux

package evdev_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alia5/padboard/evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWaitForExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event3")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.NoError(t, evdev.WaitFor(t.Context(), path))
}

func TestWaitForCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event3")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0o600)
	}()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	assert.NoError(t, evdev.WaitFor(ctx, path))
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	err := evdev.WaitFor(ctx, filepath.Join(t.TempDir(), "never"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIoctlOnNonDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event0")
	require.NoError(t, unix.Mkfifo(path, 0o600))
	dev, err := evdev.Open(path)
	require.NoError(t, err)

	_, err = dev.Name()
	assert.ErrorIs(t, err, unix.ENOTTY)
	assert.Error(t, dev.Grab(true))

	require.NoError(t, dev.Close())
	_, err = dev.AbsInfo(evdev.ABS_X)
	assert.ErrorIs(t, err, evdev.ErrClosed)
}
