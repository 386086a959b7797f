//go:build linux

package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/internal/log"
	vtest "github.com/Alia5/padboard/internal/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// gamepad creates a FIFO standing in for an event device and returns a
// writer that does not wait for a reader.
func gamepad(t *testing.T) (string, *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event0")
	require.NoError(t, unix.Mkfifo(path, 0o600))
	w, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return path, w
}

func writeEvents(t *testing.T, w *os.File, evs ...evdev.Event) {
	t.Helper()
	var data []byte
	for _, ev := range evs {
		b, err := ev.MarshalBinary()
		require.NoError(t, err)
		data = append(data, b...)
	}
	_, err := w.Write(data)
	require.NoError(t, err)
}

func key(code uint16, v int32) evdev.Event {
	return evdev.Event{Type: evdev.EV_KEY, Code: code, Value: v}
}

func abs(code uint16, v int32) evdev.Event {
	return evdev.Event{Type: evdev.EV_ABS, Code: code, Value: v}
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRunLogSink(t *testing.T) {
	path, w := gamepad(t)
	writeEvents(t, w,
		key(evdev.BTN_START, 1),
		abs(evdev.ABS_HAT0X, 1),
		key(evdev.BTN_A, 1),
		key(evdev.BTN_A, 0),
	)

	var logs, screen bytes.Buffer
	r := &Run{
		Input:    Input{Device: path},
		Keyboard: KeyboardConfig{Render: true, OriginX: 10, OriginY: 20},
		Sink:     "log",
		out:      &screen,
	}
	ctx, cancel := context.WithTimeout(t.Context(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, r.run(ctx, testLogger(&logs), log.NewRaw(nil)))
	assert.Contains(t, logs.String(), "code=KEY_2 value=1")
	assert.Contains(t, logs.String(), "code=KEY_2 value=0")
	assert.Contains(t, screen.String(), "qwerty @ 10,20")
	assert.Contains(t, screen.String(), "[2]")
}

func TestRunDeviceGone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event0")
	require.NoError(t, unix.Mkfifo(path, 0o600))

	// The kernel reports hangup only for writers that connect after the reader.
	go func() {
		time.Sleep(100 * time.Millisecond)
		w, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		b, _ := key(evdev.BTN_A, 1).MarshalBinary()
		_, _ = w.Write(b)
		_ = w.Close()
	}()

	var logs bytes.Buffer
	r := &Run{Input: Input{Device: path}, Sink: "log"}
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	err := r.run(ctx, testLogger(&logs), log.NewRaw(nil))
	assert.ErrorIs(t, err, ErrDeviceGone)
	assert.Contains(t, logs.String(), "code=KEY_1 value=1")
}

func TestRunMissingDevice(t *testing.T) {
	r := &Run{Input: Input{Device: filepath.Join(t.TempDir(), "none")}, Sink: "log"}
	err := r.run(t.Context(), slog.Default(), log.NewRaw(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunWaitCancelled(t *testing.T) {
	r := &Run{Input: Input{Device: filepath.Join(t.TempDir(), "later"), Wait: true}, Sink: "log"}
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, r.run(ctx, slog.Default(), log.NewRaw(nil)))
}

func TestRunBadLayout(t *testing.T) {
	layout := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(layout, []byte("rows: []\n"), 0o644))
	r := &Run{Input: Input{Device: "/dev/null"}, Keyboard: KeyboardConfig{Layout: layout}, Sink: "log"}
	err := r.run(t.Context(), slog.Default(), log.NewRaw(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load layout")
}

func TestRunViiperSink(t *testing.T) {
	srv := vtest.NewViiperServer(t, "pw")
	keyFile := filepath.Join(t.TempDir(), "viiper.key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("pw\n"), 0o600))

	path, w := gamepad(t)
	writeEvents(t, w, key(evdev.BTN_A, 1), key(evdev.BTN_A, 0))

	var raw bytes.Buffer
	r := &Run{
		Input: Input{Device: path},
		Sink:  "viiper",
		Viiper: ViiperConfig{
			Addr:    srv.Addr,
			KeyFile: keyFile,
			Timeout: 5 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	var logs bytes.Buffer
	require.NoError(t, r.run(ctx, testLogger(&logs), log.NewRaw(&raw)))

	assert.Equal(t, []byte{0, 1, 0x1e, 0, 0, 0, 0}, srv.StreamBytes())
	assert.Empty(t, srv.Devices(1))
	assert.Contains(t, logs.String(), "attached viiper keyboard")
	assert.Contains(t, raw.String(), "viiper chunk: 3 bytes")
}

func TestRunViiperUnreachable(t *testing.T) {
	path, _ := gamepad(t)
	r := &Run{
		Input:  Input{Device: path},
		Sink:   "viiper",
		Viiper: ViiperConfig{Addr: "127.0.0.1:1", Timeout: time.Second},
	}
	err := r.run(t.Context(), slog.Default(), log.NewRaw(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open viiper sink")
}

func TestValidateBounds(t *testing.T) {
	assert.NoError(t, (&Run{}).Validate())
	assert.NoError(t, (&Run{Keyboard: KeyboardConfig{Bounds: []int{0, 0, 10, 10}}}).Validate())
	assert.Error(t, (&Run{Keyboard: KeyboardConfig{Bounds: []int{1, 2}}}).Validate())
}
