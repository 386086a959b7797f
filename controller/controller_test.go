package controller_test

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/Alia5/padboard/controller"
	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/eventloop"
	"github.com/Alia5/padboard/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscribes(t *testing.T) {
	_, _, _, loop := newController(t)

	require.Len(t, loop.readable, 1)
	for _, fd := range loop.readable {
		assert.Equal(t, 42, fd)
	}
	require.Len(t, loop.timers, 1)
	for _, period := range loop.timers {
		assert.Equal(t, controller.TickPeriod, period)
	}
}

func TestNewFailures(t *testing.T) {
	t.Run("open fails", func(t *testing.T) {
		loop := newFakeLoop()
		_, err := controller.New(&fakeKeyboard{}, "/dev/input/missing", loop,
			controller.WithOpener(func(string) (controller.Device, error) { return nil, errBoom }))
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, loop.readable)
		assert.Empty(t, loop.timers)
	})

	t.Run("readable subscription fails", func(t *testing.T) {
		dev := &fakeDevice{}
		loop := newFakeLoop()
		loop.readableErr = errBoom
		_, err := controller.New(&fakeKeyboard{}, "/dev/input/event9", loop,
			controller.WithOpener(func(string) (controller.Device, error) { return dev, nil }))
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, dev.closes)
		assert.Empty(t, loop.timers)
	})

	t.Run("timer subscription fails", func(t *testing.T) {
		dev := &fakeDevice{}
		loop := newFakeLoop()
		loop.timerErr = errBoom
		_, err := controller.New(&fakeKeyboard{}, "/dev/input/event9", loop,
			controller.WithOpener(func(string) (controller.Device, error) { return dev, nil }))
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, dev.closes)
		assert.Empty(t, loop.readable)
		assert.Len(t, loop.unsubscribed, 1)
	})
}

func TestCloseReleasesOnce(t *testing.T) {
	c, _, dev, loop := newController(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, 1, dev.closes)
	assert.Len(t, loop.unsubscribed, 2)
	assert.Empty(t, loop.readable)
	assert.Empty(t, loop.timers)
}

func TestDrainBatch(t *testing.T) {
	c, kb, dev, _ := newController(t)
	dev.push(t,
		abs(evdev.ABS_HAT0X, -1),
		abs(evdev.ABS_RX, 9000),
		key(evdev.BTN_A, 5),
	)

	assert.Equal(t, eventloop.Keep, c.OnReadable())
	assert.Equal(t, []string{"left", "send(5)"}, kb.calls)
	assert.InDelta(t, 0.274, c.Axis().X, 0.001)
	assert.Equal(t, 9000/32768.0, c.Axis().X)
	assert.Equal(t, 0.0, c.Axis().Y)
}

func TestDrainKeepsStreamOrder(t *testing.T) {
	c, kb, dev, _ := newController(t)
	dev.push(t, abs(evdev.ABS_HAT0Y, 1), abs(evdev.ABS_HAT0X, 1), abs(evdev.ABS_HAT0X, 1))
	dev.push(t, key(evdev.BTN_START, 1), abs(evdev.ABS_HAT0Y, -1))
	dev.push(t, key(evdev.BTN_START, 0))

	assert.Equal(t, eventloop.Keep, c.OnReadable())
	assert.Equal(t, []string{"down", "right", "right", "show", "up", "hide"}, kb.calls)
	// three data reads, then one would-block
	assert.Equal(t, 4, dev.reads)
}

func TestHideButtonRelease(t *testing.T) {
	for _, shownBefore := range []bool{true, false} {
		c, kb, dev, _ := newController(t)
		if shownBefore {
			dev.push(t, key(evdev.BTN_START, 1))
			c.OnReadable()
			kb.calls = nil
		}
		dev.push(t, key(evdev.BTN_START, 0))
		c.OnReadable()
		assert.Equal(t, []string{"hide"}, kb.calls)
	}
}

func TestStickLastValueWins(t *testing.T) {
	c, _, dev, _ := newController(t)
	dev.push(t, abs(evdev.ABS_RX, 20000), abs(evdev.ABS_RY, -20000), abs(evdev.ABS_RX, 7999))
	c.OnReadable()
	assert.Equal(t, controller.AxisState{X: 0, Y: 20000 / 32768.0}, c.Axis())
}

func TestDrainErrors(t *testing.T) {
	type testCase struct {
		name   string
		status evdev.ReadStatus
		err    error
		report bool
	}
	cases := []testCase{
		{name: "would block", status: evdev.ReadWouldBlock, report: false},
		{name: "eof", status: evdev.ReadEOF, err: io.EOF, report: true},
		{name: "error", status: evdev.ReadError, err: errBoom, report: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

			var reported []error
			c, kb, dev, _ := newController(t,
				controller.WithLogger(logger),
				controller.WithErrorHandler(func(err error) { reported = append(reported, err) }))

			dev.push(t, abs(evdev.ABS_HAT0X, 1))
			dev.fail(tc.status, tc.err)
			dev.push(t, abs(evdev.ABS_HAT0X, -1))

			assert.Equal(t, eventloop.Keep, c.OnReadable())
			// the drain stops at the failed read
			assert.Equal(t, []string{"right"}, kb.calls)

			if tc.report {
				require.Len(t, reported, 1)
				assert.ErrorIs(t, reported[0], tc.err)
				assert.Contains(t, logs.String(), "input device read failed")
			} else {
				assert.Empty(t, reported)
				assert.Empty(t, logs.String())
			}

			// the next notification resumes draining
			assert.Equal(t, eventloop.Keep, c.OnReadable())
			assert.Equal(t, []string{"right", "left"}, kb.calls)
		})
	}
}

func TestRepeatedFailureWarnsOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c, _, dev, _ := newController(t, controller.WithLogger(logger))

	dev.fail(evdev.ReadEOF, io.EOF)
	dev.fail(evdev.ReadEOF, io.EOF)
	c.OnReadable()
	c.OnReadable()

	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("input device read failed")))
}

func TestRawLogging(t *testing.T) {
	var raw bytes.Buffer
	c, _, dev, _ := newController(t, controller.WithRawLogger(log.NewRaw(&raw)))
	dev.push(t, key(evdev.BTN_A, 1))
	c.OnReadable()
	assert.Contains(t, raw.String(), "/dev/input/event9 chunk: ")
}

func TestTick(t *testing.T) {
	c, kb, _, _ := newController(t)
	kb.x, kb.y = 100, 100
	c.Apply(controller.Action{Kind: controller.ActionStickX, Axis: 0.5})
	c.Apply(controller.Action{Kind: controller.ActionStickY, Axis: -0.25})

	assert.Equal(t, eventloop.Keep, c.OnTick())
	assert.Equal(t, 120, kb.x)
	assert.Equal(t, 90, kb.y)

	// integration accumulates across ticks
	assert.Equal(t, eventloop.Keep, c.OnTick())
	assert.Equal(t, 140, kb.x)
	assert.Equal(t, 80, kb.y)
	assert.Equal(t, []string{"move(120,90)", "move(140,80)"}, kb.calls)
}

func TestTickIdle(t *testing.T) {
	t.Run("moves every tick by default", func(t *testing.T) {
		c, kb, _, _ := newController(t)
		kb.x, kb.y = 7, 9
		c.OnTick()
		c.OnTick()
		assert.Equal(t, []string{"move(7,9)", "move(7,9)"}, kb.calls)
	})

	t.Run("skip idle moves", func(t *testing.T) {
		c, kb, _, _ := newController(t, controller.WithSkipIdleMoves(true))
		kb.x, kb.y = 7, 9
		assert.Equal(t, eventloop.Keep, c.OnTick())
		assert.Empty(t, kb.calls)

		c.Apply(controller.Action{Kind: controller.ActionStickX, Axis: 1})
		c.OnTick()
		assert.Equal(t, []string{"move(47,9)"}, kb.calls)
	})
}

func TestAdvance(t *testing.T) {
	type testCase struct {
		name         string
		axis         controller.AxisState
		x, y         int
		wantX, wantY int
	}
	cases := []testCase{
		{name: "centered", axis: controller.AxisState{}, x: 10, y: -10, wantX: 10, wantY: -10},
		{name: "full right down", axis: controller.AxisState{X: 1, Y: -1}, x: 0, y: 0, wantX: 40, wantY: -40},
		{name: "fraction truncates toward zero", axis: controller.AxisState{X: -0.0625}, x: 100, y: 0, wantX: 97, wantY: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.axis.Advance(tc.x, tc.y)
			assert.Equal(t, tc.wantX, x)
			assert.Equal(t, tc.wantY, y)
		})
	}
	assert.True(t, controller.AxisState{}.Idle())
	assert.False(t, controller.AxisState{Y: 0.3}.Idle())
}
