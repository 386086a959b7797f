package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/padboard/controller"
	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/eventloop"
	"github.com/Alia5/padboard/internal/log"
)

var monitoredAxes = []uint16{evdev.ABS_X, evdev.ABS_Y, evdev.ABS_RX, evdev.ABS_RY, evdev.ABS_HAT0X, evdev.ABS_HAT0Y}

// Monitor prints the raw event stream of a device.
type Monitor struct {
	Input     Input `embed:"" prefix:"input."`
	Translate bool  `help:"Also print the keyboard action of each event"`
	SkipSync  bool  `help:"Hide EV_SYN records"`

	out io.Writer
}

// Run is called by Kong when the monitor command is executed.
func (m *Monitor) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if m.out == nil {
		m.out = os.Stdout
	}
	return m.run(ctx, logger, rawLogger)
}

func (m *Monitor) run(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if m.Input.Wait {
		if err := evdev.WaitFor(ctx, m.Input.Device); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	dev, err := evdev.Open(m.Input.Device)
	if err != nil {
		return err
	}
	defer dev.Close()
	if m.Input.Grab {
		if err := dev.Grab(true); err != nil {
			return err
		}
	}
	m.describe(dev)

	loop, err := eventloop.New(logger)
	if err != nil {
		return err
	}
	defer loop.Close()

	var streamErr error
	buf := make([]byte, 64*evdev.EventSize)
	var events []evdev.Event
	id, err := loop.SubscribeReadable(dev.Fd(), eventloop.ReadableFunc(func() eventloop.Disposition {
		for {
			res := dev.Read(buf)
			switch res.Status {
			case evdev.ReadWouldBlock:
				return eventloop.Keep
			case evdev.ReadOK:
				rawLogger.Log(dev.Path(), buf[:res.N])
				events = evdev.Decode(buf[:res.N], events[:0])
				for _, ev := range events {
					m.print(ev)
				}
			default:
				streamErr = res.Err
				loop.Stop()
				return eventloop.Stop
			}
		}
	}))
	if err != nil {
		return err
	}
	defer loop.Unsubscribe(id)

	if err := loop.Run(ctx); err != nil {
		return err
	}
	if streamErr != nil {
		return fmt.Errorf("%w: %w", ErrDeviceGone, streamErr)
	}
	return nil
}

func (m *Monitor) describe(dev *evdev.Device) {
	name, err := dev.Name()
	if err != nil {
		name = "unknown"
	}
	fmt.Fprintf(m.out, "device %s: %s\n", dev.Path(), name)
	for _, code := range monitoredAxes {
		info, err := dev.AbsInfo(code)
		if err != nil {
			continue
		}
		fmt.Fprintf(m.out, "  %-9s min %6d max %6d flat %5d fuzz %4d\n",
			evdev.CodeName(evdev.EV_ABS, code), info.Minimum, info.Maximum, info.Flat, info.Fuzz)
	}
}

func (m *Monitor) print(ev evdev.Event) {
	if m.SkipSync && ev.Type == evdev.EV_SYN {
		return
	}
	ts := ev.Timestamp().Format("15:04:05.000000")
	if !m.Translate {
		fmt.Fprintf(m.out, "%s %s\n", ts, ev)
		return
	}
	a := controller.Translate(ev)
	switch a.Kind {
	case controller.ActionNone:
		fmt.Fprintf(m.out, "%s %s\n", ts, ev)
	case controller.ActionStickX, controller.ActionStickY:
		fmt.Fprintf(m.out, "%s %s -> %s %.3f\n", ts, ev, a.Kind, a.Axis)
	case controller.ActionReserved:
		fmt.Fprintf(m.out, "%s %s -> %s %s\n", ts, ev, a.Kind, a.Binding)
	default:
		fmt.Fprintf(m.out, "%s %s -> %s\n", ts, ev, a.Kind)
	}
}
