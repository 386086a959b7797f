package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/padboard/controller"
	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/eventloop"
	"github.com/Alia5/padboard/internal/log"
	"github.com/Alia5/padboard/internal/viiper"
	"github.com/Alia5/padboard/sink"
	"github.com/Alia5/padboard/vkbd"
)

// ErrDeviceGone is returned by run when the gamepad stream ends.
var ErrDeviceGone = errors.New("input device gone")

type Input struct {
	Device string `help:"Gamepad event device" default:"/dev/input/event0" env:"PADBOARD_DEVICE"`
	Wait   bool   `help:"Wait for the device to appear before opening it" env:"PADBOARD_WAIT"`
	Grab   bool   `help:"Grab the device so other readers get no events" env:"PADBOARD_GRAB"`
}

type UInputConfig struct {
	Name string `help:"Name of the virtual uinput keyboard" default:"padboard virtual keyboard"`
}

type ViiperConfig struct {
	Addr     string        `help:"VIIPER API server address" default:"localhost:3242" env:"PADBOARD_VIIPER_ADDR"`
	Password string        `help:"VIIPER API password" env:"PADBOARD_VIIPER_PASSWORD"`
	KeyFile  string        `help:"Read the VIIPER API password from this file" type:"path"`
	Bus      uint32        `help:"Bus to attach the keyboard to (0 picks one)" default:"0"`
	Timeout  time.Duration `help:"Timeout of VIIPER API requests" default:"5s"`
}

type KeyboardConfig struct {
	Layout  string `help:"Layout file (json, yaml or toml); built-in QWERTY when empty" type:"path" env:"PADBOARD_LAYOUT"`
	OriginX int    `help:"Initial horizontal position" default:"0"`
	OriginY int    `help:"Initial vertical position" default:"0"`
	Bounds  []int  `help:"Clamp position to minX,minY,maxX,maxY"`
	Visible bool   `help:"Show the keyboard at startup"`
	Render  bool   `help:"Draw the keyboard as text on stdout"`
}

type Run struct {
	Input         Input          `embed:"" prefix:"input."`
	Keyboard      KeyboardConfig `embed:"" prefix:"keyboard."`
	Sink          string         `help:"Key output backend" enum:"log,uinput,viiper" default:"log" env:"PADBOARD_SINK"`
	LogKeys       bool           `help:"Also log keys sent to a uinput or viiper sink"`
	SkipIdleMoves bool           `help:"Do not move the keyboard on ticks while the stick is centered"`
	UInput        UInputConfig   `embed:"" prefix:"uinput."`
	Viiper        ViiperConfig   `embed:"" prefix:"viiper."`

	out io.Writer
}

func (r *Run) Validate() error {
	if n := len(r.Keyboard.Bounds); n != 0 && n != 4 {
		return fmt.Errorf("--keyboard.bounds needs 4 values, got %d", n)
	}
	return nil
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.run(ctx, logger, rawLogger)
}

func (r *Run) run(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	layout := vkbd.DefaultLayout()
	if r.Keyboard.Layout != "" {
		var err error
		if layout, err = vkbd.LoadLayout(r.Keyboard.Layout); err != nil {
			return fmt.Errorf("load layout: %w", err)
		}
	}

	if r.Input.Wait {
		logger.Info("waiting for input device", "device", r.Input.Device)
		if err := evdev.WaitFor(ctx, r.Input.Device); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	out, err := r.openSink(ctx, logger, rawLogger, layout)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("failed to close key sink", "error", err)
		}
	}()

	kb := vkbd.New(layout, out, r.keyboardOptions(logger)...)

	loop, err := eventloop.New(logger)
	if err != nil {
		return err
	}
	defer loop.Close()

	var streamErr error
	ctrl, err := controller.New(kb, r.Input.Device, loop,
		controller.WithLogger(logger),
		controller.WithRawLogger(rawLogger),
		controller.WithOpener(r.opener(logger)),
		controller.WithSkipIdleMoves(r.SkipIdleMoves),
		controller.WithErrorHandler(func(err error) {
			streamErr = err
			loop.Stop()
		}),
	)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	logger.Info("padboard running", "device", r.Input.Device, "layout", layout.Name, "sink", r.Sink)
	if err := loop.Run(ctx); err != nil {
		return err
	}
	if streamErr != nil {
		return fmt.Errorf("%w: %w", ErrDeviceGone, streamErr)
	}
	return nil
}

func (r *Run) keyboardOptions(logger *slog.Logger) []vkbd.Option {
	opts := []vkbd.Option{
		vkbd.WithLogger(logger),
		vkbd.WithOrigin(r.Keyboard.OriginX, r.Keyboard.OriginY),
		vkbd.WithVisible(r.Keyboard.Visible),
	}
	if b := r.Keyboard.Bounds; len(b) == 4 {
		opts = append(opts, vkbd.WithBounds(vkbd.Bounds{MinX: b[0], MinY: b[1], MaxX: b[2], MaxY: b[3]}))
	}
	if r.Keyboard.Render {
		w := r.out
		if w == nil {
			w = os.Stdout
		}
		opts = append(opts, vkbd.WithRenderer(vkbd.NewTextRenderer(w)))
	}
	return opts
}

func (r *Run) opener(logger *slog.Logger) controller.Opener {
	return func(path string) (controller.Device, error) {
		dev, err := evdev.Open(path)
		if err != nil {
			return nil, err
		}
		if name, err := dev.Name(); err == nil {
			logger.Info("opened input device", "device", path, "name", name)
		}
		if r.Input.Grab {
			if err := dev.Grab(true); err != nil {
				_ = dev.Close()
				return nil, err
			}
		}
		return dev, nil
	}
}

func (r *Run) openSink(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger, layout *vkbd.Layout) (sink.Sink, error) {
	var (
		out sink.Sink
		err error
	)
	switch r.Sink {
	case "log", "":
		return sink.NewLog(logger), nil
	case "uinput":
		out, err = sink.OpenUInput(r.UInput.Name, layout.Codes(), sink.WithRawLogger(rawLogger))
	case "viiper":
		out, err = r.openViiper(ctx, logger, rawLogger)
	default:
		return nil, fmt.Errorf("unknown sink %q", r.Sink)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s sink: %w", r.Sink, err)
	}
	if r.LogKeys {
		out = sink.Multi(out, sink.NewLog(logger))
	}
	return out, nil
}

func (r *Run) openViiper(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) (sink.Sink, error) {
	cfg := viiper.DefaultConfig()
	cfg.ReadTimeout = r.Viiper.Timeout
	cfg.WriteTimeout = r.Viiper.Timeout
	cfg.Password = r.Viiper.Password
	if cfg.Password == "" && r.Viiper.KeyFile != "" {
		b, err := os.ReadFile(r.Viiper.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		cfg.Password = strings.TrimSpace(string(b))
	}
	client := viiper.New(r.Viiper.Addr, cfg, logger)
	if ping, err := client.Ping(ctx); err == nil {
		logger.Info("connected to viiper", "addr", r.Viiper.Addr, "server", ping.Server, "version", ping.Version)
	}
	return sink.NewViiper(ctx, client, r.Viiper.Bus,
		sink.WithViiperLogger(logger),
		sink.WithViiperRawLogger(rawLogger),
	)
}
