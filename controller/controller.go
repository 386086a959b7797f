// Package controller turns gamepad input events into virtual keyboard
// commands.
//
// The d-pad steps the keyboard cursor, the right stick moves the keyboard
// continuously, and dedicated buttons send the focused key or show and hide
// the keyboard. A Controller is driven entirely by a single-threaded event
// loop: OnReadable drains the device, OnTick integrates stick motion.
package controller

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/eventloop"
	"github.com/Alia5/padboard/internal/log"
)

// readBatch is the number of records requested per read.
const readBatch = 128

// Keyboard is the virtual keyboard the controller drives.
type Keyboard interface {
	CursorLeft()
	CursorRight()
	CursorUp()
	CursorDown()
	SendKey(value int32)
	Show()
	Hide()
	Position() (x, y int)
	Move(x, y int)
}

// Device is a non-blocking input event stream.
type Device interface {
	Fd() int
	Read(p []byte) evdev.ReadResult
	Close() error
}

// Loop is the event loop the controller registers with.
type Loop interface {
	SubscribeReadable(fd int, h eventloop.ReadableHandler) (eventloop.SubscriptionID, error)
	SubscribeTimer(period time.Duration, h eventloop.TickHandler) (eventloop.SubscriptionID, error)
	Unsubscribe(id eventloop.SubscriptionID)
}

// Opener opens the device at path.
type Opener func(path string) (Device, error)

func openDevice(path string) (Device, error) {
	d, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRawLogger dumps every raw chunk read from the device.
func WithRawLogger(r log.RawLogger) Option {
	return func(c *Controller) { c.raw = r }
}

// WithOpener replaces how the device path is opened.
func WithOpener(o Opener) Option {
	return func(c *Controller) { c.open = o }
}

// WithErrorHandler is called when a read reports end of stream or an error.
// The drain stops either way and the subscription is kept.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onErr = fn }
}

// WithSkipIdleMoves skips the per-tick move while the stick is centered.
// The keyboard ends up in the same place either way.
func WithSkipIdleMoves(skip bool) Option {
	return func(c *Controller) { c.skipIdle = skip }
}

// Controller owns one input device and its two loop subscriptions.
type Controller struct {
	kb     Keyboard
	path   string
	loop   Loop
	dev    Device
	open   Opener
	logger *slog.Logger
	raw    log.RawLogger
	onErr  func(error)

	skipIdle bool
	axis     AxisState

	buf    []byte
	events []evdev.Event
	failed bool

	readID  eventloop.SubscriptionID
	timerID eventloop.SubscriptionID
	closed  bool
}

// New opens the device at path and subscribes to its input and to the
// motion timer. On error nothing stays acquired.
func New(kb Keyboard, path string, loop Loop, opts ...Option) (*Controller, error) {
	c := &Controller{
		kb:     kb,
		path:   path,
		loop:   loop,
		open:   openDevice,
		logger: slog.Default(),
		raw:    log.NewRaw(nil),
	}
	for _, o := range opts {
		o(c)
	}

	dev, err := c.open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device: %w", err)
	}
	c.dev = dev
	c.buf = make([]byte, readBatch*evdev.EventSize)
	c.events = make([]evdev.Event, 0, readBatch)

	c.readID, err = loop.SubscribeReadable(dev.Fd(), c)
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	c.timerID, err = loop.SubscribeTimer(TickPeriod, c)
	if err != nil {
		loop.Unsubscribe(c.readID)
		_ = dev.Close()
		return nil, fmt.Errorf("motion timer: %w", err)
	}

	c.logger.Debug("controller attached", "device", path)
	return c, nil
}

// Axis returns the current stick state.
func (c *Controller) Axis() AxisState { return c.axis }

// OnReadable drains every available event and applies each in stream order.
func (c *Controller) OnReadable() eventloop.Disposition {
	for {
		res := c.dev.Read(c.buf)
		if res.Status != evdev.ReadOK {
			c.drainEnded(res)
			return eventloop.Keep
		}
		c.failed = false
		c.raw.Log(c.path, c.buf[:res.N])
		c.events = evdev.Decode(c.buf[:res.N], c.events[:0])
		for _, ev := range c.events {
			c.Apply(Translate(ev))
		}
	}
}

func (c *Controller) drainEnded(res evdev.ReadResult) {
	if res.Status == evdev.ReadWouldBlock {
		return
	}
	if c.failed {
		c.logger.Debug("input device still failing", "device", c.path, "status", res.Status, "error", res.Err)
	} else {
		c.logger.Warn("input device read failed", "device", c.path, "status", res.Status, "error", res.Err)
		c.failed = true
	}
	if c.onErr != nil {
		c.onErr(res.Err)
	}
}

// Apply performs the side effect of a translated action.
func (c *Controller) Apply(a Action) {
	switch a.Kind {
	case ActionCursorLeft:
		c.kb.CursorLeft()
	case ActionCursorRight:
		c.kb.CursorRight()
	case ActionCursorUp:
		c.kb.CursorUp()
	case ActionCursorDown:
		c.kb.CursorDown()
	case ActionStickX:
		c.axis.X = a.Axis
	case ActionStickY:
		c.axis.Y = a.Axis
	case ActionSendKey:
		c.kb.SendKey(a.Value)
	case ActionShow:
		c.kb.Show()
	case ActionHide:
		c.kb.Hide()
	case ActionReserved:
		c.logger.Debug("inert button", "binding", a.Binding)
	}
}

// OnTick moves the keyboard by the stick deflection.
func (c *Controller) OnTick() eventloop.Disposition {
	if c.skipIdle && c.axis.Idle() {
		return eventloop.Keep
	}
	x, y := c.kb.Position()
	c.kb.Move(c.axis.Advance(x, y))
	return eventloop.Keep
}

// Close unsubscribes from the loop and closes the device. Only the first
// call has any effect.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.loop.Unsubscribe(c.timerID)
	c.loop.Unsubscribe(c.readID)
	if err := c.dev.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.path, err)
	}
	c.logger.Debug("controller detached", "device", c.path)
	return nil
}
