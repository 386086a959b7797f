// Package vkbd implements the on-screen keyboard driven by the controller.
package vkbd

import (
	"log/slog"
)

// Sink receives key events emitted by the keyboard.
type Sink interface {
	Key(code uint16, value int32) error
	Sync() error
}

// Renderer draws the keyboard whenever its visible state changes.
type Renderer interface {
	Render(View)
}

// View is a snapshot of the keyboard handed to a Renderer.
type View struct {
	Layout   *Layout
	Row, Col int
	Visible  bool
	X, Y     int
}

// Bounds limits the keyboard position. The zero value means unbounded.
type Bounds struct {
	MinX, MinY, MaxX, MaxY int
}

func (b Bounds) set() bool {
	return b != Bounds{}
}

func (b Bounds) clamp(x, y int) (int, int) {
	if !b.set() {
		return x, y
	}
	return max(b.MinX, min(x, b.MaxX)), max(b.MinY, min(y, b.MaxY))
}

type Keyboard struct {
	layout   *Layout
	sink     Sink
	renderer Renderer
	logger   *slog.Logger
	bounds   Bounds

	row, col int
	visible  bool
	x, y     int
}

type Option func(*Keyboard)

func WithRenderer(r Renderer) Option {
	return func(k *Keyboard) { k.renderer = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(k *Keyboard) { k.logger = l }
}

func WithBounds(b Bounds) Option {
	return func(k *Keyboard) { k.bounds = b }
}

func WithOrigin(x, y int) Option {
	return func(k *Keyboard) { k.x, k.y = x, y }
}

func WithVisible(v bool) Option {
	return func(k *Keyboard) { k.visible = v }
}

// New creates a keyboard over a resolved layout. A nil layout uses DefaultLayout.
func New(layout *Layout, sink Sink, opts ...Option) *Keyboard {
	if layout == nil {
		layout = DefaultLayout()
	}
	k := &Keyboard{
		layout: layout,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(k)
	}
	k.x, k.y = k.bounds.clamp(k.x, k.y)
	k.render()
	return k
}

func (k *Keyboard) CursorLeft() {
	n := len(k.layout.Rows[k.row].Keys)
	k.col = (k.col - 1 + n) % n
	k.render()
}

func (k *Keyboard) CursorRight() {
	n := len(k.layout.Rows[k.row].Keys)
	k.col = (k.col + 1) % n
	k.render()
}

func (k *Keyboard) CursorUp() {
	n := len(k.layout.Rows)
	k.setRow((k.row - 1 + n) % n)
}

func (k *Keyboard) CursorDown() {
	k.setRow((k.row + 1) % len(k.layout.Rows))
}

func (k *Keyboard) setRow(r int) {
	k.row = r
	k.col = min(k.col, len(k.layout.Rows[r].Keys)-1)
	k.render()
}

// SendKey emits the focused key with the given value followed by a sync.
// Sink failures are logged.
func (k *Keyboard) SendKey(value int32) {
	key := k.Focused()
	k.logger.Debug("send key", "label", key.Label, "code", key.Code, "value", value)
	if k.sink == nil {
		return
	}
	if err := k.sink.Key(key.Code, value); err != nil {
		k.logger.Error("failed to emit key", "label", key.Label, "value", value, "error", err)
		return
	}
	if err := k.sink.Sync(); err != nil {
		k.logger.Error("failed to sync key", "label", key.Label, "error", err)
	}
}

func (k *Keyboard) Show() { k.setVisible(true) }
func (k *Keyboard) Hide() { k.setVisible(false) }

func (k *Keyboard) setVisible(v bool) {
	if k.visible == v {
		return
	}
	k.visible = v
	k.logger.Debug("keyboard visibility", "visible", v)
	k.render()
}

func (k *Keyboard) Position() (x, y int) {
	return k.x, k.y
}

func (k *Keyboard) Move(x, y int) {
	x, y = k.bounds.clamp(x, y)
	if x == k.x && y == k.y {
		return
	}
	k.x, k.y = x, y
	k.render()
}

func (k *Keyboard) Visible() bool { return k.visible }

// Focused returns the key under the cursor.
func (k *Keyboard) Focused() Key {
	return k.layout.Rows[k.row].Keys[k.col]
}

func (k *Keyboard) View() View {
	return View{Layout: k.layout, Row: k.row, Col: k.col, Visible: k.visible, X: k.x, Y: k.y}
}

func (k *Keyboard) render() {
	if k.renderer != nil {
		k.renderer.Render(k.View())
	}
}
