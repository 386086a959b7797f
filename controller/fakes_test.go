package controller_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Alia5/padboard/controller"
	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/eventloop"
	"github.com/stretchr/testify/require"
)

type fakeKeyboard struct {
	calls []string
	x, y  int
}

func (k *fakeKeyboard) CursorLeft()  { k.calls = append(k.calls, "left") }
func (k *fakeKeyboard) CursorRight() { k.calls = append(k.calls, "right") }
func (k *fakeKeyboard) CursorUp()    { k.calls = append(k.calls, "up") }
func (k *fakeKeyboard) CursorDown()  { k.calls = append(k.calls, "down") }
func (k *fakeKeyboard) SendKey(value int32) {
	k.calls = append(k.calls, fmt.Sprintf("send(%d)", value))
}
func (k *fakeKeyboard) Show() { k.calls = append(k.calls, "show") }
func (k *fakeKeyboard) Hide() { k.calls = append(k.calls, "hide") }
func (k *fakeKeyboard) Position() (int, int) {
	return k.x, k.y
}
func (k *fakeKeyboard) Move(x, y int) {
	k.x, k.y = x, y
	k.calls = append(k.calls, fmt.Sprintf("move(%d,%d)", x, y))
}

type chunk struct {
	data []byte
	res  evdev.ReadResult
}

type fakeDevice struct {
	chunks []chunk
	reads  int
	closes int
}

func (d *fakeDevice) Fd() int { return 42 }

func (d *fakeDevice) Read(p []byte) evdev.ReadResult {
	d.reads++
	if len(d.chunks) == 0 {
		return evdev.ReadResult{Status: evdev.ReadWouldBlock}
	}
	c := d.chunks[0]
	d.chunks = d.chunks[1:]
	if c.res.Status != evdev.ReadOK {
		return c.res
	}
	n := copy(p, c.data)
	return evdev.ReadResult{N: n, Status: evdev.ReadOK}
}

func (d *fakeDevice) Close() error {
	d.closes++
	return nil
}

func (d *fakeDevice) push(t *testing.T, evs ...evdev.Event) {
	t.Helper()
	var data []byte
	for _, ev := range evs {
		b, err := ev.MarshalBinary()
		require.NoError(t, err)
		data = append(data, b...)
	}
	d.chunks = append(d.chunks, chunk{data: data, res: evdev.ReadResult{Status: evdev.ReadOK}})
}

func (d *fakeDevice) fail(status evdev.ReadStatus, err error) {
	d.chunks = append(d.chunks, chunk{res: evdev.ReadResult{Status: status, Err: err}})
}

type fakeLoop struct {
	nextID       eventloop.SubscriptionID
	readable     map[eventloop.SubscriptionID]int
	timers       map[eventloop.SubscriptionID]time.Duration
	unsubscribed []eventloop.SubscriptionID

	readableErr error
	timerErr    error
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{
		readable: map[eventloop.SubscriptionID]int{},
		timers:   map[eventloop.SubscriptionID]time.Duration{},
	}
}

func (l *fakeLoop) SubscribeReadable(fd int, h eventloop.ReadableHandler) (eventloop.SubscriptionID, error) {
	if l.readableErr != nil {
		return 0, l.readableErr
	}
	l.nextID++
	l.readable[l.nextID] = fd
	return l.nextID, nil
}

func (l *fakeLoop) SubscribeTimer(period time.Duration, h eventloop.TickHandler) (eventloop.SubscriptionID, error) {
	if l.timerErr != nil {
		return 0, l.timerErr
	}
	l.nextID++
	l.timers[l.nextID] = period
	return l.nextID, nil
}

func (l *fakeLoop) Unsubscribe(id eventloop.SubscriptionID) {
	l.unsubscribed = append(l.unsubscribed, id)
	delete(l.readable, id)
	delete(l.timers, id)
}

func newController(t *testing.T, opts ...controller.Option) (*controller.Controller, *fakeKeyboard, *fakeDevice, *fakeLoop) {
	t.Helper()
	kb := &fakeKeyboard{}
	dev := &fakeDevice{}
	loop := newFakeLoop()
	opts = append([]controller.Option{controller.WithOpener(func(string) (controller.Device, error) { return dev, nil })}, opts...)
	c, err := controller.New(kb, "/dev/input/event9", loop, opts...)
	require.NoError(t, err)
	return c, kb, dev, loop
}

var errBoom = errors.New("boom")
