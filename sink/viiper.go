package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alia5/padboard/evdev"
	"github.com/Alia5/padboard/internal/log"
	"github.com/Alia5/padboard/internal/viiper"
)

// DefaultBus is created when the server has no bus and none was requested.
const DefaultBus uint32 = 1

const removeTimeout = 3 * time.Second

var ErrUnmapped = errors.New("key has no HID usage")

// Viiper emits keys through a VIIPER virtual USB keyboard.
type Viiper struct {
	client *viiper.Client
	stream *viiper.Stream
	logger *slog.Logger
	raw    log.RawLogger

	state viiper.KeyboardState
	dirty bool
	done  chan struct{}
}

type ViiperOption func(*Viiper)

func WithViiperLogger(l *slog.Logger) ViiperOption {
	return func(v *Viiper) { v.logger = l }
}

func WithViiperRawLogger(raw log.RawLogger) ViiperOption {
	return func(v *Viiper) { v.raw = raw }
}

// NewViiper attaches a keyboard to busID. A zero busID picks the first
// existing bus, creating DefaultBus when there is none.
func NewViiper(ctx context.Context, client *viiper.Client, busID uint32, opts ...ViiperOption) (*Viiper, error) {
	v := &Viiper{client: client, logger: slog.Default(), done: make(chan struct{})}
	for _, o := range opts {
		o(v)
	}

	bus, err := v.resolveBus(ctx, busID)
	if err != nil {
		return nil, err
	}
	dev, err := client.DeviceAdd(ctx, bus, viiper.DeviceTypeKeyboard)
	if err != nil {
		return nil, fmt.Errorf("add keyboard on bus %d: %w", bus, err)
	}
	stream, err := client.OpenStream(ctx, bus, dev.DevID)
	if err != nil {
		v.removeDevice(bus, dev.DevID)
		return nil, fmt.Errorf("open stream %d-%s: %w", bus, dev.DevID, err)
	}
	v.stream = stream
	v.logger.Info("attached viiper keyboard", "bus", bus, "dev", dev.DevID, "vid", dev.Vid, "pid", dev.Pid)

	go v.readLEDs()
	return v, nil
}

func (v *Viiper) resolveBus(ctx context.Context, busID uint32) (uint32, error) {
	list, err := v.client.BusList(ctx)
	if err != nil {
		return 0, fmt.Errorf("list buses: %w", err)
	}
	if busID == 0 && len(list.Buses) > 0 {
		return list.Buses[0], nil
	}
	if busID == 0 {
		busID = DefaultBus
	}
	for _, b := range list.Buses {
		if b == busID {
			return busID, nil
		}
	}
	resp, err := v.client.BusCreate(ctx, busID)
	if err != nil {
		return 0, fmt.Errorf("create bus %d: %w", busID, err)
	}
	v.logger.Info("created viiper bus", "bus", resp.BusID)
	return resp.BusID, nil
}

func (v *Viiper) readLEDs() {
	defer close(v.done)
	buf := make([]byte, 1)
	for {
		if _, err := v.stream.Read(buf); err != nil {
			return
		}
		var leds viiper.LEDState
		if err := leds.UnmarshalBinary(buf); err != nil {
			continue
		}
		v.logger.Debug("keyboard leds", "num", leds.NumLock, "caps", leds.CapsLock, "scroll", leds.ScrollLock)
	}
}

// Key updates the pending key state. Repeats do not change it.
func (v *Viiper) Key(code uint16, value int32) error {
	if !v.state.Apply(code, value) {
		return fmt.Errorf("%s: %w", evdev.CodeName(evdev.EV_KEY, code), ErrUnmapped)
	}
	if value != 2 {
		v.dirty = true
	}
	return nil
}

// Sync sends the key state if it changed since the last Sync.
func (v *Viiper) Sync() error {
	if !v.dirty {
		return nil
	}
	v.dirty = false
	return v.send()
}

func (v *Viiper) send() error {
	b, err := v.state.MarshalBinary()
	if err != nil {
		return err
	}
	if v.raw != nil {
		v.raw.Log("viiper", b)
	}
	_, err = v.stream.Write(b)
	return err
}

// Close releases every key, closes the stream and removes the device.
func (v *Viiper) Close() error {
	if v.stream == nil {
		return nil
	}
	v.state.Reset()
	err := v.send()
	if cerr := v.stream.Close(); err == nil {
		err = cerr
	}
	<-v.done
	v.removeDevice(v.stream.BusID, v.stream.DevID)
	v.stream = nil
	return err
}

func (v *Viiper) removeDevice(bus uint32, devID string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()
	if _, err := v.client.DeviceRemove(ctx, bus, devID); err != nil {
		v.logger.Warn("failed to remove viiper keyboard", "bus", bus, "dev", devID, "error", err)
	}
}
