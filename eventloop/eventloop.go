// Package eventloop runs readiness and timer callbacks on a single goroutine.
//
// Handlers are never invoked concurrently with each other or with themselves,
// and a handler whose subscription has been removed is never invoked again.
package eventloop

import "errors"

// Disposition is returned by every callback and tells the loop whether to
// keep the subscription.
type Disposition int

const (
	Keep Disposition = iota
	Stop
)

func (d Disposition) String() string {
	if d == Stop {
		return "stop"
	}
	return "keep"
}

// ReadableHandler is notified when its descriptor has data, an error or a hangup.
type ReadableHandler interface {
	OnReadable() Disposition
}

// TickHandler is notified once per timer period.
type TickHandler interface {
	OnTick() Disposition
}

// ReadableFunc adapts a function to ReadableHandler.
type ReadableFunc func() Disposition

func (f ReadableFunc) OnReadable() Disposition { return f() }

// TickFunc adapts a function to TickHandler.
type TickFunc func() Disposition

func (f TickFunc) OnTick() Disposition { return f() }

// SubscriptionID identifies a subscription. Zero is never issued.
type SubscriptionID uint64

var (
	ErrAlreadySubscribed = errors.New("descriptor already subscribed")
	ErrInvalidPeriod     = errors.New("timer period must be > 0")
	ErrClosed            = errors.New("event loop closed")
)
