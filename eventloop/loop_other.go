//go:build !linux

package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Loop struct{}

func New(logger *slog.Logger) (*Loop, error) { return nil, errors.ErrUnsupported }

func (l *Loop) SubscribeReadable(fd int, h ReadableHandler) (SubscriptionID, error) {
	return 0, errors.ErrUnsupported
}

func (l *Loop) SubscribeTimer(period time.Duration, h TickHandler) (SubscriptionID, error) {
	return 0, errors.ErrUnsupported
}

func (l *Loop) Unsubscribe(id SubscriptionID) {}

func (l *Loop) Stop() {}

func (l *Loop) Run(ctx context.Context) error { return errors.ErrUnsupported }

func (l *Loop) Close() error { return nil }
