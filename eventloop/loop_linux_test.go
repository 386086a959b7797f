//go:build linux

package eventloop_test

import (
	"context"
	"testing"
	"time"

	"github.com/Alia5/padboard/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	l, err := eventloop.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
	})
	return p[0], p[1]
}

func runAsync(t *testing.T, l *eventloop.Loop, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not return")
	}
}

func TestReadableDispatch(t *testing.T) {
	l := newLoop(t)
	r, w := newPipe(t)

	got := make(chan []byte, 4)
	_, err := l.SubscribeReadable(r, eventloop.ReadableFunc(func() eventloop.Disposition {
		buf := make([]byte, 64)
		n, _ := unix.Read(r, buf)
		got <- buf[:max(n, 0)]
		return eventloop.Keep
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(t, l, ctx)

	_, err = unix.Write(w, []byte("abc"))
	require.NoError(t, err)

	select {
	case b := <-got:
		assert.Equal(t, []byte("abc"), b)
	case <-time.After(2 * time.Second):
		t.Fatal("readable handler not called")
	}

	cancel()
	waitDone(t, done)
}

func TestDuplicateReadable(t *testing.T) {
	l := newLoop(t)
	r, _ := newPipe(t)
	h := eventloop.ReadableFunc(func() eventloop.Disposition { return eventloop.Keep })

	_, err := l.SubscribeReadable(r, h)
	require.NoError(t, err)
	_, err = l.SubscribeReadable(r, h)
	assert.ErrorIs(t, err, eventloop.ErrAlreadySubscribed)
}

func TestTimerTicksUntilStop(t *testing.T) {
	l := newLoop(t)

	ticks := 0
	var times []time.Time
	start := time.Now()
	_, err := l.SubscribeTimer(5*time.Millisecond, eventloop.TickFunc(func() eventloop.Disposition {
		ticks++
		times = append(times, time.Now())
		if ticks == 3 {
			l.Stop()
		}
		return eventloop.Keep
	}))
	require.NoError(t, err)

	waitDone(t, runAsync(t, l, context.Background()))

	assert.Equal(t, 3, ticks)
	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[0].Sub(start), 5*time.Millisecond)
	assert.True(t, times[1].After(times[0]))
	assert.True(t, times[2].After(times[1]))
}

func TestStopDispositionRemovesTimer(t *testing.T) {
	l := newLoop(t)

	once := 0
	_, err := l.SubscribeTimer(2*time.Millisecond, eventloop.TickFunc(func() eventloop.Disposition {
		once++
		return eventloop.Stop
	}))
	require.NoError(t, err)

	other := 0
	_, err = l.SubscribeTimer(2*time.Millisecond, eventloop.TickFunc(func() eventloop.Disposition {
		other++
		if other == 5 {
			l.Stop()
		}
		return eventloop.Keep
	}))
	require.NoError(t, err)

	waitDone(t, runAsync(t, l, context.Background()))
	assert.Equal(t, 1, once)
	assert.Equal(t, 5, other)
}

func TestUnsubscribedHandlerNotInvoked(t *testing.T) {
	l := newLoop(t)
	r, w := newPipe(t)

	readCalls := 0
	readID, err := l.SubscribeReadable(r, eventloop.ReadableFunc(func() eventloop.Disposition {
		readCalls++
		return eventloop.Keep
	}))
	require.NoError(t, err)

	ticks := 0
	_, err = l.SubscribeTimer(2*time.Millisecond, eventloop.TickFunc(func() eventloop.Disposition {
		ticks++
		switch ticks {
		case 1:
			l.Unsubscribe(readID)
			_, _ = unix.Write(w, []byte("x"))
		case 10:
			l.Stop()
		}
		return eventloop.Keep
	}))
	require.NoError(t, err)

	waitDone(t, runAsync(t, l, context.Background()))
	assert.Equal(t, 0, readCalls)
}

func TestInvalidPeriod(t *testing.T) {
	l := newLoop(t)
	_, err := l.SubscribeTimer(0, eventloop.TickFunc(func() eventloop.Disposition { return eventloop.Keep }))
	assert.ErrorIs(t, err, eventloop.ErrInvalidPeriod)
}

func TestClosed(t *testing.T) {
	l, err := eventloop.New(nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Run(context.Background()), eventloop.ErrClosed)
	_, err = l.SubscribeTimer(time.Millisecond, eventloop.TickFunc(func() eventloop.Disposition { return eventloop.Keep }))
	assert.ErrorIs(t, err, eventloop.ErrClosed)
}
