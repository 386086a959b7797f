//go:build linux

package eventloop

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

type readSub struct {
	fd int
	h  ReadableHandler
}

type timerSub struct {
	period time.Duration
	next   time.Time
	h      TickHandler
}

// Loop is an epoll based event loop.
type Loop struct {
	logger *slog.Logger
	epfd   int
	wakefd int

	mu      sync.Mutex
	nextID  SubscriptionID
	readers map[SubscriptionID]*readSub
	fds     map[int]SubscriptionID
	timers  map[SubscriptionID]*timerSub
	closed  bool

	stopping atomic.Bool
	now      func() time.Time
}

// New creates a loop. Close releases its descriptors.
func New(logger *slog.Logger) (*Loop, error) {
	if logger == nil {
		logger = slog.Default()
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl wakefd: %w", err)
	}
	return &Loop{
		logger:  logger,
		epfd:    epfd,
		wakefd:  wakefd,
		readers: make(map[SubscriptionID]*readSub),
		fds:     make(map[int]SubscriptionID),
		timers:  make(map[SubscriptionID]*timerSub),
		now:     time.Now,
	}, nil
}

// SubscribeReadable watches fd for input, errors and hangups.
func (l *Loop) SubscribeReadable(fd int, h ReadableHandler) (SubscriptionID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	if _, dup := l.fds[fd]; dup {
		return 0, fmt.Errorf("fd %d: %w", fd, ErrAlreadySubscribed)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLERR | unix.EPOLLHUP, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return 0, fmt.Errorf("epoll_ctl add fd %d: %w", fd, err)
	}
	l.nextID++
	id := l.nextID
	l.readers[id] = &readSub{fd: fd, h: h}
	l.fds[fd] = id
	l.wake()
	return id, nil
}

// SubscribeTimer calls h every period, first one period from now.
func (l *Loop) SubscribeTimer(period time.Duration, h TickHandler) (SubscriptionID, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	l.nextID++
	id := l.nextID
	l.timers[id] = &timerSub{period: period, next: l.now().Add(period), h: h}
	l.wake()
	return id, nil
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (l *Loop) Unsubscribe(id SubscriptionID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.readers[id]; ok {
		// The descriptor may already be closed by its owner; epoll drops it then.
		if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, r.fd, nil); err != nil && !errors.Is(err, unix.EBADF) && !errors.Is(err, unix.ENOENT) {
			l.logger.Debug("epoll_ctl del failed", "fd", r.fd, "error", err)
		}
		delete(l.readers, id)
		delete(l.fds, r.fd)
		return
	}
	delete(l.timers, id)
}

// Stop makes Run return after the current dispatch round.
func (l *Loop) Stop() {
	l.stopping.Store(true)
	l.wake()
}

// Run dispatches callbacks until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}

	stopWake := context.AfterFunc(ctx, l.wake)
	defer stopWake()

	events := make([]unix.EpollEvent, 32)
	for {
		if ctx.Err() != nil || l.stopping.Swap(false) {
			return nil
		}
		n, err := unix.EpollWait(l.epfd, events, l.timeout())
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.wakefd {
				l.drainWake()
				continue
			}
			l.dispatchReadable(fd)
		}
		l.dispatchTimers()
	}
}

// Close releases the loop's own descriptors. Subscribed descriptors stay
// owned by their subscribers.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	clear(l.readers)
	clear(l.fds)
	clear(l.timers)
	return errors.Join(unix.Close(l.wakefd), unix.Close(l.epfd))
}

func (l *Loop) dispatchReadable(fd int) {
	l.mu.Lock()
	id, ok := l.fds[fd]
	var r *readSub
	if ok {
		r = l.readers[id]
	}
	l.mu.Unlock()
	if r == nil {
		return
	}
	if r.h.OnReadable() == Stop {
		l.Unsubscribe(id)
	}
}

func (l *Loop) dispatchTimers() {
	now := l.now()

	l.mu.Lock()
	type due struct {
		id   SubscriptionID
		next time.Time
	}
	var ready []due
	for id, t := range l.timers {
		if !t.next.After(now) {
			ready = append(ready, due{id: id, next: t.next})
		}
	}
	l.mu.Unlock()

	slices.SortFunc(ready, func(a, b due) int {
		if c := a.next.Compare(b.next); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	for _, d := range ready {
		l.mu.Lock()
		t, ok := l.timers[d.id]
		l.mu.Unlock()
		if !ok {
			continue
		}
		if t.h.OnTick() == Stop {
			l.Unsubscribe(d.id)
			continue
		}
		l.mu.Lock()
		if t, ok := l.timers[d.id]; ok {
			t.next = t.next.Add(t.period)
			if !t.next.After(now) {
				// Missed periods are skipped, not replayed.
				t.next = now.Add(t.period)
			}
		}
		l.mu.Unlock()
	}
}

// timeout returns the epoll_wait timeout in milliseconds until the next timer.
func (l *Loop) timeout() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return -1
	}
	var earliest time.Time
	for _, t := range l.timers {
		if earliest.IsZero() || t.next.Before(earliest) {
			earliest = t.next
		}
	}
	d := earliest.Sub(l.now())
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

func (l *Loop) wake() {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	_, _ = unix.Write(l.wakefd, b[:])
}

func (l *Loop) drainWake() {
	var b [8]byte
	_, _ = unix.Read(l.wakefd, b[:])
}
