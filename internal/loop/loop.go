// Package loop runs a single goroutine that owns the engine in headless
// hosts. Tasks posted from other goroutines, frame callbacks and periodic
// timers all execute on it, one at a time.
package loop

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"RevealBoard/internal/engine"
)

// ErrClosed is returned by Do once the loop has stopped.
var ErrClosed = errors.New("loop: closed")

type Loop struct {
	interval time.Duration
	tasks    chan func()
	done     chan struct{}
	once     sync.Once

	mu     sync.Mutex
	nextID engine.FrameID
	frames map[engine.FrameID]func()
}

var _ engine.FrameScheduler = (*Loop)(nil)

// New returns a loop that fires frame callbacks fps times per second.
func New(fps int) *Loop {
	if fps <= 0 {
		fps = 60
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		tasks:    make(chan func(), 256),
		done:     make(chan struct{}),
		frames:   make(map[engine.FrameID]func()),
	}
}

// Post queues fn to run on the loop. It drops fn once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) RequestFrame(fn func()) engine.FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.frames[l.nextID] = fn
	return l.nextID
}

func (l *Loop) CancelFrame(id engine.FrameID) {
	l.mu.Lock()
	delete(l.frames, id)
	l.mu.Unlock()
}

// Every posts fn every d until the loop stops or the returned func is called.
func (l *Loop) Every(d time.Duration, fn func()) (stop func()) {
	t := time.NewTicker(d)
	quit := make(chan struct{})
	var once sync.Once
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.Post(fn)
			case <-quit:
				return
			case <-l.done:
				return
			}
		}
	}()
	return func() { once.Do(func() { close(quit) }) }
}

// Run executes tasks and frames until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		case <-ticker.C:
			l.tick()
		}
	}
}

// tick runs the callbacks requested before it started. Callbacks requested
// while it runs wait for the next tick.
func (l *Loop) tick() {
	l.mu.Lock()
	if len(l.frames) == 0 {
		l.mu.Unlock()
		return
	}
	ids := make([]engine.FrameID, 0, len(l.frames))
	for id := range l.frames {
		ids = append(ids, id)
	}
	l.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.frames[id]
		delete(l.frames, id)
		l.mu.Unlock()
		if ok {
			fn()
		}
	}
}
