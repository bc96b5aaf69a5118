package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock is the time source of a run. Hosts that render in real time use
// SystemClock; offline rendering and tests advance a ManualClock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Session identifies one engine instance on the feed and numbers the records
// it emits.
type Session struct {
	ID  string
	seq atomic.Uint64
}

func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// Next returns the next sequence number, starting at 1.
func (s *Session) Next() uint64 {
	return s.seq.Add(1)
}

// Last returns the most recently issued sequence number.
func (s *Session) Last() uint64 {
	return s.seq.Load()
}
