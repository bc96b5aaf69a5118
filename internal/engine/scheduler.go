package engine

// FrameID identifies a requested frame so it can be cancelled.
type FrameID uint64

// FrameScheduler runs a callback once before the next repaint. Callbacks must
// be invoked on the same goroutine that drives the engine.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// ManualFrames holds at most one pending callback and runs it on Fire. It is
// used for offline rendering and in tests.
type ManualFrames struct {
	next    FrameID
	pending FrameID
	fn      func()
}

func (m *ManualFrames) RequestFrame(fn func()) FrameID {
	m.next++
	m.pending = m.next
	m.fn = fn
	return m.pending
}

func (m *ManualFrames) CancelFrame(id FrameID) {
	if id == m.pending {
		m.pending = 0
		m.fn = nil
	}
}

// Pending reports whether a callback is waiting.
func (m *ManualFrames) Pending() bool { return m.fn != nil }

// Fire runs the pending callback, if any. It reports whether one ran.
func (m *ManualFrames) Fire() bool {
	fn := m.fn
	if fn == nil {
		return false
	}
	m.pending = 0
	m.fn = nil
	fn()
	return true
}
