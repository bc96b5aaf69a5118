package ui

import (
	"time"

	"fyne.io/fyne/v2"

	"RevealBoard/internal/engine"
)

// animator schedules engine frames on fyne's animation tick, which runs on
// the UI goroutine once per repaint.
type animator struct {
	anim    *fyne.Animation
	next    engine.FrameID
	pending engine.FrameID
	fn      func()
	// drawn runs after every frame callback.
	drawn func()
}

var _ engine.FrameScheduler = (*animator)(nil)

func newAnimator(drawn func()) *animator {
	a := &animator{drawn: drawn}
	a.anim = fyne.NewAnimation(time.Second, a.tick)
	a.anim.RepeatCount = fyne.AnimationRepeatForever
	a.anim.Curve = fyne.AnimationLinear
	return a
}

func (a *animator) RequestFrame(fn func()) engine.FrameID {
	a.next++
	a.pending = a.next
	a.fn = fn
	return a.pending
}

func (a *animator) CancelFrame(id engine.FrameID) {
	if id == a.pending {
		a.pending = 0
		a.fn = nil
	}
}

func (a *animator) tick(float32) {
	fn := a.fn
	if fn == nil {
		return
	}
	a.pending = 0
	a.fn = nil
	fn()
	if a.drawn != nil {
		a.drawn()
	}
}

func (a *animator) Start() { a.anim.Start() }
func (a *animator) Stop()  { a.anim.Stop() }
