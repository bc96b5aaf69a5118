// Package engine implements the stroke reveal animation: a source photo is
// scaled into an offscreen buffer and short strokes, each colored with the
// average of the pixels under it, are painted onto a visible surface frame
// after frame.
//
// An Engine is not safe for concurrent use. Every method, and every callback
// handed to the FrameScheduler, must run on the host's loop goroutine.
package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"RevealBoard/internal/geom"
	"RevealBoard/internal/state"
)

const (
	DefaultStrokesPerFrame = 133
	// DefaultRestartInterval is how often hosts restart with the next image:
	// 4π seconds, to the nanosecond.
	DefaultRestartInterval = 12566370614 * time.Nanosecond
	// DefaultRevealDelay is how long hosts wait after ready before showing
	// the surface.
	DefaultRevealDelay = 100 * time.Millisecond
)

// DefaultBackground is painted over the surface when loading completes.
var DefaultBackground color.Color = color.NRGBA{R: 0x6d, G: 0x59, B: 0x7a, A: 0xff}

// Phase is the lifecycle state of an Engine.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseRunning
	PhaseStopped
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRunning:
		return "running"
	case PhaseStopped:
		return "stopped"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Options struct {
	StrokesPerFrame int
	Background      color.Color
	PixelRatio      float64
	Rand            *rand.Rand
	Clock           state.Clock
	Session         *state.Session
	Logger          *log.Logger

	// OnReady runs once, after every image has loaded and the surface has
	// been cleared, right before the first restart.
	OnReady   func()
	OnRestart func(state.Restart)
	OnStroke  func(state.Stroke)
	OnError   func(error)
}

type Engine struct {
	opts    Options
	surface Surface
	frames  FrameScheduler
	off     *Offscreen
	logger  *log.Logger

	phase      Phase
	ready      bool
	loadErr    error
	width      int
	height     int
	pixelRatio float64

	started   time.Time
	lastX     float64
	lastY     float64
	lastColor geom.Color
	hasColor  bool

	scheduled bool
	frameID   FrameID
	run       int
	strokes   uint64
}

// New returns an engine waiting for imageCount source images.
func New(surface Surface, frames FrameScheduler, imageCount int, opts Options) (*Engine, error) {
	if imageCount <= 0 {
		return nil, ErrNoImages
	}
	if opts.StrokesPerFrame <= 0 {
		opts.StrokesPerFrame = DefaultStrokesPerFrame
	}
	if opts.Background == nil {
		opts.Background = DefaultBackground
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Clock == nil {
		opts.Clock = state.SystemClock{}
	}
	if opts.Session == nil {
		opts.Session = state.NewSession()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Engine{
		opts:    opts,
		surface: surface,
		frames:  frames,
		off:     NewOffscreen(imageCount),
		logger:  logger,
	}
	e.SetPixelRatio(opts.PixelRatio)
	return e, nil
}

// Resize rebuilds both surfaces for the new viewport and restarts. It is
// valid in every phase, including while images are still loading.
func (e *Engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if err := e.surface.Resize(width, height); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	e.width, e.height = width, height
	e.off.Resize(width, height)
	if e.ready {
		e.surface.Fill(e.opts.Background)
	}
	e.logger.Debug("viewport resized", "width", width, "height", height)
	e.Restart()
	return nil
}

func (e *Engine) SetPixelRatio(ratio float64) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	e.pixelRatio = ratio
}

// ImageLoaded stores the decoded image for slot index. When it is the last
// outstanding slot the engine clears the surface, fires OnReady and restarts.
func (e *Engine) ImageLoaded(index int, img image.Image) {
	if index < 0 || index >= e.off.Count() || img == nil {
		e.logger.Warn("ignoring image", "index", index, "nil", img == nil)
		return
	}
	if e.ready {
		return
	}
	e.logger.Debug("image loaded", "index", index, "size", img.Bounds().Size())
	if !e.off.SetImage(index, img) || e.phase == PhaseFailed {
		return
	}

	e.ready = true
	e.surface.Fill(e.opts.Background)
	e.logger.Info("all images loaded", "count", e.off.Count())
	if e.opts.OnReady != nil {
		e.opts.OnReady()
	}
	e.Restart()
}

// ImageFailed records a load failure. The engine will not become ready.
func (e *Engine) ImageFailed(index int, err error) {
	var le *LoadError
	if !errors.As(err, &le) {
		le = &LoadError{Index: index, Err: err}
	}
	e.Stop()
	e.phase = PhaseFailed
	if e.loadErr == nil {
		e.loadErr = le
	}
	e.logger.Error("image failed to load", "index", le.Index, "url", le.URL, "err", le.Err)
	if e.opts.OnError != nil {
		e.opts.OnError(le)
	}
}

// Err returns the first load failure, if any.
func (e *Engine) Err() error { return e.loadErr }

func (e *Engine) Restart() {
	e.Stop()
	e.Start()
}

// Start draws the current image, snapshots it and schedules the stroke loop.
// It does nothing while a frame is already scheduled. Before every image has
// loaded it only records the start time.
func (e *Engine) Start() {
	if e.scheduled {
		return
	}
	drawn, ok := e.off.DrawCurrentImage()
	e.started = e.opts.Clock.Now()
	e.off.Snapshot()
	e.lastX, e.lastY = 0, 0
	e.hasColor = false

	if !ok || e.phase == PhaseFailed {
		return
	}

	e.run++
	e.phase = PhaseRunning
	e.scheduled = true
	e.schedule()
	e.logger.Debug("run started", "run", e.run, "image", drawn)
	if e.opts.OnRestart != nil {
		e.opts.OnRestart(state.Restart{
			Session: e.opts.Session.ID,
			Run:     e.run,
			Image:   drawn,
			Width:   e.width,
			Height:  e.height,
			Time:    e.started,
		})
	}
}

// Stop cancels the pending frame. Calling it more than once is harmless.
func (e *Engine) Stop() {
	if e.scheduled {
		e.frames.CancelFrame(e.frameID)
	}
	e.scheduled = false
	e.frameID = 0
	if e.phase == PhaseRunning {
		e.phase = PhaseStopped
	}
}

func (e *Engine) schedule() {
	run := e.run
	e.frameID = e.frames.RequestFrame(func() { e.frame(run) })
}

func (e *Engine) frame(run int) {
	if !e.scheduled || run != e.run {
		return
	}
	for range e.opts.StrokesPerFrame {
		e.drawOneStroke()
	}
	if e.scheduled && run == e.run {
		e.schedule()
	}
}

func (e *Engine) drawOneStroke() {
	elapsed := float64(e.opts.Clock.Now().Sub(e.started)) / float64(time.Millisecond)
	if elapsed <= 0 {
		elapsed = 1
	}
	sizeModifier := geom.Clamp(500/elapsed, 0.05, 0.3)

	startX, startY := e.lastX, e.lastY
	angle := e.opts.Rand.Float64() * 2 * math.Pi
	maxLength := 0.1 * float64(max(e.width, e.height)) * e.pixelRatio
	length := geom.Clamp(sizeModifier*maxLength, 1, maxLength)

	endX := geom.Clamp(startX+math.Cos(angle)*length, 0, float64(e.width))
	endY := geom.Clamp(startY+math.Sin(angle)*length, 0, float64(e.height))

	points := geom.RasterizeLine(startX, startY, endX, endY)
	c, ok := geom.AverageColor(e.off.Sample(points))
	if !ok && e.hasColor {
		c, ok = e.lastColor, true
	}
	if ok {
		if err := e.surface.StrokeLine(startX, startY, endX, endY, length, c); err != nil {
			e.logger.Debug("stroke failed", "err", err)
		}
		e.lastColor, e.hasColor = c, true
		e.strokes++
		if e.opts.OnStroke != nil {
			e.opts.OnStroke(state.Stroke{
				Session: e.opts.Session.ID,
				Run:     e.run,
				Seq:     e.opts.Session.Next(),
				X0:      startX,
				Y0:      startY,
				X1:      endX,
				Y1:      endY,
				Width:   length,
				Color:   c,
				Time:    e.opts.Clock.Now(),
			})
		}
	}
	e.lastX, e.lastY = endX, endY
}

func (e *Engine) Phase() Phase { return e.phase }

// Ready reports whether every image has loaded.
func (e *Engine) Ready() bool { return e.ready }

// Index is the rotation slot the next restart will draw.
func (e *Engine) Index() int { return e.off.Index() }

func (e *Engine) Size() (width, height int) { return e.width, e.height }

// Run is the number of runs started so far.
func (e *Engine) Run() int { return e.run }

func (e *Engine) Strokes() uint64 { return e.strokes }

// Snapshot returns the pixels strokes currently sample from.
func (e *Engine) Snapshot() []byte { return e.off.Pixels() }

// Frame returns a copy of the visible surface.
func (e *Engine) Frame() image.Image { return e.surface.Image() }

func (e *Engine) Status() state.Status {
	return state.Status{
		Session: e.opts.Session.ID,
		Phase:   e.phase.String(),
		Run:     e.run,
		Image:   e.off.Index(),
		Width:   e.width,
		Height:  e.height,
		Strokes: e.strokes,
		Loaded:  e.off.Loaded(),
		Images:  e.off.Count(),
	}
}
