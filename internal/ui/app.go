// Package ui is the desktop host: a fyne window that drives the engine from
// its animation tick.
package ui

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"

	"RevealBoard/internal/assets"
	"RevealBoard/internal/engine"
	"RevealBoard/internal/export"
	"RevealBoard/internal/net"
	"RevealBoard/internal/state"
)

type Options struct {
	Title           string
	Width           int
	Height          int
	URLs            []string
	Fetcher         *assets.Fetcher
	Engine          engine.Options
	RestartInterval time.Duration
	RevealDelay     time.Duration
	Logger          *log.Logger

	// Hub, when set, receives every engine event.
	Hub      *net.Hub
	ShareURL string
	// Serve is called once the engine exists, with a controller that is
	// safe to use from other goroutines.
	Serve func(net.Controller)
}

type host struct {
	opts    Options
	ctx     context.Context
	window  fyne.Window
	board   *RevealWidget
	status  *widget.Label
	swatch  *colorSwatch
	surface *engine.GGSurface
	anim    *animator
	engine  *engine.Engine

	// strokes of the current run, for vector export, up to strokeLimit
	strokes     []state.Stroke
	strokeLimit int
	strokesFull bool
}

// maxVectorStrokes bounds the stroke log behind vector export. A default run
// paints about 100k strokes; longer restart intervals keep only the first
// maxVectorStrokes of each run.
const maxVectorStrokes = 250_000

// Run opens the window and blocks until it is closed or ctx is cancelled.
// It returns ctx.Err() when cancellation closed the window.
func Run(ctx context.Context, opts Options) error {
	if opts.Title == "" {
		opts.Title = "RevealBoard"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.RestartInterval <= 0 {
		opts.RestartInterval = engine.DefaultRestartInterval
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = engine.DefaultRevealDelay
	}
	if opts.Engine.Background == nil {
		opts.Engine.Background = engine.DefaultBackground
	}
	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a := app.NewWithID("io.revealboard")
	h := &host{
		opts:    opts,
		ctx:     ctx,
		window:  a.NewWindow(opts.Title),
		board:   NewRevealWidget(opts.Engine.Background),
		status:  widget.NewLabel("Loading images"),
		swatch:  newColorSwatch(opts.Engine.Background),
		surface: engine.NewGGSurface(opts.Width, opts.Height),

		strokeLimit: maxVectorStrokes,
	}
	defer h.surface.Close()
	h.anim = newAnimator(func() { h.board.SetFrame(h.surface.Image()) })

	eopts := opts.Engine
	eopts.Logger = opts.Logger
	eopts.OnReady = h.ready
	eopts.OnRestart = h.restarted
	eopts.OnStroke = h.stroked
	eopts.OnError = h.failed
	eng, err := engine.New(h.surface, h.anim, len(opts.URLs), eopts)
	if err != nil {
		return err
	}
	h.engine = eng

	h.board.OnResize = func(width, height int) {
		h.engine.SetPixelRatio(float64(h.window.Canvas().Scale()))
		if err := h.engine.Resize(width, height); err != nil {
			opts.Logger.Warn("resize ignored", "err", err)
			return
		}
		h.board.SetFrame(h.surface.Image())
	}

	toolbar := newToolbar(toolbarActions{
		Restart:      h.engine.Restart,
		SavePNG:      h.savePNG,
		ExportPDF:    h.exportPDF,
		ExportVector: h.exportVector,
	}, h.status, h.swatch, opts.ShareURL)
	h.window.SetContent(container.NewBorder(toolbar, nil, nil, nil, h.board))
	h.window.Resize(fyne.NewSize(float32(opts.Width), float32(opts.Height)))

	a.Lifecycle().SetOnStarted(func() {
		h.anim.Start()
		go quitOnCancel(parent, ctx, a.Quit)
		go h.load()
		if opts.Serve != nil {
			opts.Serve(controller{h.engine})
		}
	})
	a.Lifecycle().SetOnStopped(func() {
		h.anim.Stop()
		cancel()
	})

	h.window.ShowAndRun()
	return parent.Err()
}

// quitOnCancel waits for running to end and calls quit on the UI thread if
// parent was cancelled while the window was still open.
func quitOnCancel(parent, running context.Context, quit func()) {
	<-running.Done()
	if parent.Err() != nil {
		fyne.Do(quit)
	}
}

func (h *host) load() {
	h.opts.Fetcher.LoadAll(h.ctx, h.opts.URLs, func(i int, img image.Image, err error) {
		fyne.Do(func() {
			if err != nil {
				h.engine.ImageFailed(i, &engine.LoadError{Index: i, URL: h.opts.URLs[i], Err: err})
				return
			}
			h.engine.ImageLoaded(i, img)
			if !h.engine.Ready() {
				h.status.SetText(fmt.Sprintf("Loading images (%d of %d)", h.engine.Status().Loaded, len(h.opts.URLs)))
			}
		})
	})
}

func (h *host) ready() {
	h.opts.Logger.Info("revealing", "delay", h.opts.RevealDelay)
	time.AfterFunc(h.opts.RevealDelay, func() { fyne.Do(h.board.Reveal) })
	go h.restartEvery(h.opts.RestartInterval)
	if h.opts.Hub != nil {
		st := h.engine.Status()
		h.opts.Hub.Broadcast(net.Message{Type: net.MessageReady, Status: &st})
	}
}

func (h *host) restartEvery(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			fyne.Do(h.engine.Restart)
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *host) restarted(r state.Restart) {
	h.strokes = h.strokes[:0]
	h.strokesFull = false
	h.status.SetText(fmt.Sprintf("Run %d, image %d of %d", r.Run, r.Image+1, len(h.opts.URLs)))
	if h.opts.Hub != nil {
		h.opts.Hub.Broadcast(net.Message{Type: net.MessageRestart, Restart: &r})
	}
}

func (h *host) stroked(s state.Stroke) {
	if len(h.strokes) < h.strokeLimit {
		h.strokes = append(h.strokes, s)
	} else if !h.strokesFull {
		h.strokesFull = true
		h.opts.Logger.Warn("stroke log full, vector export keeps the first strokes of this run", "limit", h.strokeLimit)
	}
	h.swatch.SetColor(s.Color)
	if h.opts.Hub != nil {
		h.opts.Hub.QueueStroke(s)
	}
}

func (h *host) failed(err error) {
	h.status.SetText("Loading failed")
	dialog.ShowError(err, h.window)
}

func (h *host) save(name string, write func(io.Writer) error) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, h.window)
			return
		}
		if wc == nil {
			return
		}
		defer wc.Close()
		if err := write(wc); err != nil {
			h.opts.Logger.Error("export failed", "file", wc.URI().Name(), "err", err)
			dialog.ShowError(err, h.window)
			return
		}
		h.status.SetText("Saved " + wc.URI().Name())
	}, h.window)
	d.SetFileName(name)
	d.Show()
}

func (h *host) savePNG() {
	frame := h.surface.Image()
	h.save("revealboard.png", func(w io.Writer) error { return export.PNG(w, frame) })
}

func (h *host) exportPDF() {
	frame := h.surface.Image()
	h.save("revealboard.pdf", func(w io.Writer) error { return export.PDF(w, []image.Image{frame}) })
}

func (h *host) exportVector() {
	width, height := h.engine.Size()
	strokes := append([]state.Stroke(nil), h.strokes...)
	bg := h.opts.Engine.Background
	h.save("revealboard-strokes.pdf", func(w io.Writer) error {
		return export.VectorPDF(w, width, height, bg, strokes)
	})
}

// controller marshals feed requests onto the UI goroutine.
type controller struct {
	engine *engine.Engine
}

func (c controller) Status(context.Context) (state.Status, error) {
	var st state.Status
	fyne.DoAndWait(func() { st = c.engine.Status() })
	return st, nil
}

func (c controller) Frame(context.Context) (image.Image, error) {
	var img image.Image
	fyne.DoAndWait(func() { img = c.engine.Frame() })
	return img, nil
}

func (c controller) Restart(context.Context) error {
	fyne.DoAndWait(c.engine.Restart)
	return nil
}
