package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"RevealBoard/internal/assets"
	"RevealBoard/internal/engine"
	"RevealBoard/internal/export"
	"RevealBoard/internal/state"
)

const (
	formatPNG    = "png"
	formatGIF    = "gif"
	formatPDF    = "pdf"
	formatVector = "vector"
)

type renderOptions struct {
	Width           int
	Height          int
	Frames          int
	FPS             int
	Every           int
	RestartInterval time.Duration
	URLs            []string
	Engine          engine.Options
	Format          string
	Output          string
}

// renderResult is what an offline render produced.
type renderResult struct {
	Final    image.Image
	Captured []image.Image
	// Strokes of the last run only.
	Strokes []state.Stroke
	Runs    int
	Total   uint64
}

func (c *CLI) renderCommand() *cobra.Command {
	var (
		frames int
		fps    int
		every  int
		size   string
		format string
		output string
		images []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the animation offline to PNG, GIF or PDF",
		Long: `Render runs the animation on a simulated clock without opening a window.

The output format follows --format, or the extension of --output:
  png     the last frame
  gif     every --every'th frame, animated
  pdf     every --every'th frame, one page each
  vector  the strokes of the last run as PDF lines`,
		Example: `  revealboard render -o reveal.png
  revealboard render --frames 300 --every 10 -o reveal.gif
  revealboard render --image a.jpg --image b.jpg --size 640x480 -f vector -o strokes.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ro := renderOptions{
				Width:           cfg.Viewport.Width,
				Height:          cfg.Viewport.Height,
				Frames:          frames,
				FPS:             cfg.Animation.FPS,
				Every:           every,
				RestartInterval: cfg.Animation.RestartInterval.Duration,
				Output:          output,
			}
			if fps > 0 {
				ro.FPS = fps
			}
			if size != "" {
				if ro.Width, ro.Height, err = parseSize(size); err != nil {
					return err
				}
			}
			if ro.Format, err = outputFormat(format, output); err != nil {
				return err
			}
			templates := cfg.Images.URLs
			if len(images) > 0 {
				templates = images
			}
			ro.URLs = assets.Expand(templates, ro.Width, ro.Height)
			if ro.Engine, err = c.engineOptions(cfg); err != nil {
				return err
			}

			fetcher, store, err := c.newFetcher(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var res *renderResult
			err = withProgress(cmd.Context(), cmd.ErrOrStderr(), "Rendering "+filepath.Base(output), func(ctx context.Context, report reporter) error {
				var err error
				res, err = render(ctx, fetcher, ro, report)
				return err
			})
			if err != nil {
				return err
			}
			if err := c.writeRender(ro, res); err != nil {
				return err
			}
			printSuccess(c.Out, "Rendered %d frames, %d strokes over %d runs", ro.Frames, res.Total, res.Runs)
			printFile(c.Out, output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 600, "number of frames to simulate")
	cmd.Flags().IntVar(&fps, "fps", 0, "simulated frame rate (default from config)")
	cmd.Flags().IntVar(&every, "every", 6, "capture every n'th frame for gif and pdf")
	cmd.Flags().StringVarP(&size, "size", "s", "", "viewport as WIDTHxHEIGHT (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "png, gif, pdf or vector")
	cmd.Flags().StringVarP(&output, "output", "o", "revealboard.png", "output file")
	cmd.Flags().StringArrayVar(&images, "image", nil, "photo URL or path, repeatable (default from config)")

	return cmd
}

// render drives an engine on a manual clock for ro.Frames frames.
func render(ctx context.Context, fetcher *assets.Fetcher, ro renderOptions, report reporter) (*renderResult, error) {
	if ro.Frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", ro.Frames)
	}
	if ro.FPS <= 0 {
		ro.FPS = 60
	}
	if ro.Every <= 0 {
		ro.Every = 1
	}
	if report == nil {
		report = func(string, int, int) {}
	}

	type loaded struct {
		img image.Image
		err error
	}
	results := make([]loaded, len(ro.URLs))
	var (
		mu    sync.Mutex
		count int
	)
	fetcher.LoadAll(ctx, ro.URLs, func(i int, img image.Image, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = loaded{img, err}
		count++
		report("loading images", count, len(ro.URLs))
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surface := engine.NewGGSurface(ro.Width, ro.Height)
	defer surface.Close()
	frames := &engine.ManualFrames{}
	clock := state.NewManualClock(time.Unix(0, 0))
	res := &renderResult{}

	opts := ro.Engine
	opts.Clock = clock
	opts.OnRestart = func(state.Restart) { res.Strokes = res.Strokes[:0] }
	opts.OnStroke = func(s state.Stroke) { res.Strokes = append(res.Strokes, s) }
	eng, err := engine.New(surface, frames, len(ro.URLs), opts)
	if err != nil {
		return nil, err
	}
	if err := eng.Resize(ro.Width, ro.Height); err != nil {
		return nil, err
	}
	for i, r := range results {
		if r.err != nil {
			eng.ImageFailed(i, &engine.LoadError{Index: i, URL: ro.URLs[i], Err: r.err})
			return nil, eng.Err()
		}
		eng.ImageLoaded(i, r.img)
	}

	step := time.Second / time.Duration(ro.FPS)
	var sinceRestart time.Duration
	for f := 1; f <= ro.Frames; f++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clock.Advance(step)
		sinceRestart += step
		if ro.RestartInterval > 0 && sinceRestart >= ro.RestartInterval {
			eng.Restart()
			sinceRestart = 0
		}
		frames.Fire()
		if f%ro.Every == 0 && (ro.Format == formatGIF || ro.Format == formatPDF) {
			res.Captured = append(res.Captured, eng.Frame())
		}
		report("painting", f, ro.Frames)
	}

	res.Final = eng.Frame()
	res.Runs = eng.Run()
	res.Total = eng.Strokes()
	return res, nil
}

func (c *CLI) writeRender(ro renderOptions, res *renderResult) error {
	f, err := os.Create(ro.Output)
	if err != nil {
		return err
	}
	if err := encodeRender(f, ro, res); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", ro.Output, err)
	}
	return f.Close()
}

func encodeRender(w io.Writer, ro renderOptions, res *renderResult) error {
	switch ro.Format {
	case formatPNG:
		return export.PNG(w, res.Final)
	case formatGIF:
		// GIF delays are in hundredths of a second.
		delay := max(1, 100*ro.Every/max(ro.FPS, 1))
		return export.GIF(w, res.Captured, delay)
	case formatPDF:
		return export.PDF(w, res.Captured)
	case formatVector:
		return export.VectorPDF(w, ro.Width, ro.Height, ro.Engine.Background, res.Strokes)
	}
	return fmt.Errorf("unknown format %q", ro.Format)
}

// outputFormat resolves an explicit format or falls back to the extension
// of output.
func outputFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch format {
	case formatPNG, formatGIF, formatPDF, formatVector:
		return format, nil
	}
	return "", fmt.Errorf("unknown output format %q (want png, gif, pdf or vector)", format)
}

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: %w", s, engine.ErrInvalidSize)
	}
	return w, h, nil
}
