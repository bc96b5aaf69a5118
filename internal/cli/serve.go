package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"RevealBoard/internal/assets"
	"RevealBoard/internal/config"
	"RevealBoard/internal/engine"
	"RevealBoard/internal/loop"
	feed "RevealBoard/internal/net"
	"RevealBoard/internal/state"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noAdverts bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the animation headless and stream it to browsers",
		Long: `Serve runs the animation without a window and publishes every stroke over a
websocket. Open the printed address in a browser to watch it being painted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Feed.Addr = addr
			}
			if noAdverts {
				cfg.Feed.Advertise = false
			}
			return c.serve(cmd.Context(), cfg, nil)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noAdverts, "no-mdns", false, "do not advertise the feed over mDNS")

	return cmd
}

// serve runs a headless engine and its feed until ctx is done. When ready is
// not nil it receives the bound listen address.
func (c *CLI) serve(ctx context.Context, cfg config.Config, ready chan<- string) error {
	opts, err := c.engineOptions(cfg)
	if err != nil {
		return err
	}
	fetcher, store, err := c.newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	width, height := cfg.Viewport.Width, cfg.Viewport.Height
	urls := assets.Expand(cfg.Images.URLs, width, height)

	l := loop.New(cfg.Animation.FPS)
	hub := feed.NewHub(c.Logger)
	surface := engine.NewGGSurface(width, height)
	defer surface.Close()

	var eng *engine.Engine
	opts.OnReady = func() {
		l.Every(cfg.Animation.RestartInterval.Duration, eng.Restart)
		st := eng.Status()
		hub.Broadcast(feed.Message{Type: feed.MessageReady, Status: &st})
	}
	opts.OnRestart = func(r state.Restart) {
		hub.Broadcast(feed.Message{Type: feed.MessageRestart, Restart: &r})
	}
	opts.OnStroke = hub.QueueStroke
	eng, err = engine.New(surface, l, len(urls), opts)
	if err != nil {
		return err
	}
	c.Logger.Debug("engine created", "session", opts.Session.ID, "images", len(urls))
	ctl := loopController{loop: l, engine: eng}
	hub.Hello = func() *state.Status {
		st, err := ctl.Status(ctx)
		if err != nil {
			return nil
		}
		return &st
	}

	ln, err := net.Listen("tcp", cfg.Feed.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Feed.Addr, err)
	}
	bound := ln.Addr().String()
	srv := &http.Server{
		Handler:           feed.NewRouter(hub, ctl, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.printShare(bound)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Feed.Advertise {
		c.advertise(gctx, bound, opts.Session)
	}
	g.Go(func() error {
		return l.Run(gctx)
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	l.Post(func() {
		if err := eng.Resize(width, height); err != nil {
			c.Logger.Error("resize", "err", err)
		}
	})
	go fetcher.LoadAll(gctx, urls, func(i int, img image.Image, err error) {
		l.Post(func() {
			if err != nil {
				eng.ImageFailed(i, &engine.LoadError{Index: i, URL: urls[i], Err: err})
				return
			}
			eng.ImageLoaded(i, img)
		})
	})

	if ready != nil {
		ready <- bound
	}
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *CLI) printShare(bound string) {
	url, err := feed.ShareURL(bound)
	if err != nil {
		c.Logger.Warn("no share address", "err", err)
		return
	}
	printSuccess(c.Out, "Feed listening on %s", StyleValue.Render(bound))
	printKeyValue(c.Out, "viewer", StyleLink.Render(url))
}

// loopController runs feed requests on the engine's loop.
type loopController struct {
	loop   *loop.Loop
	engine *engine.Engine
}

func (c loopController) Status(ctx context.Context) (state.Status, error) {
	var st state.Status
	err := c.loop.Do(ctx, func() { st = c.engine.Status() })
	return st, err
}

func (c loopController) Frame(ctx context.Context) (image.Image, error) {
	var img image.Image
	err := c.loop.Do(ctx, func() { img = c.engine.Frame() })
	return img, err
}

func (c loopController) Restart(ctx context.Context) error {
	return c.loop.Do(ctx, c.engine.Restart)
}

var _ feed.Controller = loopController{}
