package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"RevealBoard/internal/assets"
	feed "RevealBoard/internal/net"
	"RevealBoard/internal/state"
	"RevealBoard/internal/ui"
)

func (c *CLI) runCommand() *cobra.Command {
	var withFeed bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the animation in a desktop window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			eopts, err := c.engineOptions(cfg)
			if err != nil {
				return err
			}
			fetcher, store, err := c.newFetcher(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := ui.Options{
				Width:           cfg.Viewport.Width,
				Height:          cfg.Viewport.Height,
				URLs:            assets.Expand(cfg.Images.URLs, cfg.Viewport.Width, cfg.Viewport.Height),
				Fetcher:         fetcher,
				Engine:          eopts,
				RestartInterval: cfg.Animation.RestartInterval.Duration,
				RevealDelay:     cfg.Animation.RevealDelay.Duration,
				Logger:          c.Logger,
			}
			if !withFeed {
				return ui.Run(cmd.Context(), opts)
			}

			ln, err := net.Listen("tcp", cfg.Feed.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Feed.Addr, err)
			}
			bound := ln.Addr().String()
			if url, err := feed.ShareURL(bound); err == nil {
				opts.ShareURL = url
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			hub := feed.NewHub(c.Logger)
			opts.Hub = hub
			opts.Serve = func(ctl feed.Controller) {
				hub.Hello = func() *state.Status {
					st, err := ctl.Status(ctx)
					if err != nil {
						return nil
					}
					return &st
				}
				go hub.Run(ctx)
				go c.serveFeed(ctx, ln, feed.NewRouter(hub, ctl, c.Logger))
				if cfg.Feed.Advertise {
					c.advertise(ctx, bound, eopts.Session)
				}
			}
			c.printShare(bound)
			return ui.Run(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&withFeed, "feed", false, "also stream strokes to browsers")

	return cmd
}

func (c *CLI) serveFeed(ctx context.Context, ln net.Listener, h http.Handler) {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		c.Logger.Error("feed server stopped", "err", err)
	}
}

// advertise announces the feed over mDNS until ctx is done.
func (c *CLI) advertise(ctx context.Context, bound string, session *state.Session) {
	port, err := feed.Port(bound)
	if err != nil {
		c.Logger.Warn("mDNS advertisement skipped", "err", err)
		return
	}
	adv, err := feed.Advertise(port, session.ID)
	if err != nil {
		c.Logger.Warn("mDNS advertisement failed", "err", err)
		return
	}
	go func() {
		<-ctx.Done()
		_ = adv.Shutdown()
	}()
}
