// Package cli implements the revealboard command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"RevealBoard/internal/assets"
	"RevealBoard/internal/cache"
	"RevealBoard/internal/config"
	"RevealBoard/internal/engine"
	"RevealBoard/internal/state"
)

const appName = "revealboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the values printed by --version.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer

	configPath string
	noCache    bool
}

func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Out: os.Stdout,
	}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "RevealBoard paints photos one averaged stroke at a time",
		Long:         `RevealBoard rebuilds a rotating set of photos out of short strokes, each colored with the average of the pixels beneath it.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "fetch photos without the cache")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())

	return root
}

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.noCache {
		cfg.Cache.Disabled = true
	}
	return cfg, nil
}

// newFetcher builds the photo fetcher and the cache behind it. The returned
// cache must be closed by the caller.
func (c *CLI) newFetcher(ctx context.Context, cfg config.Config) (*assets.Fetcher, cache.Cache, error) {
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	f := assets.NewFetcher(assets.Options{
		Client:   &http.Client{Timeout: cfg.Images.Timeout.Duration},
		Cache:    store,
		TTL:      cfg.Cache.TTL.Duration,
		Attempts: cfg.Images.Attempts,
		Logger:   c.Logger,
	})
	return f, store, nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch {
	case cfg.Cache.Disabled:
		return cache.NewNullCache(), nil
	case cfg.Cache.RedisAddr != "":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// engineOptions maps the animation settings onto engine options. Callbacks
// are left for the host to fill in.
func (c *CLI) engineOptions(cfg config.Config) (engine.Options, error) {
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		StrokesPerFrame: cfg.Animation.StrokesPerFrame,
		Background:      bg,
		PixelRatio:      cfg.Viewport.PixelRatio,
		Session:         state.NewSession(),
		Logger:          c.Logger,
	}
	if seed := cfg.Animation.Seed; seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	return opts, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/revealboard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
