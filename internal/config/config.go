// Package config loads RevealBoard settings from a TOML file. Every field has
// a default, so an empty or missing file yields a working configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"RevealBoard/internal/assets"
	"RevealBoard/internal/engine"
)

type Config struct {
	Viewport  Viewport  `toml:"viewport"`
	Animation Animation `toml:"animation"`
	Images    Images    `toml:"images"`
	Cache     Cache     `toml:"cache"`
	Feed      Feed      `toml:"feed"`
}

type Viewport struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	PixelRatio float64 `toml:"pixel_ratio"`
}

type Animation struct {
	StrokesPerFrame int      `toml:"strokes_per_frame"`
	RestartInterval Duration `toml:"restart_interval"`
	RevealDelay     Duration `toml:"reveal_delay"`
	FPS             int      `toml:"fps"`
	Background      string   `toml:"background"`
	// Seed fixes the stroke angles. Zero picks a random seed.
	Seed uint64 `toml:"seed"`
}

type Images struct {
	// URLs may contain {width} and {height}. Entries without an http(s)
	// scheme are read from disk.
	URLs     []string `toml:"urls"`
	Timeout  Duration `toml:"timeout"`
	Attempts int      `toml:"attempts"`
}

type Cache struct {
	Disabled      bool     `toml:"disabled"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

type Feed struct {
	Addr      string `toml:"addr"`
	Advertise bool   `toml:"advertise"`
}

// Duration is a time.Duration written as a string such as "12.5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Viewport: Viewport{Width: 1024, Height: 768, PixelRatio: 1},
		Animation: Animation{
			StrokesPerFrame: engine.DefaultStrokesPerFrame,
			RestartInterval: Duration{engine.DefaultRestartInterval},
			RevealDelay:     Duration{engine.DefaultRevealDelay},
			FPS:             60,
			Background:      "#6d597a",
		},
		Images: Images{
			URLs:     append([]string(nil), assets.DefaultTemplates...),
			Timeout:  Duration{30 * time.Second},
			Attempts: 3,
		},
		Cache: Cache{TTL: Duration{30 * 24 * time.Hour}},
		Feed:  Feed{Addr: ":8888", Advertise: true},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every setting that cannot be used.
func (c Config) Validate() error {
	var errs []error
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport %dx%d must be positive", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Viewport.PixelRatio <= 0 {
		errs = append(errs, errors.New("viewport.pixel_ratio must be positive"))
	}
	if c.Animation.StrokesPerFrame <= 0 {
		errs = append(errs, errors.New("animation.strokes_per_frame must be positive"))
	}
	if c.Animation.RestartInterval.Duration <= 0 {
		errs = append(errs, errors.New("animation.restart_interval must be positive"))
	}
	if c.Animation.FPS <= 0 {
		errs = append(errs, errors.New("animation.fps must be positive"))
	}
	if _, err := c.BackgroundColor(); err != nil {
		errs = append(errs, err)
	}
	if c.Images.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("images.timeout must be positive"))
	}
	if len(c.Images.URLs) == 0 {
		errs = append(errs, errors.New("images.urls must not be empty"))
	}
	return errors.Join(errs...)
}

// BackgroundColor parses Animation.Background.
func (c Config) BackgroundColor() (color.Color, error) {
	cc, err := colorful.Hex(c.Animation.Background)
	if err != nil {
		return nil, fmt.Errorf("animation.background %q: %w", c.Animation.Background, err)
	}
	r, g, b := cc.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// WriteFile writes c to path, refusing to overwrite an existing file.
func (c Config) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
