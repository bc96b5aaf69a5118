package config

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RevealBoard/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "revealboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 133, cfg.Animation.StrokesPerFrame)
	assert.Equal(t, engine.DefaultRestartInterval, cfg.Animation.RestartInterval.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Animation.RevealDelay.Duration)
	assert.Len(t, cfg.Images.URLs, 4)

	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x6d, G: 0x59, B: 0x7a, A: 0xff}, bg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[viewport]
width = 320
height = 200

[animation]
restart_interval = "5s"
background = "#ffffff"
seed = 42

[images]
urls = ["a.png", "b.png"]

[cache]
redis_addr = "localhost:6379"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 320, cfg.Viewport.Width)
	assert.Equal(t, 1.0, cfg.Viewport.PixelRatio)
	assert.Equal(t, 5*time.Second, cfg.Animation.RestartInterval.Duration)
	assert.Equal(t, uint64(42), cfg.Animation.Seed)
	assert.Equal(t, 133, cfg.Animation.StrokesPerFrame)
	assert.Equal(t, []string{"a.png", "b.png"}, cfg.Images.URLs)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "[viewport]\ndepth = 3\n",
		"bad duration":  "[animation]\nrestart_interval = \"soon\"\n",
		"bad color":     "[animation]\nbackground = \"purple\"\n",
		"zero viewport": "[viewport]\nwidth = 0\n",
		"no images":     "[images]\nurls = []\n",
		"zero timeout":  "[images]\ntimeout = \"0s\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))
	assert.Contains(t, buf.String(), "strokes_per_frame = 133")

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, Default().WriteFile(path))
	assert.Error(t, Default().WriteFile(path), "existing files are kept")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
