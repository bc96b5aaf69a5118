package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RevealBoard/internal/cache"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExpand(t *testing.T) {
	urls := Expand(DefaultTemplates, 800, 600)
	assert.Equal(t, []string{
		"https://picsum.photos/id/95/800/600",
		"https://picsum.photos/id/545/800/600",
		"https://picsum.photos/id/354/800/600",
		"https://picsum.photos/id/154/800/600",
	}, urls)
	assert.Equal(t, []string{"a.png"}, Expand([]string{"a.png"}, 1, 1))
}

func TestFetchRemote(t *testing.T) {
	body := pngBytes(t, 3, 2, color.RGBA{10, 20, 30, 255})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "revealboard", r.Header.Get("User-Agent"))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	f := NewFetcher(Options{Cache: c, Delay: time.Millisecond})

	img, err := f.Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	// Second fetch is served from the cache.
	_, err = f.Fetch(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	body := pngBytes(t, 1, 1, color.White)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(Options{Delay: time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(Options{Delay: time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(Options{Attempts: 2, Delay: time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchRejectsNonImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	_, err := NewFetcher(Options{}).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4, color.RGBA{255, 0, 0, 255}), 0o644))

	f := NewFetcher(Options{})
	img, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})

	_, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadAllDeliversEveryIndex(t *testing.T) {
	dir := t.TempDir()
	var urls []string
	for i, c := range []color.Color{color.White, color.Black, color.White} {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		require.NoError(t, os.WriteFile(path, pngBytes(t, 2, 2, c), 0o644))
		urls = append(urls, path)
	}
	urls = append(urls, filepath.Join(dir, "missing.png"))

	var mu sync.Mutex
	got := map[int]error{}
	NewFetcher(Options{}).LoadAll(context.Background(), urls, func(i int, img image.Image, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			assert.NotNil(t, img)
		}
		got[i] = err
	})

	require.Len(t, got, 4)
	assert.NoError(t, got[0])
	assert.NoError(t, got[1])
	assert.NoError(t, got[2])
	assert.Error(t, got[3])
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, 3, time.Hour, func() error {
		calls++
		return &RetryableError{Err: ErrNetwork}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
