package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"RevealBoard/internal/cache"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	defaultDelay    = time.Second
	maxImageBytes   = 64 << 20
	loadConcurrency = 4
)

type Options struct {
	Client    *http.Client
	Cache     cache.Cache
	TTL       time.Duration
	Attempts  int
	Delay     time.Duration
	UserAgent string
	Logger    *log.Logger
}

// Fetcher loads photos from http(s) URLs or local paths.
type Fetcher struct {
	client    *http.Client
	cache     cache.Cache
	ttl       time.Duration
	attempts  int
	delay     time.Duration
	userAgent string
	logger    *log.Logger
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		cache:     opts.Cache,
		ttl:       opts.TTL,
		attempts:  opts.Attempts,
		delay:     opts.Delay,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: defaultTimeout}
	}
	if f.cache == nil {
		f.cache = cache.NewNullCache()
	}
	if f.attempts <= 0 {
		f.attempts = defaultAttempts
	}
	if f.delay <= 0 {
		f.delay = defaultDelay
	}
	if f.userAgent == "" {
		f.userAgent = "revealboard"
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	return f
}

// Fetch returns the decoded image at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if !isRemote(url) {
		data, err := os.ReadFile(strings.TrimPrefix(url, "file://"))
		if err != nil {
			return nil, err
		}
		return decode(data)
	}

	key := cache.ImageKey(url)
	if data, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn("cache read failed", "url", url, "err", err)
	} else if ok {
		img, err := decode(data)
		if err == nil {
			f.logger.Debug("image from cache", "url", url)
			return img, nil
		}
		_ = f.cache.Delete(ctx, key)
	}

	var data []byte
	err := Retry(ctx, f.attempts, f.delay, func() error {
		var err error
		data, err = f.get(ctx, url)
		if IsRetryable(err) {
			f.logger.Debug("retrying image", "url", url, "err", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
		f.logger.Warn("cache write failed", "url", url, "err", err)
	}
	f.logger.Debug("image fetched", "url", url, "bytes", len(data))
	return img, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// LoadAll fetches every url concurrently and calls deliver once per url,
// from a worker goroutine. It returns when every url has been delivered.
// Hosts must hand results over to their own loop before touching the engine.
func (f *Fetcher) LoadAll(ctx context.Context, urls []string, deliver func(index int, img image.Image, err error)) {
	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for i, url := range urls {
		g.Go(func() error {
			img, err := f.Fetch(ctx, url)
			deliver(i, img, err)
			return nil
		})
	}
	_ = g.Wait()
}
