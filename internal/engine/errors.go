package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned by Resize for non-positive dimensions.
	ErrInvalidSize = errors.New("engine: invalid viewport size")
	// ErrNoImages is returned by New when no image slots are configured.
	ErrNoImages = errors.New("engine: at least one image is required")
)

// LoadError reports a source image that could not be loaded. Once an engine
// has seen a LoadError it never becomes ready.
type LoadError struct {
	Index int
	URL   string
	Err   error
}

func (e *LoadError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("load image %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("load image %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
