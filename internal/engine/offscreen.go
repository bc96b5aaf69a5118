package engine

import (
	"image"

	"golang.org/x/image/draw"

	"RevealBoard/internal/geom"
)

// Offscreen holds the source image currently being revealed, scaled to the
// viewport, and the pixel snapshot the strokes sample from.
type Offscreen struct {
	buf    *image.RGBA
	images []image.Image
	loaded []bool
	index  int
	pixels []byte
	width  int
	height int
}

func NewOffscreen(count int) *Offscreen {
	return &Offscreen{
		images: make([]image.Image, count),
		loaded: make([]bool, count),
	}
}

func (o *Offscreen) Resize(width, height int) {
	o.width, o.height = width, height
	o.buf = image.NewRGBA(image.Rect(0, 0, width, height))
}

// SetImage stores a decoded source for slot i. It reports whether every slot
// is now filled.
func (o *Offscreen) SetImage(i int, img image.Image) bool {
	o.images[i] = img
	o.loaded[i] = true
	return o.AllLoaded()
}

func (o *Offscreen) AllLoaded() bool {
	for _, ok := range o.loaded {
		if !ok {
			return false
		}
	}
	return true
}

func (o *Offscreen) Loaded() int {
	n := 0
	for _, ok := range o.loaded {
		if ok {
			n++
		}
	}
	return n
}

// Index is the slot the next DrawCurrentImage call will draw.
func (o *Offscreen) Index() int { return o.index }

func (o *Offscreen) Count() int { return len(o.images) }

// DrawCurrentImage scales the image at the rotation index onto the whole
// buffer and advances the index. Nothing happens until every image has
// loaded.
func (o *Offscreen) DrawCurrentImage() (drawn int, ok bool) {
	if !o.AllLoaded() || o.buf == nil {
		return 0, false
	}
	drawn = o.index
	src := o.images[drawn]
	draw.BiLinear.Scale(o.buf, o.buf.Bounds(), src, src.Bounds(), draw.Src, nil)
	o.index = (o.index + 1) % len(o.images)
	return drawn, true
}

// Snapshot replaces the sampled pixels with a copy of the buffer.
func (o *Offscreen) Snapshot() {
	if o.buf == nil {
		o.pixels = nil
		return
	}
	o.pixels = make([]byte, len(o.buf.Pix))
	copy(o.pixels, o.buf.Pix)
}

// Pixels returns the last snapshot. Callers must not modify it.
func (o *Offscreen) Pixels() []byte { return o.pixels }

// Sample returns the snapshot colors along the rasterized line.
func (o *Offscreen) Sample(points []geom.Point) []geom.Color {
	return geom.SampleColors(o.pixels, o.width, o.height, points)
}
