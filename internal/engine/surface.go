package engine

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"
)

// Surface is the visible drawing target. Implementations need not be safe for
// concurrent use; the engine calls them from its host loop only.
type Surface interface {
	Resize(width, height int) error
	Fill(c color.Color)
	// StrokeLine draws a round-capped line of the given width.
	StrokeLine(x0, y0, x1, y1, width float64, c color.Color) error
	Image() image.Image
}

// GGSurface renders on a gg software context.
type GGSurface struct {
	dc *gg.Context
}

func NewGGSurface(width, height int) *GGSurface {
	return &GGSurface{dc: gg.NewContext(max(width, 1), max(height, 1))}
}

func (s *GGSurface) Resize(width, height int) error {
	return s.dc.Resize(width, height)
}

func (s *GGSurface) Fill(c color.Color) {
	s.dc.ClearWithColor(gg.FromColor(c))
}

func (s *GGSurface) StrokeLine(x0, y0, x1, y1, width float64, c color.Color) error {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.DrawLine(x0, y0, x1, y1)
	return s.dc.Stroke()
}

// Image returns a copy of the current pixels.
func (s *GGSurface) Image() image.Image {
	_ = s.dc.FlushGPU()
	return s.dc.Image()
}

func (s *GGSurface) Close() error {
	return s.dc.Close()
}
