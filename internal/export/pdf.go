// Package export writes rendered frames and stroke logs to PDF, PNG and GIF.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"RevealBoard/internal/state"
)

var ErrNoFrames = errors.New("export: no frames")

// PDF writes one page per frame. Pages are sized to the frame, one point
// per pixel.
func PDF(w io.Writer, frames []image.Image) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	first := frames[0].Bounds()
	p := newDocument(float64(first.Dx()), float64(first.Dy()))

	for i, frame := range frames {
		b := frame.Bounds()
		size := gofpdf.SizeType{Wd: float64(b.Dx()), Ht: float64(b.Dy())}
		p.AddPageFormat("P", size)

		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		name := fmt.Sprintf("frame-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		p.RegisterImageOptionsReader(name, opts, &buf)
		p.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")
	}
	return p.Output(w)
}

// VectorPDF redraws strokes as round-capped vector lines on a single page
// of the given pixel size.
func VectorPDF(w io.Writer, width, height int, background color.Color, strokes []state.Stroke) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("export: invalid page size %dx%d", width, height)
	}
	p := newDocument(float64(width), float64(height))
	p.AddPage()

	if background != nil {
		r, g, b := rgb8(background)
		p.SetFillColor(r, g, b)
		p.Rect(0, 0, float64(width), float64(height), "F")
	}

	p.SetLineCapStyle("round")
	for _, st := range strokes {
		c := st.Color.NRGBA()
		p.SetDrawColor(int(c.R), int(c.G), int(c.B))
		p.SetLineWidth(st.Width)
		p.Line(st.X0, st.Y0, st.X1, st.Y1)
	}
	return p.Output(w)
}

func newDocument(width, height float64) *gofpdf.Fpdf {
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.SetCreator("RevealBoard", true)
	return p
}

func rgb8(c color.Color) (r, g, b int) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return int(n.R), int(n.G), int(n.B)
}
