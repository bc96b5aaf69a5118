package export

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RevealBoard/internal/geom"
	"RevealBoard/internal/state"
)

func frame(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	err := PDF(&buf, []image.Image{
		frame(40, 30, color.RGBA{255, 0, 0, 255}),
		frame(40, 30, color.RGBA{0, 0, 255, 255}),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	var single bytes.Buffer
	require.NoError(t, PDF(&single, []image.Image{frame(40, 30, color.White)}))
	assert.Greater(t, buf.Len(), single.Len())
}

func TestPDFRequiresFrames(t *testing.T) {
	assert.ErrorIs(t, PDF(&bytes.Buffer{}, nil), ErrNoFrames)
	assert.ErrorIs(t, GIF(&bytes.Buffer{}, nil, 4), ErrNoFrames)
}

func TestVectorPDF(t *testing.T) {
	var buf bytes.Buffer
	strokes := []state.Stroke{
		{X0: 0, Y0: 0, X1: 10, Y1: 10, Width: 3, Color: geom.Color{R: 10, G: 20, B: 30}},
		{X0: 10, Y0: 10, X1: 20, Y1: 5, Width: 2, Color: geom.Color{R: 200}},
	}
	require.NoError(t, VectorPDF(&buf, 100, 50, color.NRGBA{0x6d, 0x59, 0x7a, 0xff}, strokes))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	assert.Error(t, VectorPDF(&buf, 0, 50, nil, nil))
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, frame(5, 4, color.White)))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 4), img.Bounds())
}

func TestGIF(t *testing.T) {
	var buf bytes.Buffer
	frames := []image.Image{
		frame(6, 6, color.White),
		frame(6, 6, color.Black),
		frame(6, 6, color.RGBA{255, 0, 0, 255}),
	}
	require.NoError(t, GIF(&buf, frames, 5))

	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, []int{5, 5, 5}, anim.Delay)
}
