package export

import (
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

func PNG(w io.Writer, frame image.Image) error {
	return png.Encode(w, frame)
}

// GIF writes frames as a looping animation. delay is in hundredths of a
// second.
func GIF(w io.Writer, frames []image.Image, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	anim := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		b := frame.Bounds()
		p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
		draw.FloydSteinberg.Draw(p, p.Bounds(), frame, b.Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}
