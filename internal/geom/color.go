package geom

import (
	"image/color"
	"math"
)

// Color holds channel intensities in [0,255]. Averages keep their fractional
// part until the color is handed to a renderer.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var _ color.Color = Color{}

// RGBA implements color.Color. Colors are always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return uint32(channel(c.R)) * 0x101, uint32(channel(c.G)) * 0x101, uint32(channel(c.B)) * 0x101, 0xffff
}

// NRGBA rounds the channels to 8 bits.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: 0xff}
}

func channel(v float64) uint8 {
	return uint8(math.Round(Clamp(v, 0, 255)))
}

// AverageColor returns the per-channel mean of colors. ok is false when
// colors is empty.
func AverageColor(colors []Color) (avg Color, ok bool) {
	if len(colors) == 0 {
		return Color{}, false
	}
	for _, c := range colors {
		avg.R += c.R
		avg.G += c.G
		avg.B += c.B
	}
	n := float64(len(colors))
	avg.R /= n
	avg.G /= n
	avg.B /= n
	return avg, true
}
