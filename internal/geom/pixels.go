// Package geom holds the small numeric helpers the stroke renderer is built
// on: line rasterization, RGBA buffer addressing, color averaging and
// clamping.
package geom

// PixelByteOffset returns the byte offsets of the red, green, blue and alpha
// components of pixel (x, y) in a row-major RGBA buffer of the given width.
func PixelByteOffset(x, y, width int) [4]int {
	r := 4 * (y*width + x)
	return [4]int{r, r + 1, r + 2, r + 3}
}

// Clamp bounds value to [lo, hi] as max(lo, min(value, hi)).
func Clamp(value, lo, hi float64) float64 {
	return max(lo, min(value, hi))
}

// SampleColors reads the colors at points from an RGBA buffer. Coordinates
// outside the buffer are pulled onto its nearest edge.
func SampleColors(pix []byte, width, height int, points []Point) []Color {
	if width <= 0 || height <= 0 || len(pix) < 4*width*height {
		return nil
	}
	colors := make([]Color, 0, len(points))
	for _, p := range points {
		x := min(max(p.X, 0), width-1)
		y := min(max(p.Y, 0), height-1)
		off := PixelByteOffset(x, y, width)
		colors = append(colors, Color{
			R: float64(pix[off[0]]),
			G: float64(pix[off[1]]),
			B: float64(pix[off[2]]),
		})
	}
	return colors
}
