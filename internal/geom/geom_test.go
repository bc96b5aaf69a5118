package geom

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterizeLineLength(t *testing.T) {
	cases := []struct {
		name           string
		sx, sy, ex, ey float64
		want           int
	}{
		{"forward", 0, 0, 10, 5, 10},
		{"reverse", 10, 0, 0, 5, 10},
		{"fractional", 0.5, 1, 2.2, 3, 2},
		{"fractional same column", 0.1, 0, 0.9, 4, 0},
		{"vertical", 4, 0, 4, 10, 0},
		{"point", 3, 3, 3, 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points := RasterizeLine(tc.sx, tc.sy, tc.ex, tc.ey)
			assert.Len(t, points, tc.want)
			want := int(math.Floor(math.Max(tc.sx, tc.ex)) - math.Floor(math.Min(tc.sx, tc.ex)))
			assert.Len(t, points, want)
		})
	}
}

func TestRasterizeLineYWithinEndpoints(t *testing.T) {
	lines := [][4]float64{
		{0, 0, 10, 5},
		{10, 0, 0, 10},
		{2.5, 0, 0.5, 10},
		{0.5, 10, 5.5, 0},
		{0, 7.5, 30, 7.5},
		{99.9, 99.9, 0, 0},
	}
	for _, l := range lines {
		points := RasterizeLine(l[0], l[1], l[2], l[3])
		lo := math.Floor(math.Min(l[1], l[3]))
		hi := math.Floor(math.Max(l[1], l[3]))
		for _, p := range points {
			assert.GreaterOrEqual(t, float64(p.Y), lo, "line %v point %v", l, p)
			assert.LessOrEqual(t, float64(p.Y), hi, "line %v point %v", l, p)
		}
	}
}

func TestRasterizeLineColumns(t *testing.T) {
	points := RasterizeLine(0, 0, 4, 4)
	require.Len(t, points, 4)
	for i, p := range points {
		assert.Equal(t, Point{X: i, Y: i}, p)
	}

	// Direction follows the original endpoints.
	points = RasterizeLine(4, 0, 0, 4)
	require.Len(t, points, 4)
	assert.Equal(t, Point{X: 0, Y: 4}, points[0])
	assert.Equal(t, Point{X: 3, Y: 1}, points[3])
}

func TestPixelByteOffset(t *testing.T) {
	assert.Equal(t, [4]int{0, 1, 2, 3}, PixelByteOffset(0, 0, 10))
	assert.Equal(t, [4]int{4, 5, 6, 7}, PixelByteOffset(1, 0, 10))
	assert.Equal(t, [4]int{48, 49, 50, 51}, PixelByteOffset(2, 1, 10))
}

func TestAverageColor(t *testing.T) {
	c := Color{R: 12, G: 200, B: 7}
	avg, ok := AverageColor([]Color{c, c, c})
	require.True(t, ok)
	assert.Equal(t, c, avg)

	avg, ok = AverageColor([]Color{{0, 0, 0}, {10, 10, 10}})
	require.True(t, ok)
	assert.Equal(t, Color{R: 5, G: 5, B: 5}, avg)

	_, ok = AverageColor(nil)
	assert.False(t, ok)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3.0, Clamp(5, 0, 3))
	assert.Equal(t, 0.0, Clamp(-1, 0, 3))
	assert.Equal(t, 2.0, Clamp(2, 0, 3))
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := Color{R: 255, G: 127.6, B: -3}.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(128*0x101), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, Color{R: 255, G: 127.6, B: -3}.NRGBA())
}

func TestSampleColors(t *testing.T) {
	pix := make([]byte, 4*2*2)
	copy(pix[PixelByteOffset(1, 1, 2)[0]:], []byte{9, 8, 7, 255})

	colors := SampleColors(pix, 2, 2, []Point{{1, 1}, {2, 2}, {0, 0}})
	require.Len(t, colors, 3)
	assert.Equal(t, Color{R: 9, G: 8, B: 7}, colors[0])
	assert.Equal(t, Color{R: 9, G: 8, B: 7}, colors[1], "edge points clamp into the buffer")
	assert.Equal(t, Color{}, colors[2])

	assert.Nil(t, SampleColors(pix[:3], 2, 2, []Point{{0, 0}}))
}
