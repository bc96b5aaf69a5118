package geom

import "math"

// Point is a rasterized pixel coordinate.
type Point struct {
	X, Y int
}

// RasterizeLine returns one point per integer column between the two
// endpoints. Columns run from floor(min x) up to floor(max x), the upper
// bound excluded, so a vertical line yields no points at all.
//
// y follows the line through the given endpoints in their original order and
// is kept inside the endpoints' y-range before flooring.
func RasterizeLine(startX, startY, endX, endY float64) []Point {
	deltaX := endX - startX
	deltaY := endY - startY

	lo := math.Floor(math.Min(startX, endX))
	hi := math.Floor(math.Max(startX, endX))
	if deltaX == 0 || hi <= lo {
		return nil
	}

	minY := math.Min(startY, endY)
	maxY := math.Max(startY, endY)

	points := make([]Point, 0, int(hi-lo))
	for x := lo; x < hi; x++ {
		y := startY + deltaY*(x-startX)/deltaX
		y = Clamp(y, minY, maxY)
		points = append(points, Point{X: int(x), Y: int(math.Floor(y))})
	}
	return points
}
