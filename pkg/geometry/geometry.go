package geometry

import "math"

// Point2D is a position in image pixels, origin at the top-left corner.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// QuadCorners are the four corners of a detected QR code, clockwise in image
// coordinates. Convexity is not checked.
type QuadCorners struct {
	TopLeft     Point2D `json:"top_left"`
	TopRight    Point2D `json:"top_right"`
	BottomRight Point2D `json:"bottom_right"`
	BottomLeft  Point2D `json:"bottom_left"`
}

func Distance(a, b Point2D) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Points returns the corners in detector order.
func (q QuadCorners) Points() [4]Point2D {
	return [4]Point2D{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// AxisExtents returns the horizontal span of the top edge and the vertical
// span of the left edge.
func (q QuadCorners) AxisExtents() (width, height float64) {
	width = math.Abs(q.TopRight.X - q.TopLeft.X)
	height = math.Abs(q.BottomLeft.Y - q.TopLeft.Y)
	return width, height
}

// EdgeLengths returns top, right, bottom and left edge lengths.
func (q QuadCorners) EdgeLengths() [4]float64 {
	p := q.Points()
	var lengths [4]float64
	for i := range p {
		lengths[i] = Distance(p[i], p[(i+1)%4])
	}
	return lengths
}

// QuadFromPoints builds corners from a TL, TR, BR, BL ordered slice of [x, y]
// pairs, as emitted by the detector service. ok is false when the slice does
// not hold exactly four pairs.
func QuadFromPoints(points [][]float64) (QuadCorners, bool) {
	if len(points) != 4 {
		return QuadCorners{}, false
	}
	var p [4]Point2D
	for i, pt := range points {
		if len(pt) != 2 {
			return QuadCorners{}, false
		}
		p[i] = Point2D{X: pt[0], Y: pt[1]}
	}
	return QuadCorners{TopLeft: p[0], TopRight: p[1], BottomRight: p[2], BottomLeft: p[3]}, true
}

func IsFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
