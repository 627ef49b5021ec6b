package types

import (
	"image"
	"math"
)

// Point is a pixel coordinate in the preprocessed image
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a four-point region ordered top-left, top-right, bottom-right, bottom-left
type Quad [4]Point

// RectQuad builds an axis-aligned quad from a rectangle
func RectQuad(r image.Rectangle) Quad {
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	return Quad{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// TopLeft returns the first point of the quad
func (q Quad) TopLeft() Point { return q[0] }

// CenterY is the midpoint between the top-left and bottom-right y coordinates
func (q Quad) CenterY() float64 {
	return (q[0].Y + q[2].Y) / 2
}

// Valid reports whether every coordinate is a finite number
func (q Quad) Valid() bool {
	for _, p := range q {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// Bounds returns the smallest integer rectangle containing all four points
func (q Quad) Bounds() image.Rectangle {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
