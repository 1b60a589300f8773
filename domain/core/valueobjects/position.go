package valueobjects

import "math"

// Point is a 2D coordinate. Whether it is screen-space or canvas-space is
// decided by the caller.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a point
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + o
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Scale returns p * f
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// ApproxEqual reports whether both coordinates are within eps.
func (p Point) ApproxEqual(o Point, eps float64) bool {
	return math.Abs(p.X-o.X) <= eps && math.Abs(p.Y-o.Y) <= eps
}

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a size
func NewSize(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// Clamp raises each dimension to at least the given minimum.
func (s Size) Clamp(min Size) Size {
	return Size{Width: math.Max(s.Width, min.Width), Height: math.Max(s.Height, min.Height)}
}
