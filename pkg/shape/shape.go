// Package shape defines the geometric primitives that silhouette
// templates are generated from. All dimensions are in meters and all
// shapes are centered on the template origin.
package shape

import (
	"errors"
	"fmt"
	"math"
)

// Shape validation errors.
var (
	ErrInvalidPrimitive = errors.New("invalid primitive")
)

// Point is a 2D point in physical coordinates (meters).
type Point struct {
	X, Y float64
}

// Shape is a single silhouette primitive. The shape set is closed:
// Circle, Rectangle and Hexagon are the only implementations, and
// rasterization handles them exhaustively by type switch.
type Shape interface {
	// Validate checks the shape parameters.
	Validate() error

	// Extent returns the axis-aligned bounding extent (width, height)
	// in meters, centered on the origin.
	Extent() (w, h float64)

	// Kind returns a stable short tag used for layer file names and
	// metadata descriptors.
	Kind() string

	// RotationalSymmetry returns the order of rotational symmetry
	// around the origin (360 for a circle).
	RotationalSymmetry() int
}

// Circle is a filled disk of the given diameter, centered on the origin.
type Circle struct {
	Diameter float64
}

// Validate checks the circle parameters.
func (c Circle) Validate() error {
	if c.Diameter <= 0 {
		return fmt.Errorf("%w: circle diameter must be positive, got %g", ErrInvalidPrimitive, c.Diameter)
	}
	return nil
}

// Extent returns the bounding extent of the circle.
func (c Circle) Extent() (float64, float64) {
	return c.Diameter, c.Diameter
}

// Kind returns "circle".
func (c Circle) Kind() string { return "circle" }

// RotationalSymmetry returns 360 (full rotational symmetry).
func (c Circle) RotationalSymmetry() int { return 360 }

// Rectangle is an axis-aligned filled rectangle centered on the origin.
type Rectangle struct {
	Width  float64
	Height float64
}

// Validate checks the rectangle parameters.
func (r Rectangle) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: rectangle dimensions must be positive, got %gx%g", ErrInvalidPrimitive, r.Width, r.Height)
	}
	return nil
}

// Extent returns the bounding extent of the rectangle.
func (r Rectangle) Extent() (float64, float64) {
	return r.Width, r.Height
}

// Kind returns "rect".
func (r Rectangle) Kind() string { return "rect" }

// RotationalSymmetry returns 4 for a square, 2 otherwise.
func (r Rectangle) RotationalSymmetry() int {
	if math.Abs(r.Width-r.Height) < 1e-9 {
		return 4
	}
	return 2
}

// Vertices returns the four corners, counter-clockwise.
func (r Rectangle) Vertices() []Point {
	hw, hh := 0.5*r.Width, 0.5*r.Height
	return []Point{
		{-hw, -hh},
		{hw, -hh},
		{hw, hh},
		{-hw, hh},
	}
}

// Hexagon is a regular hexagon centered on the origin. Diameter is
// measured corner to corner. Rotation is in degrees; 0 is pointed-top,
// 30 puts a flat side down. Rotation is reduced modulo 60 since the
// hexagon is 6-fold symmetric.
type Hexagon struct {
	Diameter float64
	Rotation float64
}

// NewHexagon creates a hexagon from its corner-to-corner diameter.
func NewHexagon(diameter, rotationDeg float64) Hexagon {
	return Hexagon{Diameter: diameter, Rotation: normalizeHexRotation(rotationDeg)}
}

// HexagonFromParallelSides creates a hexagon from the distance between
// two parallel sides (flat-to-flat): diameter = 2/sqrt(3) * size.
func HexagonFromParallelSides(size, rotationDeg float64) Hexagon {
	return NewHexagon(2/math.Sqrt(3)*size, rotationDeg)
}

func normalizeHexRotation(deg float64) float64 {
	deg = math.Mod(deg, 60)
	if deg < 0 {
		deg += 60
	}
	return deg
}

// Validate checks the hexagon parameters.
func (h Hexagon) Validate() error {
	if h.Diameter <= 0 {
		return fmt.Errorf("%w: hexagon diameter must be positive, got %g", ErrInvalidPrimitive, h.Diameter)
	}
	return nil
}

// Vertices returns the six corners rotated by Rotation degrees.
// The unrotated first vertex sits on the vertical axis (pointed top).
func (h Hexagon) Vertices() []Point {
	radius := 0.5 * h.Diameter
	pts := make([]Point, 6)
	for i := range pts {
		angle := (h.Rotation + float64(i)*60) * math.Pi / 180
		pts[i] = Point{
			X: radius * math.Sin(angle),
			Y: radius * math.Cos(angle),
		}
	}
	return pts
}

// Extent returns the axis-aligned bounding box of the rotated vertices.
func (h Hexagon) Extent() (float64, float64) {
	var maxX, maxY float64
	for _, p := range h.Vertices() {
		maxX = math.Max(maxX, math.Abs(p.X))
		maxY = math.Max(maxY, math.Abs(p.Y))
	}
	// Vertices come in antipodal pairs, so the box is origin-centered.
	return 2 * maxX, 2 * maxY
}

// Kind returns "hex".
func (h Hexagon) Kind() string { return "hex" }

// RotationalSymmetry returns 6.
func (h Hexagon) RotationalSymmetry() int { return 6 }

// UnionExtent returns the bounding extent covering all given shapes.
func UnionExtent(shapes []Shape) (w, h float64) {
	for _, s := range shapes {
		sw, sh := s.Extent()
		w = math.Max(w, sw)
		h = math.Max(h, sh)
	}
	return w, h
}
