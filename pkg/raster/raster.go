// Package raster renders shape primitives into grayscale silhouette
// layers at a pixel scale derived from the virtual camera parameters.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/Faultbox/silhouette-tools/pkg/shape"
)

// Canvas margin: 5% of the content size per side, at least 2 pixels.
const (
	marginFraction = 0.05
	marginMinPx    = 2.0
)

// Magic constant for approximating a quarter circle with one cubic Bezier.
const bezierCircleK = 0.5519150244935105

// Canvas describes the target raster: its pixel dimensions and the
// pixels-per-meter scale. Physical coordinates are origin-centered;
// the origin maps to the canvas center.
type Canvas struct {
	Width  int
	Height int
	PPM    float64
}

// PixelsPerMeter computes the raster scale from the virtual camera:
// focal length in pixels divided by the distance between the virtual
// plane and the object's top plane.
func PixelsPerMeter(focalLengthPx, planeDistance, objectHeight float64) (float64, error) {
	if focalLengthPx <= 0 {
		return 0, fmt.Errorf("focal length must be positive, got %g", focalLengthPx)
	}
	dist := planeDistance - objectHeight
	if dist <= 0 {
		return 0, fmt.Errorf("object height %g must be smaller than the plane distance %g", objectHeight, planeDistance)
	}
	return focalLengthPx / dist, nil
}

// NewCanvas sizes a canvas to the union bounding extent of the given
// shapes plus margin.
func NewCanvas(shapes []shape.Shape, ppm float64) (Canvas, error) {
	if len(shapes) == 0 {
		return Canvas{}, fmt.Errorf("cannot size a canvas for zero shapes")
	}
	if ppm <= 0 {
		return Canvas{}, fmt.Errorf("pixels-per-meter scale must be positive, got %g", ppm)
	}

	w, h := shape.UnionExtent(shapes)
	wpx, hpx := w*ppm, h*ppm

	mx := math.Max(marginMinPx, marginFraction*wpx)
	my := math.Max(marginMinPx, marginFraction*hpx)

	return Canvas{
		Width:  int(math.Ceil(wpx + 2*mx)),
		Height: int(math.Ceil(hpx + 2*my)),
		PPM:    ppm,
	}, nil
}

// Center returns the canvas center in pixel coordinates.
func (c Canvas) Center() (x, y float64) {
	return 0.5 * float64(c.Width), 0.5 * float64(c.Height)
}

// pixel maps a physical point to pixel coordinates.
func (c Canvas) pixel(p shape.Point) (x, y float64) {
	cx, cy := c.Center()
	return cx + p.X*c.PPM, cy + p.Y*c.PPM
}

// Layer is the raster output for a single primitive: a filled
// silhouette mask and an outline image whose pixel values encode the
// edge normal orientation (0..255 over a full turn).
type Layer struct {
	Name       string
	Silhouette *image.Gray
	Gradients  *image.Gray
}

// Rasterize renders one primitive onto a fresh layer. It is a pure
// function of (shape, canvas).
func Rasterize(s shape.Shape, c Canvas) (*Layer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	layer := &Layer{
		Name:       s.Kind(),
		Silhouette: image.NewGray(image.Rect(0, 0, c.Width, c.Height)),
		Gradients:  image.NewGray(image.Rect(0, 0, c.Width, c.Height)),
	}

	switch s := s.(type) {
	case shape.Circle:
		c.fillCircle(layer.Silhouette, s)
		c.outlineCircle(layer.Gradients, s)
	case shape.Rectangle:
		c.fillPolygon(layer.Silhouette, s.Vertices())
		c.outlinePolygon(layer.Gradients, s.Vertices())
	case shape.Hexagon:
		c.fillPolygon(layer.Silhouette, s.Vertices())
		c.outlinePolygon(layer.Gradients, s.Vertices())
	default:
		return nil, fmt.Errorf("%w: unsupported shape type %T", shape.ErrInvalidPrimitive, s)
	}

	return layer, nil
}

// drawMask runs the vector rasterizer and transfers the coverage mask
// into the grayscale destination.
func drawMask(dst *image.Gray, z *vector.Rasterizer) {
	mask := image.NewAlpha(dst.Bounds())
	z.DrawOp = draw.Src
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	// Alpha and Gray share the one-byte-per-pixel layout.
	for i, v := range mask.Pix {
		if v > dst.Pix[i] {
			dst.Pix[i] = v
		}
	}
}

func (c Canvas) fillCircle(dst *image.Gray, s shape.Circle) {
	cx, cy := c.pixel(shape.Point{})
	r := 0.5 * s.Diameter * c.PPM
	k := bezierCircleK * r

	z := vector.NewRasterizer(c.Width, c.Height)
	z.MoveTo(float32(cx+r), float32(cy))
	z.CubeTo(float32(cx+r), float32(cy+k), float32(cx+k), float32(cy+r), float32(cx), float32(cy+r))
	z.CubeTo(float32(cx-k), float32(cy+r), float32(cx-r), float32(cy+k), float32(cx-r), float32(cy))
	z.CubeTo(float32(cx-r), float32(cy-k), float32(cx-k), float32(cy-r), float32(cx), float32(cy-r))
	z.CubeTo(float32(cx+k), float32(cy-r), float32(cx+r), float32(cy-k), float32(cx+r), float32(cy))
	z.ClosePath()
	drawMask(dst, z)
}

func (c Canvas) fillPolygon(dst *image.Gray, pts []shape.Point) {
	if len(pts) < 3 {
		return
	}
	z := vector.NewRasterizer(c.Width, c.Height)
	x, y := c.pixel(pts[0])
	z.MoveTo(float32(x), float32(y))
	for _, p := range pts[1:] {
		x, y = c.pixel(p)
		z.LineTo(float32(x), float32(y))
	}
	z.ClosePath()
	drawMask(dst, z)
}

// outlineCircle walks the circle boundary and writes the outward
// normal orientation at every outline pixel.
func (c Canvas) outlineCircle(dst *image.Gray, s shape.Circle) {
	cx, cy := c.pixel(shape.Point{})
	r := 0.5 * s.Diameter * c.PPM
	if r <= 0 {
		return
	}

	step := 0.25 / r
	for theta := 0.0; theta < 2*math.Pi; theta += step {
		x := cx + r*math.Cos(theta)
		y := cy + r*math.Sin(theta)
		setPixel(dst, x, y, orientationByte(theta))
	}
}

// outlinePolygon draws each edge with the orientation of its outward
// normal. Polygons are origin-centered, so the outward direction is
// the edge normal pointing away from the canvas center.
func (c Canvas) outlinePolygon(dst *image.Gray, pts []shape.Point) {
	n := len(pts)
	for i := 0; i < n; i++ {
		p1, p2 := pts[i], pts[(i+1)%n]

		nx, ny := p2.Y-p1.Y, p1.X-p2.X
		mx, my := 0.5*(p1.X+p2.X), 0.5*(p1.Y+p2.Y)
		if nx*mx+ny*my < 0 {
			nx, ny = -nx, -ny
		}
		v := orientationByte(math.Atan2(ny, nx))

		x1, y1 := c.pixel(p1)
		x2, y2 := c.pixel(p2)
		drawLine(dst, x1, y1, x2, y2, v)
	}
}

// drawLine draws a 1px line by DDA interpolation.
func drawLine(dst *image.Gray, x1, y1, x2, y2 float64, v uint8) {
	steps := int(math.Ceil(math.Max(math.Abs(x2-x1), math.Abs(y2-y1))))
	if steps == 0 {
		setPixel(dst, x1, y1, v)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		setPixel(dst, x1+t*(x2-x1), y1+t*(y2-y1), v)
	}
}

func setPixel(dst *image.Gray, x, y float64, v uint8) {
	px, py := int(math.Round(x)), int(math.Round(y))
	if !(image.Point{px, py}).In(dst.Bounds()) {
		return
	}
	dst.Pix[dst.PixOffset(px, py)] = v
}

// orientationByte quantizes an angle to 0..255 over [0, 2pi).
func orientationByte(angle float64) uint8 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return uint8(angle / (2 * math.Pi) * 255)
}
