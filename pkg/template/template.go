// Package template models silhouette templates: an ordered primitive
// list plus the calibration metadata that travels with the rendered
// layer images.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/silhouette-tools/pkg/raster"
	"github.com/Faultbox/silhouette-tools/pkg/rcsmt"
	"github.com/Faultbox/silhouette-tools/pkg/shape"
)

// Template errors.
var (
	ErrEmptyTemplate = errors.New("template must contain at least one primitive")
)

// Origin selects where the reported object pose sits relative to the
// rendered image.
type Origin string

// Supported origin conventions.
const (
	OriginCenter Origin = "center"
	OriginCorner Origin = "corner"
)

// Template is an ordered set of primitives plus the virtual camera
// parameters used to rasterize them. Insertion order is rendering
// order: later primitives overlay earlier ones.
type Template struct {
	Name          string
	Shapes        []shape.Shape
	ObjectHeight  float64 // meters, from the base plane to the top plane
	FocalLength   float64 // pixels; 0 = default camera profile
	PlaneDistance float64 // meters; 0 = default
	Origin        Origin  // empty = center
}

// applyDefaults resolves unset optional parameters.
func (t *Template) applyDefaults() {
	if t.FocalLength == 0 {
		t.FocalLength = DefaultProfile.FocalLengthPx()
	}
	if t.PlaneDistance == 0 {
		t.PlaneDistance = DefaultPlaneDistance
	}
	if t.Origin == "" {
		t.Origin = OriginCenter
	}
}

// Validate checks the template parameters and every primitive.
func (t *Template) Validate() error {
	if len(t.Shapes) == 0 {
		return ErrEmptyTemplate
	}
	for i, s := range t.Shapes {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	if t.ObjectHeight <= 0 {
		return fmt.Errorf("object height must be positive, got %g", t.ObjectHeight)
	}
	if t.Origin != "" && t.Origin != OriginCenter && t.Origin != OriginCorner {
		return fmt.Errorf("unknown origin %q", t.Origin)
	}
	return nil
}

// Rendered is the output of one template generation run: the composed
// layer images and the metadata record describing them.
type Rendered struct {
	Meta      Meta
	Composite *raster.Composite
	Canvas    raster.Canvas
}

// Render rasterizes the template's primitives in insertion order and
// assembles the metadata record.
func (t *Template) Render() (*Rendered, error) {
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return nil, err
	}

	ppm, err := raster.PixelsPerMeter(t.FocalLength, t.PlaneDistance, t.ObjectHeight)
	if err != nil {
		return nil, err
	}
	canvas, err := raster.NewCanvas(t.Shapes, ppm)
	if err != nil {
		return nil, err
	}
	comp, err := raster.Render(t.Shapes, canvas)
	if err != nil {
		return nil, err
	}

	cx, cy := canvas.Center()
	meta := Meta{
		TemplateVersion:    MetaVersion,
		Name:               t.Name,
		ObjectUUID:         uuid.NewString(),
		Date:               time.Now().Format(time.RFC3339),
		ObjectHeight:       t.ObjectHeight,
		FocalLength:        t.FocalLength,
		PlaneDistance:      t.PlaneDistance,
		ReferenceFrame:     ReferenceFrameTopPlane,
		RotationalSymmetry: symmetryOrder(t.Shapes),
		SymmetryCenter:     Vec2{X: cx, Y: cy},
		PoseOffset:         PoseOffset{Rotation: IdentityRotation()},
	}
	for _, s := range t.Shapes {
		meta.Primitives = append(meta.Primitives, Describe(s))
	}

	// With a centered origin the pose is reported at the image center,
	// so the offset carries the center back into physical units at the
	// template distance.
	if t.Origin == OriginCenter {
		dist := t.PlaneDistance - t.ObjectHeight
		meta.PoseOffset.Translation.X = cx / t.FocalLength * dist
		meta.PoseOffset.Translation.Y = cy / t.FocalLength * dist
	}

	return &Rendered{Meta: meta, Composite: comp, Canvas: canvas}, nil
}

// Files assembles the canonical artifact member set: the metadata
// record, the composite silhouette and gradients, and one silhouette
// layer per primitive.
func (r *Rendered) Files() ([]rcsmt.File, error) {
	metaData, err := r.Meta.Marshal()
	if err != nil {
		return nil, err
	}

	files := []rcsmt.File{{Name: rcsmt.MetaFile, Data: metaData}}

	composite, err := encodePNG(r.Composite.Silhouette)
	if err != nil {
		return nil, err
	}
	files = append(files, rcsmt.File{Name: rcsmt.TemplateFile, Data: composite})

	gradients, err := encodePNG(r.Composite.Gradients)
	if err != nil {
		return nil, err
	}
	files = append(files, rcsmt.File{Name: rcsmt.GradientsFile, Data: gradients})

	for i, layer := range r.Composite.Layers {
		data, err := encodePNG(layer.Silhouette)
		if err != nil {
			return nil, err
		}
		files = append(files, rcsmt.File{
			Name: fmt.Sprintf("layer_%02d_%s.png", i, layer.Name),
			Data: data,
		})
	}

	return files, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// symmetryOrder returns the rotational symmetry of the whole template,
// the GCD of the per-primitive symmetry orders.
func symmetryOrder(shapes []shape.Shape) int {
	order := 0
	for _, s := range shapes {
		order = gcd(order, s.RotationalSymmetry())
	}
	return order
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// SanitizeName maps an object ID to a filesystem-safe identifier:
// anything outside [A-Za-z0-9_-] becomes an underscore.
func SanitizeName(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
