package template

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/silhouette-tools/pkg/shape"
)

// Metadata record errors.
var (
	ErrInvalidMeta = errors.New("invalid template metadata")
)

// Metadata format constants.
const (
	// MetaVersion is the current metadata record version.
	MetaVersion = 1
	// ReferenceFrameTopPlane tags the reference frame convention: the
	// coordinate origin sits on the top plane of the object.
	ReferenceFrameTopPlane = "top-plane"
)

// Vec2 is a 2D vector metadata field.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Vec3 is a 3D vector metadata field.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Quaternion is a rotation metadata field.
type Quaternion struct {
	W float64 `yaml:"w"`
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// IdentityRotation returns the identity quaternion.
func IdentityRotation() Quaternion {
	return Quaternion{W: 1}
}

// PoseOffset describes the offset between the image origin and the
// reported object pose.
type PoseOffset struct {
	Rotation    Quaternion `yaml:"rotation"`
	Translation Vec3       `yaml:"translation"`
}

// PrimitiveDescriptor records one primitive in the metadata so the
// template images can be regenerated from the record alone.
type PrimitiveDescriptor struct {
	Kind     string  `yaml:"kind"`
	Width    float64 `yaml:"width,omitempty"`
	Height   float64 `yaml:"height,omitempty"`
	Diameter float64 `yaml:"diameter,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"`
}

// Describe converts a shape into its metadata descriptor.
func Describe(s shape.Shape) PrimitiveDescriptor {
	switch s := s.(type) {
	case shape.Circle:
		return PrimitiveDescriptor{Kind: s.Kind(), Diameter: s.Diameter}
	case shape.Rectangle:
		return PrimitiveDescriptor{Kind: s.Kind(), Width: s.Width, Height: s.Height}
	case shape.Hexagon:
		return PrimitiveDescriptor{Kind: s.Kind(), Diameter: s.Diameter, Rotation: s.Rotation}
	default:
		return PrimitiveDescriptor{Kind: s.Kind()}
	}
}

// Shape reconstructs the primitive described by the descriptor.
func (d PrimitiveDescriptor) Shape() (shape.Shape, error) {
	switch d.Kind {
	case "circle":
		return shape.Circle{Diameter: d.Diameter}, nil
	case "rect":
		return shape.Rectangle{Width: d.Width, Height: d.Height}, nil
	case "hex":
		return shape.NewHexagon(d.Diameter, d.Rotation), nil
	default:
		return nil, fmt.Errorf("%w: unknown primitive kind %q", ErrInvalidMeta, d.Kind)
	}
}

// Meta is the template metadata record stored as meta.yaml. It carries
// everything needed to interpret the layer images: physical scale,
// virtual camera parameters and the primitive list.
type Meta struct {
	TemplateVersion    int                   `yaml:"template-version"`
	Name               string                `yaml:"name"`
	ObjectUUID         string                `yaml:"object-uuid"`
	Date               string                `yaml:"date"`
	ObjectHeight       float64               `yaml:"object-height"`
	FocalLength        float64               `yaml:"focal-length,omitempty"`
	PlaneDistance      float64               `yaml:"plane-distance,omitempty"`
	ReferenceFrame     string                `yaml:"reference-frame,omitempty"`
	RotationalSymmetry int                   `yaml:"rotational-symmetry"`
	SymmetryCenter     Vec2                  `yaml:"symmetry-center"`
	PoseOffset         PoseOffset            `yaml:"pose-offset"`
	Primitives         []PrimitiveDescriptor `yaml:"primitives,omitempty"`
}

// ApplyDefaults fills missing optional fields from the documented
// camera-profile constants instead of failing.
func (m *Meta) ApplyDefaults() {
	if m.TemplateVersion == 0 {
		m.TemplateVersion = MetaVersion
	}
	if m.FocalLength == 0 {
		m.FocalLength = DefaultProfile.FocalLengthPx()
	}
	if m.PlaneDistance == 0 {
		m.PlaneDistance = DefaultPlaneDistance
	}
	if m.ReferenceFrame == "" {
		m.ReferenceFrame = ReferenceFrameTopPlane
	}
}

// Validate checks the record for values that cannot be defaulted.
func (m *Meta) Validate() error {
	if m.ObjectHeight <= 0 {
		return fmt.Errorf("%w: object-height must be positive, got %g", ErrInvalidMeta, m.ObjectHeight)
	}
	if m.FocalLength < 0 {
		return fmt.Errorf("%w: focal-length must not be negative, got %g", ErrInvalidMeta, m.FocalLength)
	}
	if m.PlaneDistance < 0 {
		return fmt.Errorf("%w: plane-distance must not be negative, got %g", ErrInvalidMeta, m.PlaneDistance)
	}
	return nil
}

// ParseMeta decodes a metadata record, applying defaults for missing
// optional fields.
func ParseMeta(data []byte) (*Meta, error) {
	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMeta, err)
	}
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Marshal encodes the record as YAML.
func (m *Meta) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return data, nil
}
