package template

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"github.com/Faultbox/silhouette-tools/pkg/rcsmt"
	"github.com/Faultbox/silhouette-tools/pkg/shape"
)

func TestRenderSingleCircle(t *testing.T) {
	tpl := &Template{
		Name:         "obj",
		Shapes:       []shape.Shape{shape.Circle{Diameter: 0.1}},
		ObjectHeight: 0.01,
	}

	r, err := tpl.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Defaults resolved from the camera profile table.
	if r.Meta.FocalLength != 1080 {
		t.Errorf("expected focal length 1080, got %g", r.Meta.FocalLength)
	}
	if r.Meta.PlaneDistance != 0.5 {
		t.Errorf("expected plane distance 0.5, got %g", r.Meta.PlaneDistance)
	}
	if r.Meta.RotationalSymmetry != 360 {
		t.Errorf("expected symmetry 360, got %d", r.Meta.RotationalSymmetry)
	}
	if r.Meta.ObjectUUID == "" || r.Meta.Date == "" {
		t.Error("expected uuid and date to be set")
	}

	// Canvas accommodates a 0.1 m circle at 1080/0.49 px/m plus margin.
	wantPx := 0.1 * 1080 / 0.49
	if float64(r.Canvas.Width) < wantPx {
		t.Errorf("canvas %d px too small for %g px content", r.Canvas.Width, wantPx)
	}
	if float64(r.Canvas.Width) > wantPx*1.2 {
		t.Errorf("canvas %d px unexpectedly large for %g px content", r.Canvas.Width, wantPx)
	}

	if len(r.Composite.Layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(r.Composite.Layers))
	}
}

func TestRenderFilesMemberSet(t *testing.T) {
	tpl := &Template{
		Name: "obj",
		Shapes: []shape.Shape{
			shape.Rectangle{Width: 0.1, Height: 0.2},
			shape.Circle{Diameter: 0.05},
		},
		ObjectHeight: 0.01,
	}

	r, err := tpl.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	files, err := r.Files()
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}

	want := []string{
		rcsmt.MetaFile,
		rcsmt.TemplateFile,
		rcsmt.GradientsFile,
		"layer_00_rect.png",
		"layer_01_circle.png",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(files))
	}
	for i, name := range want {
		if files[i].Name != name {
			t.Errorf("member %d: expected %s, got %s", i, name, files[i].Name)
		}
	}

	// Every image member decodes as PNG with the canvas dimensions.
	for _, f := range files[1:] {
		img, err := png.Decode(bytes.NewReader(f.Data))
		if err != nil {
			t.Fatalf("%s: not a valid PNG: %v", f.Name, err)
		}
		if img.Bounds().Dx() != r.Canvas.Width || img.Bounds().Dy() != r.Canvas.Height {
			t.Errorf("%s: expected %dx%d, got %dx%d", f.Name,
				r.Canvas.Width, r.Canvas.Height, img.Bounds().Dx(), img.Bounds().Dy())
		}
	}

	// The metadata member parses back with the primitive list intact.
	m, err := ParseMeta(files[0].Data)
	if err != nil {
		t.Fatalf("ParseMeta failed: %v", err)
	}
	if len(m.Primitives) != 2 || m.Primitives[0].Kind != "rect" || m.Primitives[1].Kind != "circle" {
		t.Errorf("unexpected primitive descriptors: %+v", m.Primitives)
	}
	if m.RotationalSymmetry != 2 {
		t.Errorf("expected gcd symmetry 2, got %d", m.RotationalSymmetry)
	}
}

func TestRenderEmptyTemplate(t *testing.T) {
	tpl := &Template{Name: "obj", ObjectHeight: 0.01}
	_, err := tpl.Render()
	if !errors.Is(err, ErrEmptyTemplate) {
		t.Fatalf("expected ErrEmptyTemplate, got %v", err)
	}
}

func TestRenderInvalidPrimitive(t *testing.T) {
	tpl := &Template{
		Name:         "obj",
		Shapes:       []shape.Shape{shape.Circle{Diameter: -1}},
		ObjectHeight: 0.01,
	}
	_, err := tpl.Render()
	if !errors.Is(err, shape.ErrInvalidPrimitive) {
		t.Fatalf("expected ErrInvalidPrimitive, got %v", err)
	}
}

func TestRenderObjectHeightTooLarge(t *testing.T) {
	tpl := &Template{
		Name:         "obj",
		Shapes:       []shape.Shape{shape.Circle{Diameter: 0.1}},
		ObjectHeight: 0.6, // exceeds the default 0.5 plane distance
	}
	if _, err := tpl.Render(); err == nil {
		t.Fatal("expected error when object height exceeds plane distance")
	}
}

func TestRenderOriginOffsets(t *testing.T) {
	mk := func(origin Origin) *Rendered {
		tpl := &Template{
			Name:         "obj",
			Shapes:       []shape.Shape{shape.Circle{Diameter: 0.1}},
			ObjectHeight: 0.01,
			Origin:       origin,
		}
		r, err := tpl.Render()
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		return r
	}

	corner := mk(OriginCorner)
	if corner.Meta.PoseOffset.Translation != (Vec3{}) {
		t.Errorf("corner origin: expected zero translation, got %+v", corner.Meta.PoseOffset.Translation)
	}

	center := mk(OriginCenter)
	wantX := center.Meta.SymmetryCenter.X / 1080 * 0.49
	if math.Abs(center.Meta.PoseOffset.Translation.X-wantX) > 1e-9 {
		t.Errorf("center origin: expected translation x %g, got %g",
			wantX, center.Meta.PoseOffset.Translation.X)
	}
	if center.Meta.PoseOffset.Rotation.W != 1 {
		t.Errorf("expected identity rotation, got %+v", center.Meta.PoseOffset.Rotation)
	}
}

func TestRenderHexagonFlatSideDown(t *testing.T) {
	tpl := &Template{
		Name:         "obj",
		Shapes:       []shape.Shape{shape.NewHexagon(0.1, 30)},
		ObjectHeight: 0.02,
	}
	r, err := tpl.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if r.Meta.RotationalSymmetry != 6 {
		t.Errorf("expected symmetry 6, got %d", r.Meta.RotationalSymmetry)
	}
	if len(r.Meta.Primitives) != 1 || r.Meta.Primitives[0].Rotation != 30 {
		t.Errorf("expected hex descriptor with rotation 30, got %+v", r.Meta.Primitives)
	}

	// At 30 degrees the corner-to-corner diameter lies horizontal: the
	// silhouette is wider than tall.
	sil := r.Composite.Layers[0].Silhouette
	bounds := sil.Bounds()
	var minX, minY, maxX, maxY = bounds.Max.X, bounds.Max.Y, -1, -1
	for y := 0; y < bounds.Max.Y; y++ {
		for x := 0; x < bounds.Max.X; x++ {
			if sil.GrayAt(x, y).Y > 0 {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX-minX <= maxY-minY {
		t.Errorf("expected flat-side-down hexagon wider than tall, got %dx%d",
			maxX-minX, maxY-minY)
	}
}

func TestGeneratedFolderPackUnpackRoundtrip(t *testing.T) {
	tpl := &Template{
		Name:         "obj",
		Shapes:       []shape.Shape{shape.Circle{Diameter: 0.1}},
		ObjectHeight: 0.01,
	}
	r, err := tpl.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	files, err := r.Files()
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}

	dir := t.TempDir()
	folder := filepath.Join(dir, "obj")
	if err := rcsmt.WriteFolder(files, folder); err != nil {
		t.Fatalf("WriteFolder failed: %v", err)
	}

	folderFiles, err := rcsmt.ReadFolder(folder)
	if err != nil {
		t.Fatalf("ReadFolder failed: %v", err)
	}
	artifact := filepath.Join(dir, "obj"+rcsmt.Extension)
	if err := rcsmt.Pack(folderFiles, artifact); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	unpacked := filepath.Join(dir, "obj-unpacked")
	if err := rcsmt.Unpack(artifact, unpacked); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	got, err := rcsmt.ReadFolder(unpacked)
	if err != nil {
		t.Fatalf("ReadFolder failed: %v", err)
	}
	if len(got) != len(files) {
		t.Fatalf("expected %d members after roundtrip, got %d", len(files), len(got))
	}
	want := make(map[string][]byte, len(files))
	for _, f := range files {
		want[f.Name] = f.Data
	}
	for _, f := range got {
		if !bytes.Equal(f.Data, want[f.Name]) {
			t.Errorf("member %s changed across the folder/artifact roundtrip", f.Name)
		}
	}
}

func TestSymmetryOrder(t *testing.T) {
	tests := []struct {
		shapes []shape.Shape
		want   int
	}{
		{[]shape.Shape{shape.Circle{Diameter: 0.1}}, 360},
		{[]shape.Shape{shape.Circle{Diameter: 0.1}, shape.NewHexagon(0.1, 0)}, 6},
		{[]shape.Shape{shape.NewHexagon(0.1, 0), shape.Rectangle{Width: 0.1, Height: 0.1}}, 2},
		{[]shape.Shape{shape.Rectangle{Width: 0.1, Height: 0.2}, shape.Circle{Diameter: 0.1}}, 2},
	}
	for i, tt := range tests {
		if got := symmetryOrder(tt.shapes); got != tt.want {
			t.Errorf("case %d: expected %d, got %d", i, tt.want, got)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"my-object_1", "my-object_1"},
		{"my object", "my_object"},
		{"a/b\\c", "a_b_c"},
		{"weird!@#", "weird___"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
