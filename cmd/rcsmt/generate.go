package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/silhouette-tools/internal/logger"
	"github.com/Faultbox/silhouette-tools/pkg/rcsmt"
	"github.com/Faultbox/silhouette-tools/pkg/shape"
	"github.com/Faultbox/silhouette-tools/pkg/template"
)

// shapeAccumulator collects primitives from all repeatable shape flags
// into one ordered list. flag.Value.Set is called in command-line
// order, so the layering order matches the order the flags were given.
type shapeAccumulator struct {
	shapes []shape.Shape
}

type circleValue struct{ acc *shapeAccumulator }

func (v circleValue) String() string { return "" }

func (v circleValue) Set(s string) error {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid circle diameter %q", s)
	}
	v.acc.shapes = append(v.acc.shapes, shape.Circle{Diameter: d})
	return nil
}

type rectValue struct{ acc *shapeAccumulator }

func (v rectValue) String() string { return "" }

func (v rectValue) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("invalid rectangle %q, expected W,H", s)
	}
	w, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return fmt.Errorf("invalid rectangle width %q", parts[0])
	}
	h, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rectangle height %q", parts[1])
	}
	v.acc.shapes = append(v.acc.shapes, shape.Rectangle{Width: w, Height: h})
	return nil
}

type hexValue struct {
	acc *shapeAccumulator
	// parallelSides selects the flat-to-flat size convention instead
	// of corner-to-corner diameter.
	parallelSides bool
}

func (v hexValue) String() string { return "" }

func (v hexValue) Set(s string) error {
	sizeStr, rotStr, hasRot := strings.Cut(s, ",")
	size, err := strconv.ParseFloat(sizeStr, 64)
	if err != nil {
		return fmt.Errorf("invalid hexagon size %q", sizeStr)
	}
	rot := 0.0
	if hasRot {
		rot, err = strconv.ParseFloat(rotStr, 64)
		if err != nil {
			return fmt.Errorf("invalid hexagon rotation %q", rotStr)
		}
	}
	if v.parallelSides {
		v.acc.shapes = append(v.acc.shapes, shape.HexagonFromParallelSides(size, rot))
	} else {
		v.acc.shapes = append(v.acc.shapes, shape.NewHexagon(size, rot))
	}
	return nil
}

func cmdGenerate(args []string) {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "Usage: rcsmt generate <name> [shape flags] --object-height H")
		os.Exit(1)
	}
	name := template.SanitizeName(args[0])

	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	acc := &shapeAccumulator{}
	fs.Var(circleValue{acc}, "circle", "Circle diameter in meters (repeatable)")
	fs.Var(rectValue{acc}, "rect", "Rectangle W,H in meters (repeatable)")
	fs.Var(hexValue{acc: acc}, "hex-diameter", "Hexagon corner-to-corner diameter D[,ROT] (repeatable)")
	fs.Var(hexValue{acc: acc, parallelSides: true}, "hex-parallel-sides", "Hexagon flat-to-flat size S[,ROT] (repeatable)")
	objectHeight := fs.Float64("object-height", 0, "Object height in meters, from the base plane (required)")
	focalLength := fs.Float64("focal-length", 0, "Virtual focal length in pixels (default from camera profile)")
	var planeDistance float64
	fs.Float64Var(&planeDistance, "virtual-plane-distance", 0, "Virtual plane distance in meters")
	fs.Float64Var(&planeDistance, "plane-distance", 0, "Alias for --virtual-plane-distance")
	origin := fs.String("origin", string(template.OriginCenter), "Pose origin: center or corner")
	writeFolder := fs.Bool("write-folder", false, "Write an editable folder instead of a .rcsmt artifact")
	fs.Parse(args[1:])

	if *objectHeight <= 0 {
		fail(fmt.Errorf("--object-height is required and must be positive"))
	}

	focal := *focalLength
	if focal == 0 {
		focal = cfg.Camera.ResolveFocalLength()
	}
	plane := planeDistance
	if plane == 0 {
		plane = cfg.Camera.PlaneDistance
	}

	tpl := &template.Template{
		Name:          name,
		Shapes:        acc.shapes,
		ObjectHeight:  *objectHeight,
		FocalLength:   focal,
		PlaneDistance: plane,
		Origin:        template.Origin(*origin),
	}

	rendered, err := tpl.Render()
	if err != nil {
		fail(err)
	}
	logger.Debug("rendered template",
		zap.Int("layers", len(rendered.Composite.Layers)),
		zap.Int("canvas_width", rendered.Canvas.Width),
		zap.Int("canvas_height", rendered.Canvas.Height),
		zap.Float64("pixels_per_meter", rendered.Canvas.PPM))

	files, err := rendered.Files()
	if err != nil {
		fail(err)
	}

	base := filepath.Join(cfg.Output.Dir, name)
	var out string
	if *writeFolder {
		out = base
		err = rcsmt.WriteFolder(files, out)
	} else {
		out = base + rcsmt.Extension
		err = rcsmt.Pack(files, out)
	}
	if err != nil {
		fail(err)
	}

	logger.Sugar.Infof("generated template %s with %d primitives", name, len(acc.shapes))
	fmt.Println(out)
}
