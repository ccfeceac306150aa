// rcsmt is a CLI utility for generating silhouette match templates
// from geometric primitives and for packing and unpacking the .rcsmt
// template artifacts.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/silhouette-tools/internal/config"
	"github.com/Faultbox/silhouette-tools/internal/logger"
	"github.com/Faultbox/silhouette-tools/pkg/rcsmt"
	"github.com/Faultbox/silhouette-tools/pkg/template"
)

var cfg *config.Config

func main() {
	var err error
	cfg, err = config.Load(os.Getenv("RCSMT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "pack":
		cmdPack(args)
	case "unpack", "x":
		cmdUnpack(args)
	case "info":
		cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rcsmt - silhouette template utility

Usage:
  rcsmt <command> [options]

Commands:
  generate <name> [shape flags] --object-height H   Generate a template
  pack <folder> [-out file]                         Pack a folder into a .rcsmt artifact
  unpack <file.rcsmt> [-out folder]                 Unpack an artifact for editing
  info <file.rcsmt>                                 Show artifact contents and metadata
  help                                              Show this help

Generate shape flags (repeatable, drawn in the order given):
  --circle D                   circle with diameter D (meters)
  --rect W,H                   rectangle of width W and height H (meters)
  --hex-diameter D[,ROT]       hexagon, corner-to-corner diameter, optional rotation (degrees)
  --hex-parallel-sides S[,ROT] hexagon, distance between parallel sides

Generate options:
  --object-height H      object height in meters, from the base plane (required)
  --focal-length F       virtual focal length in pixels (default: camera profile)
  --virtual-plane-distance V  virtual plane distance in meters (default 0.5)
  --origin center|corner pose origin convention (default center)
  --write-folder         write an editable folder instead of a .rcsmt file

Configuration is read from ./rcsmt.yaml, the user config directory, or
the file named by the RCSMT_CONFIG environment variable.

Examples:
  rcsmt generate part1 --circle 0.1 --object-height 0.01
  rcsmt generate plate --rect 0.4,0.3 --circle 0.05 --object-height 0.02
  rcsmt generate nut --hex-diameter 0.1,30 --object-height 0.02 --write-folder
  rcsmt unpack part1.rcsmt
  rcsmt pack part1`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Sync()
	os.Exit(1)
}

func cmdPack(args []string) {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "Usage: rcsmt pack <folder> [-out file]")
		os.Exit(1)
	}
	folder := filepath.Clean(args[0])
	out := fs.String("out", "", "Path of the output artifact (default <folder>.rcsmt)")
	fs.Parse(args[1:])

	dest := *out
	if dest == "" {
		dest = folder + rcsmt.Extension
	}

	files, err := rcsmt.ReadFolder(folder)
	if err != nil {
		fail(err)
	}
	if err := rcsmt.Pack(files, dest); err != nil {
		fail(err)
	}

	logger.Sugar.Infof("packed %d members from %s", len(files), folder)
	fmt.Println(dest)
}

func cmdUnpack(args []string) {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "Usage: rcsmt unpack <file.rcsmt> [-out folder]")
		os.Exit(1)
	}
	src := args[0]
	out := fs.String("out", "", "Path of the output folder (default artifact name without extension)")
	fs.Parse(args[1:])

	dest := *out
	if dest == "" {
		dest = strings.TrimSuffix(src, filepath.Ext(src))
	}

	if err := rcsmt.Unpack(src, dest); err != nil {
		fail(err)
	}

	logger.Sugar.Infof("unpacked %s", src)
	fmt.Println(dest)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rcsmt info <file.rcsmt>")
		os.Exit(1)
	}

	files, err := rcsmt.Read(args[0])
	if err != nil {
		fail(err)
	}

	fmt.Printf("Artifact: %s\n", args[0])
	fmt.Printf("Members:  %d\n", len(files))
	for _, f := range files {
		fmt.Printf("  %-24s %6d bytes\n", f.Name, len(f.Data))
	}

	for _, f := range files {
		if f.Name != rcsmt.MetaFile {
			continue
		}
		m, err := template.ParseMeta(f.Data)
		if err != nil {
			fail(err)
		}
		fmt.Println()
		fmt.Printf("Name:                %s\n", m.Name)
		fmt.Printf("Object UUID:         %s\n", m.ObjectUUID)
		fmt.Printf("Date:                %s\n", m.Date)
		fmt.Printf("Object height:       %g m\n", m.ObjectHeight)
		fmt.Printf("Focal length:        %g px\n", m.FocalLength)
		fmt.Printf("Plane distance:      %g m\n", m.PlaneDistance)
		fmt.Printf("Rotational symmetry: %d\n", m.RotationalSymmetry)
		if len(m.Primitives) > 0 {
			fmt.Println("Primitives:")
			for _, p := range m.Primitives {
				switch p.Kind {
				case "rect":
					fmt.Printf("  rect %gx%g m\n", p.Width, p.Height)
				case "circle":
					fmt.Printf("  circle d=%g m\n", p.Diameter)
				case "hex":
					fmt.Printf("  hex d=%g m, rotation %g deg\n", p.Diameter, p.Rotation)
				}
			}
		}
	}
}
