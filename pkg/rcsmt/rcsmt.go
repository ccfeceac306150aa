// Package rcsmt reads and writes .rcsmt silhouette template artifacts.
//
// An artifact is a plain (uncompressed) tar file bundling a metadata
// record plus one or more image layers. The same content can live as an
// unpacked folder of discrete files; Pack and Unpack convert between
// the two forms losslessly.
package rcsmt

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Artifact layout constants.
const (
	// Extension is the artifact file extension.
	Extension = ".rcsmt"
	// MetaFile is the metadata record member name.
	MetaFile = "meta.yaml"
	// TemplateFile is the composite silhouette member name.
	TemplateFile = "template.png"
	// GradientsFile is the composite edge-orientation member name.
	GradientsFile = "gradients.png"
)

// Archive errors.
var (
	ErrMissingMetadata   = errors.New("template metadata (meta.yaml) missing")
	ErrMissingLayer      = errors.New("template contains no layer images")
	ErrDestinationExists = errors.New("destination already exists")
)

// File is a single named artifact member.
type File struct {
	Name string
	Data []byte
}

// validate checks that a member set forms a complete template: the
// metadata record plus at least one image layer.
func validate(files []File) error {
	hasMeta := false
	hasLayer := false
	for _, f := range files {
		switch {
		case f.Name == MetaFile:
			hasMeta = true
		case strings.HasSuffix(f.Name, ".png"):
			hasLayer = true
		}
	}
	if !hasMeta {
		return ErrMissingMetadata
	}
	if !hasLayer {
		return ErrMissingLayer
	}
	return nil
}

// Pack bundles the member set into a single artifact file. Members are
// written in sorted name order with normalized headers so the output is
// deterministic. The artifact is written to a temporary file first and
// renamed into place on success.
func Pack(files []File, destPath string) error {
	if err := validate(files); err != nil {
		return err
	}
	if _, err := os.Lstat(destPath); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, destPath)
	}

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, ".rcsmt-pack-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeTar(tmp, sorted); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing artifact: %w", err)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("moving artifact into place: %w", err)
	}
	return nil
}

func writeTar(w io.Writer, files []File) error {
	tw := tar.NewWriter(w)
	for _, f := range files {
		hdr := &tar.Header{
			Name:     f.Name,
			Mode:     0644,
			Size:     int64(len(f.Data)),
			Typeflag: tar.TypeReg,
			ModTime:  time.Unix(0, 0),
			Format:   tar.FormatUSTAR,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing header for %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("writing member %s: %w", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// Read returns every regular member of an artifact.
func Read(srcPath string) ([]File, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	var files []File
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading artifact %s: %w", srcPath, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading member %s: %w", hdr.Name, err)
		}
		files = append(files, File{Name: hdr.Name, Data: data})
	}
	return files, nil
}

// List returns the member names of an artifact, sorted.
func List(srcPath string) ([]string, error) {
	files, err := Read(srcPath)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names, nil
}

// Unpack extracts an artifact into a new folder. The folder must not
// exist yet; extraction goes through a temporary directory and is
// renamed into place on success, so a failed unpack leaves nothing
// behind.
func Unpack(srcPath, destDir string) error {
	files, err := Read(srcPath)
	if err != nil {
		return err
	}
	if err := validate(files); err != nil {
		return fmt.Errorf("%w (in %s)", err, srcPath)
	}
	return WriteFolder(files, destDir)
}

// WriteFolder materializes the member set as a new folder.
func WriteFolder(files []File, dir string) error {
	if _, err := os.Lstat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dir)
	}

	parent := filepath.Dir(dir)
	tmp, err := os.MkdirTemp(parent, ".rcsmt-unpack-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}

	for _, f := range files {
		dest, err := safeJoin(tmp, f.Name)
		if err != nil {
			os.RemoveAll(tmp)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			os.RemoveAll(tmp)
			return fmt.Errorf("creating directory for %s: %w", f.Name, err)
		}
		if err := os.WriteFile(dest, f.Data, 0644); err != nil {
			os.RemoveAll(tmp)
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}

	if err := os.Rename(tmp, dir); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("moving folder into place: %w", err)
	}
	return nil
}

// safeJoin joins a member name under base, rejecting names that would
// escape it.
func safeJoin(base, name string) (string, error) {
	dest := filepath.Join(base, filepath.FromSlash(name))
	dest = filepath.Clean(dest)
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("resolving member %s: %w", name, err)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving destination: %w", err)
	}
	if absDest != absBase && !strings.HasPrefix(absDest, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("member name escapes destination: %s", name)
	}
	return dest, nil
}

// ReadFolder loads every regular file of an unpacked template folder,
// sorted by name, and validates the set.
func ReadFolder(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	var files []File
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		files = append(files, File{Name: e.Name(), Data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	if err := validate(files); err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, dir)
	}
	return files, nil
}
