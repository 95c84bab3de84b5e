// Package testutil provides shared helpers for tests.
package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/docintake/internal/document"
)

// CreateTestImage returns a solid-color image of the given size with a darker
// band across the top so rotations are distinguishable.
func CreateTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	bg := color.NRGBA{R: 235, G: 235, B: 230, A: 255}
	band := color.NRGBA{R: 60, G: 60, B: 80, A: 255}
	for y := range height {
		for x := range width {
			if y < height/8 {
				img.SetNRGBA(x, y, band)
			} else {
				img.SetNRGBA(x, y, bg)
			}
		}
	}
	return img
}

// WriteTestImage writes a synthetic JPEG page to path.
func WriteTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, imaging.Save(CreateTestImage(width, height), path, imaging.JPEGQuality(90)))
}

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

// ReadFile returns the contents of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NewPage builds a page with a synthetic image on disk, ready for stage tests.
func NewPage(t *testing.T, dir string, name string, label document.Label) *document.Page {
	t.Helper()
	path := filepath.Join(dir, name)
	WriteTestImage(t, path, 320, 240)
	return &document.Page{SourceFile: name, ImagePath: path, Label: label}
}
