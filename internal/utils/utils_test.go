package utils

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disintegration/imaging"
)

func testImage(w, h int) image.Image {
	return imaging.New(w, h, image.White.C)
}

func TestRotateClockwise(t *testing.T) {
	img := testImage(100, 50)

	tests := []struct {
		angle        int
		wantW, wantH int
	}{
		{0, 100, 50},
		{90, 50, 100},
		{180, 100, 50},
		{270, 50, 100},
	}
	for _, tt := range tests {
		rotated, err := RotateClockwise(img, tt.angle)
		require.NoError(t, err, "angle %d", tt.angle)
		assert.Equal(t, tt.wantW, rotated.Bounds().Dx(), "angle %d width", tt.angle)
		assert.Equal(t, tt.wantH, rotated.Bounds().Dy(), "angle %d height", tt.angle)
	}

	_, err := RotateClockwise(img, 45)
	assert.Error(t, err)
}

func TestRotateClockwiseDirection(t *testing.T) {
	// A pixel at the top-left must land at the top-right after a clockwise
	// quarter turn.
	img := imaging.New(2, 2, image.White.C)
	img.Set(0, 0, image.Black.C)

	rotated, err := RotateClockwise(img, 90)
	require.NoError(t, err)

	r, g, b, _ := rotated.At(1, 0).RGBA()
	assert.Zero(t, r+g+b, "top-left pixel should move to top-right")
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("scan.JPG"))
	assert.True(t, IsSupportedImage("scan.tiff"))
	assert.False(t, IsSupportedImage("doc.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "img.jpg")

	require.NoError(t, SaveJPEG(testImage(120, 80), path, 90))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, "jpeg", meta.Format)
	assert.Equal(t, 120, meta.Width)
	assert.Equal(t, 80, meta.Height)
	assert.Positive(t, meta.SizeBytes)
}

func TestLoadImageErrors(t *testing.T) {
	_, _, err := LoadImage("")
	assert.Error(t, err)

	_, _, err = LoadImage("missing.jpg")
	assert.Error(t, err)

	_, _, err = LoadImage("report.pdf")
	assert.Error(t, err)
}

func TestCompressJPEGStaysUnderBudget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")

	// Noisy-ish content so the encoder cannot trivially hit the budget.
	img := imaging.New(2000, 1400, image.White.C)
	for y := 0; y < 1400; y += 3 {
		for x := 0; x < 2000; x += 3 {
			img.Set(x, y, image.Black.C)
		}
	}

	require.NoError(t, CompressJPEG(img, path, 100))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(100*1024))
}

func TestEnhanceForOCRPreservesDimensions(t *testing.T) {
	out := EnhanceForOCR(testImage(64, 32))
	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 32, out.Bounds().Dy())
}
