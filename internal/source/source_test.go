package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 64, 32)

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 1, src.PageCount())
	w, h, err := src.GetPageDimensions(0)
	require.NoError(t, err)
	assert.Equal(t, 64.0, w)
	assert.Equal(t, 32.0, h)

	img, err := Load(src, 0, 72)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 32), img.Bounds().Size())

	_, err = Load(src, 1, 72)
	assert.Error(t, err)
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 8, 8)
	writePNG(t, filepath.Join(dir, "a.png"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	src, err := NewImageSource(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, src.PageCount())

	w, _, err := src.GetPageDimensions(0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, w, "pages are sorted by name")

	_, err = NewImageSource(t.TempDir())
	assert.Error(t, err)
}

func TestImageSourceCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0644))

	src, err := NewImageSource(path)
	require.NoError(t, err)
	_, err = src.RenderPage(0, 72)
	assert.Error(t, err)
}

func TestQRSource(t *testing.T) {
	src, err := Open("qr:scrollbg calibration")
	require.NoError(t, err)
	defer src.Close()

	img, err := Load(src, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(DefaultQRSize, DefaultQRSize), img.Bounds().Size())

	_, err = NewQRSource("", 10)
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("a.WEBP"))
	assert.True(t, IsImage("dir/b.tiff"))
	assert.False(t, IsImage("c.pdf"))
}
