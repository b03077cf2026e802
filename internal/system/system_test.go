package system

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePool(t *testing.T) {
	pool := NewFramePool()

	a := pool.Get(image.Pt(4, 3))
	assert.Equal(t, image.Rect(0, 0, 4, 3), a.Bounds())
	pool.Put(a)

	b := pool.Get(image.Pt(2, 2))
	assert.Equal(t, image.Rect(0, 0, 2, 2), b.Bounds())

	// Unknown sizes and nil are ignored.
	pool.Put(image.NewRGBA(image.Rect(0, 0, 9, 9)))
	pool.Put(nil)
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	isImage := func(name string) bool { return strings.HasSuffix(name, ".png") }

	names := []string{"old.png", "new.png", "newest.txt"}
	for i, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		mt := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	latest, err := FindLatestImage(dir, isImage)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.png"), latest)

	_, err = FindLatestImage(t.TempDir(), isImage)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	assert.Positive(t, DefaultWorkers())
	assert.Equal(t, 23, DefaultQuality("libx264"))
	assert.Equal(t, 28, DefaultQuality("h264_nvenc"))
	assert.NoError(t, CheckMemory(1))
}
