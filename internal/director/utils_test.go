package director

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoutePath(t *testing.T) {
	path := GenerateRoutePath()

	assert.True(t, strings.HasPrefix(filepath.Base(path), "route_"))
	assert.Equal(t, ".yaml", filepath.Ext(path))
	assert.Equal(t, RoutesDir, filepath.Dir(path))

	t.Logf("Generated path: %s", path)
}

func TestFindLatestRoute(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		filepath.Join(dir, "route_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "route_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "route_2026-02-11_15-30-00.yml"),
	}
	for i, f := range files {
		require.NoError(t, os.WriteFile(f, []byte("test"), 0644))
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(f, modTime, modTime))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	latest, err := FindLatestRoute(dir)
	require.NoError(t, err)
	assert.Equal(t, files[len(files)-1], latest)
}

func TestFindLatestRouteEmpty(t *testing.T) {
	_, err := FindLatestRoute(t.TempDir())
	assert.Error(t, err)
}

func TestRouteWriteRead(t *testing.T) {
	route := NewRoute([]Point{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 1, Y: 0.25}})
	route.Bezier = true
	route.Resolution = 20
	route.Speed = 0.15

	path := filepath.Join(t.TempDir(), "nested", "route.yaml")
	require.NoError(t, WriteRoute(route, path))

	got, err := ReadRoute(path)
	require.NoError(t, err)
	assert.Equal(t, route, got)
	assert.Equal(t, Smoothing{Enabled: true, Resolution: 20}, got.Smoothing())
	assert.Equal(t, route.Points(), got.Points())
}

func TestReadRouteRejectsShortRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nwaypoints:\n  - {x: 0, y: 0}\n"), 0644))

	_, err := ReadRoute(path)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestReadRouteRejectsNonFiniteWaypoints(t *testing.T) {
	for name, coord := range map[string]string{"nan": ".nan", "inf": ".inf", "negative inf": "-.inf"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "route.yaml")
			data := "version: \"1.0\"\nwaypoints:\n  - {x: 0, y: 0}\n  - {x: " + coord + ", y: 1}\n"
			require.NoError(t, os.WriteFile(path, []byte(data), 0644))

			_, err := ReadRoute(path)
			assert.ErrorIs(t, err, ErrNotFinite)
		})
	}
}
