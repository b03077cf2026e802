package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollbg/internal/config"
	"github.com/ivlev/scrollbg/internal/director"
	"github.com/ivlev/scrollbg/internal/video"
)

// memSource serves a single in-memory page.
type memSource struct {
	img image.Image
}

func (s *memSource) PageCount() int { return 1 }

func (s *memSource) GetPageDimensions(int) (float64, float64, error) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (s *memSource) RenderPage(int, int) (image.Image, error) { return s.img, nil }

func (s *memSource) Close() error { return nil }

// gradient is red along x and green along y.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / (w - 1)), G: uint8(y * 255 / (h - 1)), A: 255})
		}
	}
	return img
}

// recordingSink keeps a copy of every frame; the engine recycles buffers.
type recordingSink struct {
	mu     sync.Mutex
	frames []*image.RGBA
	closed bool
	fail   error
}

func (s *recordingSink) WriteFrame(frame *image.RGBA) error {
	if s.fail != nil {
		return s.fail
	}
	cp := image.NewRGBA(frame.Rect)
	copy(cp.Pix, frame.Pix)
	s.mu.Lock()
	s.frames = append(s.frames, cp)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Image = "memory"
	cfg.Points = "0,0;1,1"
	cfg.Speed = 1
	cfg.Scale = 2
	cfg.FPS = 10
	cfg.Duration = 1
	cfg.Workers = 2
	cfg.Screens = []config.Screen{{Width: 100, Height: 50}}
	return cfg
}

func newTestProject(cfg *config.Config, sinks *[]*recordingSink) *ScrollProject {
	p := NewScrollProject(cfg, &memSource{img: gradient(200, 100)}, "test")
	p.NewSink = func(_ context.Context, _ int, _ config.Screen) (video.FrameSink, error) {
		s := &recordingSink{}
		*sinks = append(*sinks, s)
		return s, nil
	}
	return p
}

func TestScrollProjectRun(t *testing.T) {
	var sinks []*recordingSink
	p := newTestProject(testConfig(), &sinks)

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 10, p.Frames())

	require.Len(t, sinks, 1)
	s := sinks[0]
	assert.True(t, s.closed)
	require.Len(t, s.frames, 10)
	for _, f := range s.frames {
		assert.Equal(t, image.Pt(100, 50), f.Rect.Size())
	}

	// The first frame enters the segment at (0,0): the surface's top-left corner.
	first := s.frames[0].RGBAAt(0, 0)
	assert.Less(t, first.R, uint8(8))
	assert.Less(t, first.G, uint8(8))

	// Later frames have scrolled right and down.
	last := s.frames[9].RGBAAt(0, 0)
	assert.Greater(t, last.R, first.R)
	assert.Greater(t, last.G, first.G)
}

func TestScrollProjectMultipleScreens(t *testing.T) {
	cfg := testConfig()
	cfg.Screens = []config.Screen{{Width: 100, Height: 50}, {X: 100, Width: 60, Height: 60}}

	var sinks []*recordingSink
	p := newTestProject(cfg, &sinks)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sinks, 2)
	require.Len(t, sinks[0].frames, 10)
	require.Len(t, sinks[1].frames, 10)
	assert.Equal(t, image.Pt(60, 60), sinks[1].frames[0].Rect.Size())
}

func TestScrollProjectCancelled(t *testing.T) {
	var sinks []*recordingSink
	p := newTestProject(testConfig(), &sinks)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, p.Frames())
	require.Len(t, sinks, 1)
	assert.True(t, sinks[0].closed)
}

func TestScrollProjectSinkError(t *testing.T) {
	errDisk := errors.New("disk full")

	var sinks []*recordingSink
	p := newTestProject(testConfig(), &sinks)
	p.NewSink = func(_ context.Context, _ int, _ config.Screen) (video.FrameSink, error) {
		s := &recordingSink{fail: errDisk}
		sinks = append(sinks, s)
		return s, nil
	}

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, errDisk)
	assert.True(t, sinks[0].closed)
}

func TestScrollProjectOpenSinkError(t *testing.T) {
	cfg := testConfig()
	cfg.Screens = []config.Screen{{Width: 100, Height: 50}, {Width: 100, Height: 50}}

	var opened []*recordingSink
	p := NewScrollProject(cfg, &memSource{img: gradient(200, 100)}, "test")
	p.NewSink = func(_ context.Context, i int, _ config.Screen) (video.FrameSink, error) {
		if i == 1 {
			return nil, errors.New("no encoder")
		}
		s := &recordingSink{}
		opened = append(opened, s)
		return s, nil
	}

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screen 1")
	require.Len(t, opened, 1)
	assert.True(t, opened[0].closed)
}

func TestPrepareRouteSources(t *testing.T) {
	t.Run("points", func(t *testing.T) {
		cfg := testConfig()
		cfg.Points = "0,0;0.5,1;1,0"
		cfg.Bezier = true
		cfg.BezierRes = 5

		p := NewScrollProject(cfg, &memSource{img: gradient(200, 100)}, "test")
		scene, err := p.Prepare(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, scene.Path.Len())
		require.Len(t, scene.Surfaces, 1)
		assert.Equal(t, image.Pt(200, 100), scene.Surfaces[0].Size())
	})

	t.Run("route file", func(t *testing.T) {
		route := director.NewRoute([]director.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
		route.Speed = 2
		path := filepath.Join(t.TempDir(), "route.yaml")
		require.NoError(t, director.WriteRoute(route, path))

		cfg := testConfig()
		cfg.Points = ""
		cfg.Route = path

		p := NewScrollProject(cfg, &memSource{img: gradient(200, 100)}, "test")
		scene, err := p.Prepare(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, scene.Path.Len())
		// 2 units/s at scale 2.
		assert.InDelta(t, 0.001, float64(scene.Playback.Speed()), 1e-12)
	})

	t.Run("auto", func(t *testing.T) {
		cfg := testConfig()
		cfg.Points = config.AutoPoints
		cfg.Detector = "grid"

		p := NewScrollProject(cfg, &memSource{img: gradient(200, 100)}, "test")
		scene, err := p.Prepare(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 9, scene.Path.Len())
		for _, pt := range scene.Path.Points() {
			assert.True(t, pt.X >= 0 && pt.X <= 1 && pt.Y >= 0 && pt.Y <= 1, "point %v", pt)
		}
	})

	t.Run("invalid points", func(t *testing.T) {
		cfg := testConfig()
		cfg.Points = "0,0"

		p := NewScrollProject(cfg, &memSource{img: gradient(200, 100)}, "test")
		_, err := p.Prepare(context.Background())
		assert.ErrorIs(t, err, director.ErrTooFewPoints)
	})
}

func TestTotalFrames(t *testing.T) {
	cfg := testConfig()
	p := NewScrollProject(cfg, nil, "test")

	cfg.Duration, cfg.FPS = 2.5, 30
	assert.Equal(t, 75, p.totalFrames())

	cfg.Duration = 0.001
	assert.Equal(t, 1, p.totalFrames())

	cfg.Duration = 0
	assert.Equal(t, -1, p.totalFrames())
}
