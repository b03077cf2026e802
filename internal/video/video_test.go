package video

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollbg/internal/config"
)

func TestBuildFFmpegArgs(t *testing.T) {
	args := buildFFmpegArgs(image.Pt(1280, 720), "out.mp4", Params{FPS: 30, Encoder: "libx264", Quality: 23})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-video_size 1280x720")
	assert.Contains(t, joined, "-framerate 30")
	assert.Contains(t, joined, "-crf 23")
	assert.Equal(t, "out.mp4", args[len(args)-1])

	args = buildFFmpegArgs(image.Pt(2, 2), "x.mp4", Params{FPS: 60, Encoder: "h264_videotoolbox", Quality: 75})
	assert.Contains(t, strings.Join(args, " "), "-b:v 7500k")
}

func TestBuildStackArgs(t *testing.T) {
	screens := []config.Screen{
		{X: 1920, Y: 100, Width: 1280, Height: 1024},
		{X: 0, Y: 0, Width: 1920, Height: 1080},
	}
	args := buildStackArgs([]string{"a.mp4", "b.mp4"}, screens, "final.mp4", Params{FPS: 60, Encoder: "h264_nvenc", Quality: 28})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-i a.mp4 -i b.mp4")
	assert.Contains(t, joined, "[0:v][1:v]xstack=inputs=2:layout=1920_100|0_0")
	assert.Contains(t, joined, "-cq 28")
	assert.Equal(t, "final.mp4", args[len(args)-1])
}

func TestWriteRawRGBAPacksSubImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, sub))
	assert.Equal(t, 2*2*4, buf.Len())
	assert.Equal(t, img.Pix[img.PixOffset(1, 1)], buf.Bytes()[0])
}

func TestPNGSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "screen0")
	sink, err := NewPNGSink(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.WriteFrame(image.NewRGBA(image.Rect(0, 0, 8, 6))))
	}
	require.NoError(t, sink.Close())

	f, err := os.Open(sink.FramePath(2))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 6, cfg.Height)

	_, err = os.Stat(sink.FramePath(3))
	assert.True(t, os.IsNotExist(err))
}

func TestStackSingleInputMoves(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "s0.mp4")
	out := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(in, []byte("video"), 0644))

	require.NoError(t, Stack(t.Context(), []string{in}, []config.Screen{{Width: 1, Height: 1}}, out, Params{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))
	_, err = os.Stat(in)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, Stack(t.Context(), []string{in}, nil, out, Params{}))
}
