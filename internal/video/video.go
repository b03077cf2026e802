package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/scrollbg/internal/config"
)

// FrameSink принимает отрендеренные кадры по порядку.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// Params - настройки энкодера, общие для всех экранов.
type Params struct {
	FPS     int
	Encoder string
	Quality int
}

// FFmpegSink передает raw RGBA кадры в процесс ffmpeg через stdin.
type FFmpegSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	log   bytes.Buffer
	size  image.Point
	path  string
}

// NewFFmpegSink запускает ffmpeg, который пишет кадры заданного размера в path.
func NewFFmpegSink(ctx context.Context, path string, size image.Point, p Params) (*FFmpegSink, error) {
	s := &FFmpegSink{size: size, path: path}
	s.cmd = exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(size, path, p)...)
	s.cmd.Stdout = &s.log
	s.cmd.Stderr = &s.log

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

func buildFFmpegArgs(size image.Point, path string, p Params) []string {
	args := []string{
		"-y",
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", size.X, size.Y),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		// yuv420p требует четных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-r", fmt.Sprintf("%d", p.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	}
	args = append(args, qualityArgs(p.Encoder, p.Quality)...)
	return append(args, path)
}

// Качество в зависимости от энкодера
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func (s *FFmpegSink) WriteFrame(frame *image.RGBA) error {
	if frame.Rect.Size() != s.size {
		return fmt.Errorf("frame size %v, sink expects %v", frame.Rect.Size(), s.size)
	}
	if err := writeRawRGBA(s.stdin, frame); err != nil {
		return fmt.Errorf("write raw error %s: %w", s.path, err)
	}
	return nil
}

// Close закрывает поток и ждет, пока ffmpeg допишет файл.
func (s *FFmpegSink) Close() error {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error %s: %w\nLog: %s", s.path, err, strings.TrimSpace(s.log.String()))
	}
	return nil
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 || img.Rect.Min.X != 0 || img.Rect.Min.Y != 0 {
		packed := image.NewRGBA(image.Rectangle{Max: bounds.Size()})
		draw.Draw(packed, packed.Bounds(), img, bounds.Min, draw.Src)
		img = packed
	}
	_, err := w.Write(img.Pix)
	return err
}

// Stack собирает видео всех экранов в один файл с той же раскладкой, что и
// экраны, через xstack. Единственный вход просто переносится в final.
func Stack(ctx context.Context, inputs []string, screens []config.Screen, final string, p Params) error {
	if len(inputs) != len(screens) {
		return fmt.Errorf("stack: %d inputs for %d screens", len(inputs), len(screens))
	}
	if len(inputs) == 1 {
		return moveFile(inputs[0], final)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", buildStackArgs(inputs, screens, final, p)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg xstack error: %v, output: %s", err, string(out))
	}
	return nil
}

func buildStackArgs(inputs []string, screens []config.Screen, final string, p Params) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	// Позиции xstack считаются от самого левого верхнего экрана
	minX, minY := screens[0].X, screens[0].Y
	for _, s := range screens[1:] {
		minX, minY = min(minX, s.X), min(minY, s.Y)
	}

	var streams, layout strings.Builder
	for i, s := range screens {
		fmt.Fprintf(&streams, "[%d:v]", i)
		if i > 0 {
			layout.WriteByte('|')
		}
		fmt.Fprintf(&layout, "%d_%d", s.X-minX, s.Y-minY)
	}
	filter := fmt.Sprintf("%sxstack=inputs=%d:layout=%s:fill=black,pad=ceil(iw/2)*2:ceil(ih/2)*2[v]",
		streams.String(), len(inputs), layout.String())

	args = append(args, "-filter_complex", filter, "-map", "[v]",
		"-r", fmt.Sprintf("%d", p.FPS), "-pix_fmt", "yuv420p", "-c:v", p.Encoder)
	args = append(args, qualityArgs(p.Encoder, p.Quality)...)
	return append(args, final)
}

func moveFile(from, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	}

	// Rename не работает между файловыми системами (временная папка на tmpfs)
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(from)
}
