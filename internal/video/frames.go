package video

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGSink пишет каждый кадр в пронумерованный PNG-файл.
type PNGSink struct {
	dir     string
	next    int
	encoder png.Encoder
}

func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &PNGSink{dir: dir, encoder: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// FramePath возвращает имя файла для кадра n.
func (s *PNGSink) FramePath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", n))
}

func (s *PNGSink) WriteFrame(frame *image.RGBA) error {
	f, err := os.Create(s.FramePath(s.next))
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := s.encoder.Encode(w, frame); err != nil {
		f.Close()
		return fmt.Errorf("encode frame %d: %w", s.next, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	s.next++
	return f.Close()
}

func (s *PNGSink) Close() error { return nil }
