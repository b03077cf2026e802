package effects

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/scrollbg/internal/config"
)

// Surface is a background prepared for one screen.
type Surface struct {
	Screen config.Screen
	Image  *image.RGBA // Scaled background, zero origin
}

// Size returns the scaled image size.
func (s *Surface) Size() image.Point { return s.Image.Bounds().Size() }

// View returns the screen size.
func (s *Surface) View() image.Point { return image.Pt(s.Screen.Width, s.Screen.Height) }

// Scaler sizes the background for each screen.
type Scaler struct {
	Mode  config.ScalingMode
	Scale float64
	// Interpolator defaults to draw.CatmullRom.
	Interpolator draw.Interpolator
}

// ScaledSize returns the background size for a screen. The result is never
// smaller than the screen on either axis, so the viewport always stays
// inside the image.
func ScaledSize(mode config.ScalingMode, scale float64, img, screen image.Point) image.Point {
	var w, h float64
	switch mode {
	case config.ScaleFitWidth:
		w = float64(screen.X) * scale
		h = float64(img.Y) * (w / float64(img.X))
	case config.ScaleFitHeight:
		h = float64(screen.Y) * scale
		w = float64(img.X) * (h / float64(img.Y))
	default:
		w = float64(screen.X) * scale
		h = float64(screen.Y) * scale
	}

	// Округляем вверх, чтобы погрешность float не сделала фон меньше экрана
	return image.Point{
		X: max(screen.X, int(math.Ceil(w-1e-9))),
		Y: max(screen.Y, int(math.Ceil(h-1e-9))),
	}
}

// Prepare scales img for screen.
func (s *Scaler) Prepare(img image.Image, screen config.Screen) (*Surface, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("background image is empty")
	}
	if screen.Width <= 0 || screen.Height <= 0 {
		return nil, fmt.Errorf("screen %s has no area", screen)
	}

	size := ScaledSize(s.Mode, s.Scale, b.Size(), image.Pt(screen.Width, screen.Height))
	dst := image.NewRGBA(image.Rectangle{Max: size})

	interp := s.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	// Масштабируем один раз: кадры потом только вырезают окно из dst
	interp.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	return &Surface{Screen: screen, Image: dst}, nil
}
