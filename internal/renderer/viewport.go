package renderer

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/scrollbg/internal/director"
)

// Offset returns where the top-left corner of a scaled image of size img is
// placed on a screen of size view for a normalized position pos. Each axis is
// -(img - view) * pos truncated toward zero, with pos clamped to [0,1] so the
// screen never shows anything outside the image. Axes where the image is not
// larger than the screen stay at 0.
func Offset(pos director.Point, img, view image.Point) image.Point {
	return image.Point{
		X: axisOffset(pos.X, img.X, view.X),
		Y: axisOffset(pos.Y, img.Y, view.Y),
	}
}

func axisOffset(pos float64, img, view int) int {
	excess := img - view
	if excess <= 0 {
		return 0
	}
	switch {
	case pos < 0:
		pos = 0
	case pos > 1:
		pos = 1
	}
	return int(-float64(excess) * pos)
}

// Compose draws src onto dst with src's top-left corner at offset. Pixels
// src does not cover are cleared to black.
func Compose(dst *image.RGBA, src image.Image, offset image.Point) {
	db := dst.Bounds()
	placed := src.Bounds().Sub(src.Bounds().Min).Add(db.Min).Add(offset)
	if !db.In(placed) {
		draw.Draw(dst, db, image.Black, image.Point{}, draw.Src)
	}
	draw.Draw(dst, db, src, src.Bounds().Min.Sub(offset), draw.Src)
}
