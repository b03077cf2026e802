package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/scrollbg/internal/director"
)

func TestOffset(t *testing.T) {
	img := image.Pt(3000, 1500)
	view := image.Pt(1920, 1080)

	tests := []struct {
		pos  director.Point
		want image.Point
	}{
		{director.Point{X: 0, Y: 0}, image.Pt(0, 0)},
		{director.Point{X: 1, Y: 1}, image.Pt(-1080, -420)},
		{director.Point{X: 0.5, Y: 0.5}, image.Pt(-540, -210)},
		{director.Point{X: 0.3333, Y: 0.1}, image.Pt(-359, -42)},
		{director.Point{X: -0.5, Y: 2}, image.Pt(0, -420)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Offset(tt.pos, img, view), "pos %v", tt.pos)
	}

	// Image no larger than the screen never moves.
	assert.Equal(t, image.Pt(0, 0), Offset(director.Point{X: 1, Y: 1}, view, view))
}

func TestOffsetSharedAcrossScreens(t *testing.T) {
	pos := director.Point{X: 0.25, Y: 0.75}

	a := Offset(pos, image.Pt(2000, 2000), image.Pt(1000, 1000))
	b := Offset(pos, image.Pt(600, 400), image.Pt(200, 200))
	assert.Equal(t, image.Pt(-250, -750), a)
	assert.Equal(t, image.Pt(-100, -150), b)
}

func TestCompose(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, 2, 2))
	Compose(dst, src, image.Pt(-2, -1))
	assert.Equal(t, color.RGBA{R: 2, G: 1, A: 255}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 3, G: 2, A: 255}, dst.RGBAAt(1, 1))

	// A source smaller than the screen leaves black borders.
	big := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for i := range big.Pix {
		big.Pix[i] = 200
	}
	Compose(big, src, image.Pt(0, 0))
	assert.Equal(t, color.RGBA{R: 1, G: 1, A: 255}, big.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{A: 255}, big.RGBAAt(5, 5))
}
