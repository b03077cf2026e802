package analyzer

import (
	"fmt"
	"image"
)

// GridDetector splits the image into Cols x Rows equal cells and returns each
// cell as a block. Useful for images with no distinct features.
type GridDetector struct {
	Cols, Rows int
}

func NewGridDetector(cols, rows int) *GridDetector {
	return &GridDetector{Cols: cols, Rows: rows}
}

func (d *GridDetector) Detect(img image.Image) ([]Block, error) {
	if d.Cols < 1 || d.Rows < 1 {
		return nil, fmt.Errorf("grid needs at least one cell, got %dx%d", d.Cols, d.Rows)
	}

	b := img.Bounds()
	blocks := make([]Block, 0, d.Cols*d.Rows)
	for r := 0; r < d.Rows; r++ {
		for c := 0; c < d.Cols; c++ {
			rect := image.Rect(
				b.Min.X+b.Dx()*c/d.Cols,
				b.Min.Y+b.Dy()*r/d.Rows,
				b.Min.X+b.Dx()*(c+1)/d.Cols,
				b.Min.Y+b.Dy()*(r+1)/d.Rows,
			)
			blocks = append(blocks, Block{Rect: rect, Confidence: 1})
		}
	}
	return blocks, nil
}
