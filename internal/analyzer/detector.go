package analyzer

import "image"

// Block is a region of interest found in a background image.
type Block struct {
	Rect       image.Rectangle // In source image coordinates
	Density    float64         // Share of edge pixels inside Rect, 0.0-1.0
	Confidence float64         // 0.0-1.0
}

// Center returns the midpoint of the block in source image coordinates.
func (b Block) Center() (x, y float64) {
	return float64(b.Rect.Min.X) + float64(b.Rect.Dx())/2, float64(b.Rect.Min.Y) + float64(b.Rect.Dy())/2
}

// Detector finds regions worth visiting when no waypoints are given.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}
