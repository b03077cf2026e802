package analyzer

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// ContrastDetector finds high-contrast regions using a Sobel edge map,
// box dilation and connected components. Large images are analyzed on a
// downscaled copy and the regions are mapped back.
type ContrastDetector struct {
	MinBlockArea  int     // Minimum area in analysis pixels²
	EdgeThreshold float64 // Gradient magnitude threshold
	MaxDimension  int     // Longest side of the analysis copy; 0 disables downscaling
	MaxBlocks     int     // Keep at most this many blocks, largest first; 0 keeps all
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
		MaxDimension:  640,
		MaxBlocks:     12,
	}
}

// Detect returns blocks in source image coordinates, largest first.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	src := img.Bounds()
	if src.Empty() {
		return nil, nil
	}

	gray, factor := d.analysisCopy(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	edges := sobel(gray, d.EdgeThreshold)
	mask := dilate(edges, w, h, 2, 2)

	var blocks []Block
	for _, rect := range components(mask, w, h) {
		area := rect.Dx() * rect.Dy()
		if area < d.MinBlockArea {
			continue
		}

		density := float64(countEdges(edges, w, rect)) / float64(area)
		blocks = append(blocks, Block{
			Rect:       scaleRect(rect, factor, src),
			Density:    density,
			Confidence: math.Min(1, 0.5+density),
		})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		ai := blocks[i].Rect.Dx() * blocks[i].Rect.Dy()
		aj := blocks[j].Rect.Dx() * blocks[j].Rect.Dy()
		return ai > aj
	})
	if d.MaxBlocks > 0 && len(blocks) > d.MaxBlocks {
		blocks = blocks[:d.MaxBlocks]
	}

	return blocks, nil
}

// analysisCopy converts img to a zero-origin grayscale image no larger than
// MaxDimension and returns the source/analysis size ratio.
func (d *ContrastDetector) analysisCopy(img image.Image) (*image.Gray, float64) {
	b := img.Bounds()
	factor := 1.0
	if longest := max(b.Dx(), b.Dy()); d.MaxDimension > 0 && longest > d.MaxDimension {
		factor = float64(longest) / float64(d.MaxDimension)
	}

	w := max(1, int(float64(b.Dx())/factor))
	h := max(1, int(float64(b.Dy())/factor))
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if factor == 1 {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	}
	return gray, factor
}

// sobel marks pixels whose gradient magnitude exceeds threshold.
func sobel(gray *image.Gray, threshold float64) []bool {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	edges := make([]bool, w*h)
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			edges[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return edges
}

// dilate grows the mask by radius pixels per iteration so nearby edges merge.
func dilate(mask []bool, w, h, radius, iterations int) []bool {
	cur := mask
	for it := 0; it < iterations; it++ {
		next := make([]bool, len(cur))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !cur[y*w+x] {
					continue
				}
				for ny := max(0, y-radius); ny <= min(h-1, y+radius); ny++ {
					row := next[ny*w : ny*w+w]
					for nx := max(0, x-radius); nx <= min(w-1, x+radius); nx++ {
						row[nx] = true
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// components returns bounding rectangles of 4-connected regions of the mask.
func components(mask []bool, w, h int) []image.Rectangle {
	visited := make([]bool, len(mask))
	var out []image.Rectangle
	var stack []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := -1, -1
		stack = append(stack[:0], start)
		visited[start] = true

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w

			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				if n < 0 || n >= len(mask) || visited[n] || !mask[n] {
					continue
				}
				// Horizontal neighbours must stay on the same row.
				if (n == i-1 || n == i+1) && n/w != y {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}

		out = append(out, image.Rect(minX, minY, maxX+1, maxY+1))
	}
	return out
}

func countEdges(edges []bool, w int, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges[y*w+x] {
				n++
			}
		}
	}
	return n
}

// scaleRect maps an analysis rectangle back into the source bounds.
func scaleRect(r image.Rectangle, factor float64, src image.Rectangle) image.Rectangle {
	out := image.Rect(
		src.Min.X+int(float64(r.Min.X)*factor),
		src.Min.Y+int(float64(r.Min.Y)*factor),
		src.Min.X+int(math.Ceil(float64(r.Max.X)*factor)),
		src.Min.Y+int(math.Ceil(float64(r.Max.Y)*factor)),
	)
	return out.Intersect(src)
}
