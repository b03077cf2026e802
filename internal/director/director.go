package director

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ivlev/scrollbg/internal/analyzer"
	"github.com/ivlev/scrollbg/internal/system"
)

// ErrResolution is returned when smoothing is requested with fewer than two
// samples per curve.
var ErrResolution = errors.New("bezier resolution must be greater than one")

// Smoothing controls the quadratic Bézier resampling pass.
type Smoothing struct {
	Enabled    bool
	Resolution int // samples per interior waypoint
}

// Path is the immutable sequence of points the playback walks. It is treated
// as a closed loop: the segment after the last point leads back to the first.
type Path struct {
	points []Point
}

// Len returns the number of points.
func (p Path) Len() int { return len(p.points) }

// At returns the i-th point.
func (p Path) At(i int) Point { return p.points[i] }

// Points returns a copy of the points.
func (p Path) Points() []Point {
	out := make([]Point, len(p.points))
	copy(out, p.points)
	return out
}

// Segment returns the start of segment i and the vector to its end, wrapping
// from the last point to the first.
func (p Path) Segment(i int) (start, vector Point) {
	start = p.points[i]
	next := p.points[(i+1)%len(p.points)]
	return start, r2.Sub(next, start)
}

// Build turns waypoints into a path. With smoothing disabled, or with only two
// waypoints, the path equals the waypoints. Otherwise every interior waypoint
// P[i] is replaced by Resolution samples of the quadratic Bézier curve running
// from mid(P[i-1], P[i]) to mid(P[i], P[i+1]) with P[i] as control point, and
// the first and last waypoints are kept as the fixed endpoints.
func Build(waypoints []Point, s Smoothing) (Path, error) {
	if len(waypoints) < 2 {
		return Path{}, fmt.Errorf("got %d point(s): %w", len(waypoints), ErrTooFewPoints)
	}
	if err := checkFinite(waypoints); err != nil {
		return Path{}, err
	}
	if s.Enabled && s.Resolution < 2 {
		return Path{}, fmt.Errorf("got %d: %w", s.Resolution, ErrResolution)
	}

	n := len(waypoints)
	if !s.Enabled || n <= 2 {
		out := make([]Point, n)
		copy(out, waypoints)
		return Path{points: out}, nil
	}

	log := system.Logger()
	out := make([]Point, 0, (n-2)*s.Resolution+2)
	out = append(out, waypoints[0])

	step := 1.0 / float64(s.Resolution-1)
	for i := 1; i < n-1; i++ {
		ctrl := waypoints[i]
		// Both ends relative to the control point.
		d0 := r2.Sub(midpoint(waypoints[i-1], ctrl), ctrl)
		d1 := r2.Sub(midpoint(ctrl, waypoints[i+1]), ctrl)

		for j := 0; j < s.Resolution; j++ {
			t := step * float64(j)
			t2 := t * t
			pt := r2.Add(ctrl, r2.Add(r2.Scale(1-2*t+t2, d0), r2.Scale(t2, d1)))
			out = append(out, pt)
			log.Debug("bezier sample", "waypoint", i, "j", j, "x", pt.X, "y", pt.Y)
		}
	}

	out = append(out, waypoints[n-1])
	return Path{points: out}, nil
}

// RouteFromBlocks builds waypoints that visit detected regions in reading
// order, normalized against the image bounds. With fewer than two regions it
// falls back to the diagonal from the top-left to the bottom-right corner.
func RouteFromBlocks(blocks []analyzer.Block, bounds image.Rectangle) []Point {
	if len(blocks) < 2 || bounds.Empty() {
		return []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	}

	width, height := float64(bounds.Dx()), float64(bounds.Dy())
	sorted := sortBlocks(blocks)
	points := make([]Point, 0, len(sorted))
	for _, b := range sorted {
		// Block rectangles are in image coordinates; the origin may be non-zero.
		cx := float64(b.Rect.Min.X-bounds.Min.X) + float64(b.Rect.Dx())/2
		cy := float64(b.Rect.Min.Y-bounds.Min.Y) + float64(b.Rect.Dy())/2
		points = append(points, Point{
			X: clamp01(cx / width),
			Y: clamp01(cy / height),
		})
	}
	return points
}

// sortBlocks sorts blocks top-to-bottom, then left-to-right within a row.
func sortBlocks(blocks []analyzer.Block) []analyzer.Block {
	sorted := make([]analyzer.Block, len(blocks))
	copy(sorted, blocks)

	const rowThreshold = 20
	sort.SliceStable(sorted, func(i, j int) bool {
		yDiff := sorted[i].Rect.Min.Y - sorted[j].Rect.Min.Y
		if abs(yDiff) > rowThreshold {
			return yDiff < 0
		}
		return sorted[i].Rect.Min.X < sorted[j].Rect.Min.X
	})
	return sorted
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
