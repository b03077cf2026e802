package director

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a 2-D coordinate in path space. Waypoints meant for the viewport
// mapping live in [0,1]x[0,1].
type Point = r2.Vec

// ErrTooFewPoints is returned when a waypoint list has fewer than two points.
var ErrTooFewPoints = errors.New("need at least two points")

// ErrNotFinite is returned for NaN or infinite coordinates.
var ErrNotFinite = errors.New("coordinate is not finite")

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkFinite returns the index of the first point with a NaN or infinite
// coordinate wrapped in ErrNotFinite.
func checkFinite(points []Point) error {
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("point %d (%v, %v): %w", i, p.X, p.Y, ErrNotFinite)
		}
	}
	return nil
}

// midpoint returns the point halfway between a and b.
func midpoint(a, b Point) Point {
	return r2.Add(a, r2.Scale(0.5, r2.Sub(b, a)))
}

// ParseWaypoints parses "x0,y0;x1,y1;...". Surrounding whitespace and a
// trailing ';' are accepted.
func ParseWaypoints(s string) ([]Point, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	if s == "" {
		return nil, fmt.Errorf("point string is empty: %w", ErrTooFewPoints)
	}

	parts := strings.Split(s, ";")
	points := make([]Point, 0, len(parts))
	for i, part := range parts {
		coords := strings.Split(part, ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("point %d %q: points need two dimensions, got %d", i, part, len(coords))
		}

		var xy [2]float64
		for j, c := range coords {
			c = strings.TrimSpace(c)
			if c == "" {
				return nil, fmt.Errorf("point %d %q: empty coordinate", i, part)
			}
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, fmt.Errorf("point %d %q: invalid number format: %w", i, part, err)
			}
			if !finite(v) {
				return nil, fmt.Errorf("point %d %q: %w", i, part, ErrNotFinite)
			}
			xy[j] = v
		}
		points = append(points, Point{X: xy[0], Y: xy[1]})
	}

	if len(points) < 2 {
		return nil, fmt.Errorf("point string %q has %d point(s): %w", s, len(points), ErrTooFewPoints)
	}
	return points, nil
}

// FormatWaypoints is the inverse of ParseWaypoints.
func FormatWaypoints(points []Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
	}
	return b.String()
}
