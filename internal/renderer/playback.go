package renderer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ivlev/scrollbg/internal/config"
	"github.com/ivlev/scrollbg/internal/director"
	"github.com/ivlev/scrollbg/internal/system"
)

var (
	// ErrSpeed is returned for a non-positive or non-finite speed or scale.
	ErrSpeed = errors.New("speed must be greater than zero")
	// ErrPath is returned for a path that was not produced by director.Build.
	ErrPath = errors.New("path needs at least two points")
)

// Speed is the effective traversal speed in path units per millisecond.
type Speed float64

// NewSpeed applies the image scale factor to the configured speed
// (units per millisecond).
func NewSpeed(perMilli, scale float64) (Speed, error) {
	if !(perMilli > 0) || math.IsInf(perMilli, 0) {
		return 0, fmt.Errorf("%w: got %g", ErrSpeed, perMilli)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return 0, fmt.Errorf("%w: scale %g", ErrSpeed, scale)
	}
	return Speed(config.EffectiveSpeed(perMilli, scale)), nil
}

// segment is the span currently being traversed.
type segment struct {
	index    int
	start    director.Point
	vector   director.Point
	elapsed  float64 // ms
	duration float64 // ms
}

// Playback walks a path at constant speed, one tick per frame. It is not
// safe for concurrent use; callers serialize Tick and share the returned
// position by value.
type Playback struct {
	path  director.Path
	speed Speed

	current  *segment // nil until the first non-zero tick
	position director.Point
	loops    int
}

// NewPlayback creates a playback that has not entered any segment yet.
func NewPlayback(path director.Path, speed Speed) (*Playback, error) {
	if path.Len() < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrPath, path.Len())
	}
	if !(speed > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrSpeed, float64(speed))
	}
	return &Playback{path: path, speed: speed}, nil
}

// Tick advances the clock by delta and returns the current position.
//
// A zero (or negative) delta changes nothing. The first real tick only enters
// segment 0. When a segment completes, the playback moves to the next one and
// the position is left as it was for that frame; the time past the end of the
// finished segment is dropped rather than carried into the next one, so long
// runs drift slightly slower than the nominal speed when frames are coarse
// relative to segment durations.
func (p *Playback) Tick(delta time.Duration) director.Point {
	if delta <= 0 {
		return p.position
	}

	if p.current == nil {
		p.advance()
		return p.position
	}

	seg := p.current
	seg.elapsed += float64(delta) / float64(time.Millisecond)
	if seg.elapsed >= seg.duration {
		p.advance()
		return p.position
	}

	frac := seg.elapsed / seg.duration
	p.position = r2.Add(seg.start, r2.Scale(frac, seg.vector))
	return p.position
}

// advance moves to the next segment, wrapping after the last point.
func (p *Playback) advance() {
	index := 0
	if p.current != nil {
		index = (p.current.index + 1) % p.path.Len()
		if index == 0 {
			p.loops++
		}
	} else {
		p.current = &segment{}
	}

	start, vector := p.path.Segment(index)
	*p.current = segment{
		index:    index,
		start:    start,
		vector:   vector,
		duration: r2.Norm(vector) / float64(p.speed),
	}

	system.Logger().Debug("segment advance",
		"index", index,
		"next", (index+1)%p.path.Len(),
		"overshoot_x", start.X-p.position.X,
		"overshoot_y", start.Y-p.position.Y,
		"duration_ms", p.current.duration,
	)
}

// Position returns the last computed position.
func (p *Playback) Position() director.Point { return p.position }

// Segment returns the index of the current segment; ok is false before the
// first tick.
func (p *Playback) Segment() (index int, ok bool) {
	if p.current == nil {
		return -1, false
	}
	return p.current.index, true
}

// SegmentDuration returns the traversal time of the current segment in
// milliseconds, or 0 before the first tick.
func (p *Playback) SegmentDuration() float64 {
	if p.current == nil {
		return 0
	}
	return p.current.duration
}

// Loops returns how many times the playback wrapped back to segment 0.
func (p *Playback) Loops() int { return p.loops }

// Speed returns the effective speed.
func (p *Playback) Speed() Speed { return p.speed }
