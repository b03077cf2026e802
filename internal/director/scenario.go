package director

// Route is a reusable path description stored as YAML.
type Route struct {
	Version    string     `yaml:"version"`
	Source     string     `yaml:"source,omitempty"` // Image the route was generated from
	Speed      float64    `yaml:"speed,omitempty"`  // Units per second
	Bezier     bool       `yaml:"bezier,omitempty"`
	Resolution int        `yaml:"resolution,omitempty"`
	Waypoints  []Waypoint `yaml:"waypoints"`
}

// Waypoint is the YAML form of a Point.
type Waypoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// NewRoute wraps points into a version 1.0 route.
func NewRoute(points []Point) *Route {
	r := &Route{Version: "1.0"}
	for _, p := range points {
		r.Waypoints = append(r.Waypoints, Waypoint{X: p.X, Y: p.Y})
	}
	return r
}

// Points converts the stored waypoints.
func (r *Route) Points() []Point {
	points := make([]Point, len(r.Waypoints))
	for i, w := range r.Waypoints {
		points[i] = Point{X: w.X, Y: w.Y}
	}
	return points
}

// Smoothing returns the smoothing settings recorded in the route.
func (r *Route) Smoothing() Smoothing {
	return Smoothing{Enabled: r.Bezier, Resolution: r.Resolution}
}
