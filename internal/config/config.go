package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/scrollbg/internal/director"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// AutoPoints asks for waypoints generated from the image content.
const AutoPoints = "auto"

// Output modes.
const (
	OutputVideo  = "video"
	OutputFrames = "frames"
)

// Defaults match the historical command line behaviour.
const (
	DefaultSpeed     = 0.1 // Units per second
	DefaultScale     = 1.0
	DefaultBezierRes = 15
	DefaultFPS       = 60

	// MaxRealtimeFPS is the highest rate the wall clock can pace: it polls in
	// 1 ms steps and reports whole milliseconds.
	MaxRealtimeFPS = 1000
)

type Config struct {
	Image       string  `yaml:"image"`
	Page        int     `yaml:"page"`
	DPI         int     `yaml:"dpi"`
	Scale       float64 `yaml:"scale"`
	ScalingMode string  `yaml:"scaling_mode"`

	Points    string  `yaml:"points"` // "x0,y0;x1,y1;..." or "auto"
	Route     string  `yaml:"route"`
	Detector  string  `yaml:"detector"`
	Speed     float64 `yaml:"speed"` // Units per second
	Bezier    bool    `yaml:"bezier"`
	BezierRes int     `yaml:"bezier_res"`
	FPS       int     `yaml:"fps"`

	Screens    []Screen `yaml:"screens"`
	Duration   float64  `yaml:"duration"` // Seconds; 0 loops until interrupted in realtime mode
	Output     string   `yaml:"output"`
	OutputMode string   `yaml:"output_mode"`
	Realtime   bool     `yaml:"realtime"`
	Workers    int      `yaml:"workers"`

	VideoEncoder string `yaml:"encoder"`
	Quality      int    `yaml:"quality"`
	ShowStats    bool   `yaml:"stats"`
	Debug        bool   `yaml:"debug"`
	BuildVersion string `yaml:"-"`
}

// Screen is one output surface positioned in the virtual desktop.
type Screen struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (s Screen) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", s.Width, s.Height, s.X, s.Y)
}

// Default returns the configuration used when no flag or file overrides a value.
func Default() *Config {
	return &Config{
		DPI:          150,
		Scale:        DefaultScale,
		ScalingMode:  "stretch",
		Speed:        DefaultSpeed,
		BezierRes:    DefaultBezierRes,
		FPS:          DefaultFPS,
		Screens:      []Screen{{Width: 1280, Height: 720}},
		OutputMode:   OutputVideo,
		VideoEncoder: "libx264",
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseScreens parses "WxH+X+Y;WxH+X+Y". The "+X+Y" origin is optional.
func ParseScreens(s string) ([]Screen, error) {
	var screens []Screen
	for i, part := range strings.Split(strings.TrimSuffix(strings.TrimSpace(s), ";"), ";") {
		part = strings.TrimSpace(part)
		fields := strings.Split(part, "+")
		if len(fields) != 1 && len(fields) != 3 {
			return nil, fmt.Errorf("screen %d %q: expected WxH or WxH+X+Y", i, part)
		}

		size := strings.Split(fields[0], "x")
		if len(size) != 2 {
			return nil, fmt.Errorf("screen %d %q: expected WxH", i, part)
		}

		var nums [4]int
		raw := append(size, fields[1:]...)
		for j, r := range raw {
			v, err := strconv.Atoi(strings.TrimSpace(r))
			if err != nil {
				return nil, fmt.Errorf("screen %d %q: %w", i, part, err)
			}
			nums[j] = v
		}
		screens = append(screens, Screen{Width: nums[0], Height: nums[1], X: nums[2], Y: nums[3]})
	}
	return screens, nil
}

// PerMilli converts units per second into units per millisecond.
func PerMilli(unitsPerSecond float64) float64 {
	return unitsPerSecond / 1000.0
}

// SpeedPerMilli returns the configured speed in units per millisecond.
func (c *Config) SpeedPerMilli() float64 {
	return PerMilli(c.Speed)
}

// EffectiveSpeed divides the traversal speed by the image scale factor so a
// larger image keeps the same on-screen pace.
func EffectiveSpeed(speed, scale float64) float64 {
	return speed / scale
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Image == "" {
		bad("need an image")
	}
	if c.Page < 0 {
		bad("page must not be negative, got %d", c.Page)
	}
	if c.DPI <= 0 {
		bad("dpi must be greater than zero, got %d", c.DPI)
	}
	if c.Scale < 1 {
		bad("scale must be greater than or equal to 1, got %g", c.Scale)
	}
	if _, err := ParseScalingMode(c.ScalingMode); err != nil {
		bad("%v", err)
	}
	if c.Points == "" && c.Route == "" {
		bad("need points or a route")
	}
	if c.Points != "" && c.Points != AutoPoints {
		if _, err := director.ParseWaypoints(c.Points); err != nil {
			bad("point string %q is invalid: %v", c.Points, err)
		}
	}
	if c.Speed <= 0 {
		bad("velocity must be greater than zero, got %g", c.Speed)
	}
	if c.Bezier && c.BezierRes <= 1 {
		bad("bezier resolution must be greater than one, got %d", c.BezierRes)
	}
	if c.FPS <= 0 {
		bad("fps must be greater than zero, got %d", c.FPS)
	}
	if c.Realtime && c.FPS > MaxRealtimeFPS {
		bad("fps must not exceed %d in realtime mode, got %d", MaxRealtimeFPS, c.FPS)
	}
	if len(c.Screens) == 0 {
		bad("need at least one screen")
	}
	for i, s := range c.Screens {
		if s.Width <= 0 || s.Height <= 0 {
			bad("screen %d has invalid size %dx%d", i, s.Width, s.Height)
		}
	}
	if c.Duration < 0 {
		bad("duration must not be negative, got %g", c.Duration)
	}
	if c.Duration == 0 && !c.Realtime {
		bad("duration is required unless running in realtime mode")
	}
	if c.OutputMode != OutputVideo && c.OutputMode != OutputFrames {
		bad("output mode must be %s or %s, got %q", OutputVideo, OutputFrames, c.OutputMode)
	}
	if c.Workers < 0 {
		bad("workers must not be negative, got %d", c.Workers)
	}

	return errors.Join(errs...)
}
