package config

import (
	"fmt"
	"strings"
)

// ScalingMode decides how the background is sized against each screen.
type ScalingMode int

const (
	ScaleStretch   ScalingMode = iota // screen size times scale, aspect ignored
	ScaleFitWidth                     // width = screen width times scale, height by aspect
	ScaleFitHeight                    // height = screen height times scale, width by aspect
)

func (m ScalingMode) String() string {
	switch m {
	case ScaleStretch:
		return "stretch"
	case ScaleFitWidth:
		return "fit-width"
	case ScaleFitHeight:
		return "fit-height"
	}
	return fmt.Sprintf("ScalingMode(%d)", int(m))
}

// ParseScalingMode accepts the mode names and their historical numeric codes.
func ParseScalingMode(s string) (ScalingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stretch", "stretched", "0":
		return ScaleStretch, nil
	case "fit-width", "horizontal", "1":
		return ScaleFitWidth, nil
	case "fit-height", "vertical", "2":
		return ScaleFitHeight, nil
	}
	return 0, fmt.Errorf("scaling mode must be stretch, fit-width or fit-height (0-2), got %q", s)
}
