package director

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteRoute writes a route to a YAML file, creating the parent directory.
func WriteRoute(route *Route, path string) error {
	data, err := yaml.Marshal(route)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadRoute reads a route from a YAML file.
func ReadRoute(path string) (*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var route Route
	if err := yaml.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("parse route %s: %w", path, err)
	}
	if len(route.Waypoints) < 2 {
		return nil, fmt.Errorf("route %s has %d waypoint(s): %w", path, len(route.Waypoints), ErrTooFewPoints)
	}
	if err := checkFinite(route.Points()); err != nil {
		return nil, fmt.Errorf("route %s: %w", path, err)
	}

	return &route, nil
}
