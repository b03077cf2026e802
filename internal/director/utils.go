package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RoutesDir is where generated routes are stored by default.
var RoutesDir = filepath.Join("internal", "routes")

// GenerateRoutePath creates a timestamped route filename
func GenerateRoutePath() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(RoutesDir, fmt.Sprintf("route_%s.yaml", timestamp))
}

// FindLatestRoute finds the most recently modified route file in dir.
func FindLatestRoute(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read routes directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var routes []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		routes = append(routes, candidate{filepath.Join(dir, name), info.ModTime()})
	}

	if len(routes) == 0 {
		return "", fmt.Errorf("no route files found in %s", dir)
	}

	// Newest first
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].modTime.After(routes[j].modTime)
	})

	return routes[0].path, nil
}
