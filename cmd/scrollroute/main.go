package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/ivlev/scrollbg/internal/analyzer"
	"github.com/ivlev/scrollbg/internal/config"
	"github.com/ivlev/scrollbg/internal/director"
	"github.com/ivlev/scrollbg/internal/source"
)

func main() {
	inputPtr := flag.String("input", "", "Image, image directory, PDF or qr:TEXT to analyze (default: a synthetic slide)")
	pagePtr := flag.Int("page", 0, "Page or image index")
	dpiPtr := flag.Int("dpi", 150, "DPI for PDF rendering")
	detectorPtr := flag.String("detector", "contrast", "Region detector: contrast, grid")
	outputPtr := flag.String("output", "", "Route file (default: generated in internal/routes/)")
	velocityPtr := flag.Float64("velocity", config.DefaultSpeed, "Speed stored in the route, units per second")
	bezierPtr := flag.Bool("bezier", true, "Store Bézier smoothing in the route")
	bezierResPtr := flag.Int("bezier-res", config.DefaultBezierRes, "Samples per smoothed waypoint")
	flag.Parse()

	routePath := *outputPtr
	if routePath == "" {
		routePath = director.GenerateRoutePath()
	}

	fmt.Println("=== Route Generation ===")
	fmt.Printf("Output: %s\n\n", routePath)

	fmt.Println("[1/3] Loading image...")
	img, name, err := loadImage(*inputPtr, *pagePtr, *dpiPtr)
	if err != nil {
		log.Fatalf("[-] Failed to load image: %v", err)
	}
	fmt.Printf("✓ %s (%dx%d)\n\n", name, img.Bounds().Dx(), img.Bounds().Dy())

	fmt.Println("[2/3] Analyzing image for regions of interest...")
	detector, err := analyzer.NewDetector(*detectorPtr)
	if err != nil {
		log.Fatalf("[-] Failed to create detector: %v", err)
	}

	blocks, err := detector.Detect(img)
	if err != nil {
		log.Fatalf("[-] Failed to detect blocks: %v", err)
	}
	fmt.Printf("✓ Detected %d blocks\n", len(blocks))
	for i, block := range blocks {
		fmt.Printf("  Block %d: %v (confidence: %.2f)\n", i+1, block.Rect, block.Confidence)
	}
	fmt.Println()

	fmt.Println("[3/3] Writing YAML route...")
	points := director.RouteFromBlocks(blocks, img.Bounds())
	route := director.NewRoute(points)
	route.Source = name
	route.Speed = *velocityPtr
	route.Bezier = *bezierPtr
	if *bezierPtr {
		route.Resolution = *bezierResPtr
	}

	// Reject settings the player would refuse later.
	if _, err := director.Build(route.Points(), route.Smoothing()); err != nil {
		log.Fatalf("[-] Invalid route: %v", err)
	}

	if err := director.WriteRoute(route, routePath); err != nil {
		log.Fatalf("[-] Failed to write route: %v", err)
	}
	fmt.Printf("✓ Route saved to: %s\n\n", routePath)

	fmt.Println("=== Route Summary ===")
	fmt.Printf("Version: %s\n", route.Version)
	fmt.Printf("Waypoints: %d\n", len(route.Waypoints))
	for i, w := range route.Waypoints {
		fmt.Printf("  %d. (%.3f, %.3f)\n", i+1, w.X, w.Y)
	}
	fmt.Printf("\nPoints: %s\n", director.FormatWaypoints(points))
	fmt.Printf("[+++] Play it: scrollbg -input %s -route %s -duration 10\n", name, routePath)
}

// loadImage opens input, or writes a synthetic slide to a temp file when
// input is empty.
func loadImage(input string, page, dpi int) (image.Image, string, error) {
	if input == "" {
		img := createTestImage(1920, 1080)
		path := filepath.Join(os.TempDir(), "scrollroute_slide.png")
		f, err := os.Create(path)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		if err := png.Encode(f, img); err != nil {
			return nil, "", err
		}
		return img, path, nil
	}

	src, err := source.Open(input)
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	img, err := source.Load(src, page, dpi)
	if err != nil {
		return nil, "", err
	}
	return img, input, nil
}

// createTestImage creates a synthetic slide with text-like blocks
func createTestImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: 240})
		}
	}

	// Title, subtitle, two content columns, footer
	drawRect(img, 200, 100, 1520, 250, color.Gray{Y: 50})
	drawRect(img, 200, 300, 1520, 380, color.Gray{Y: 80})
	drawRect(img, 200, 450, 900, 700, color.Gray{Y: 60})
	drawRect(img, 1020, 450, 1720, 700, color.Gray{Y: 60})
	drawRect(img, 200, 950, 1720, 1020, color.Gray{Y: 100})

	return img
}

func drawRect(img *image.Gray, x1, y1, x2, y2 int, c color.Gray) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, c)
		}
	}
}
