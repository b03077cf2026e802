package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "grid":
		return NewGridDetector(3, 3), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
