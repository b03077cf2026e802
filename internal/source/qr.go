package source

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length of generated calibration images.
const DefaultQRSize = 2048

// QRSource renders a QR code of a text as a single-page background. The
// high-contrast grid makes scroll speed and direction easy to check.
type QRSource struct {
	code *qrcode.QRCode
	size int
}

func NewQRSource(text string, size int) (*QRSource, error) {
	if text == "" {
		return nil, fmt.Errorf("qr source needs text")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return &QRSource{code: code, size: size}, nil
}

func (q *QRSource) PageCount() int { return 1 }

func (q *QRSource) GetPageDimensions(index int) (float64, float64, error) {
	return float64(q.size), float64(q.size), nil
}

func (q *QRSource) RenderPage(index int, dpi int) (image.Image, error) {
	return q.code.Image(q.size), nil
}

func (q *QRSource) Close() error { return nil }
