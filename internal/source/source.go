package source

import (
	"fmt"
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source provides the background image. Multi-page sources (PDF, image
// directories) select the background by page index.
type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// QRPrefix selects the generated calibration source.
const QRPrefix = "qr:"

// Open picks the source implementation for input: "qr:TEXT", a PDF file, an
// image file or a directory of images.
func Open(input string) (Source, error) {
	switch {
	case strings.HasPrefix(input, QRPrefix):
		return NewQRSource(strings.TrimPrefix(input, QRPrefix), 0)
	case strings.HasSuffix(strings.ToLower(input), ".pdf"):
		return NewFitzPDFSource(input)
	default:
		return NewImageSource(input)
	}
}

// Load renders one page of src.
func Load(src Source, page, dpi int) (image.Image, error) {
	if n := src.PageCount(); page < 0 || page >= n {
		return nil, fmt.Errorf("page %d out of range, source has %d", page, n)
	}
	img, err := src.RenderPage(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	img, err := f.doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
