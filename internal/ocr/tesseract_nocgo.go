//go:build !cgo

package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/bowlcheck/internal/remote"
)

var errNoCgo = errors.New("built without cgo, Tesseract is not linked")

// Tesseract is unavailable in builds without cgo.
type Tesseract struct{}

// NewTesseract always fails with an unavailable-service error.
func NewTesseract(cfg Config) (*Tesseract, error) {
	return nil, remote.Unavailable(ServiceName, errNoCgo)
}

// ExtractText always fails with an unavailable-service error.
func (t *Tesseract) ExtractText(ctx context.Context, img image.Image) (string, error) {
	return "", remote.Unavailable(ServiceName, errNoCgo)
}

// Info reports the missing backend.
func (t *Tesseract) Info() Info {
	return Info{Backend: "none", Error: errNoCgo.Error()}
}
