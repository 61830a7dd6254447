package imaging

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Empty returns a zero-sized image. Regions that could not be located carry
// an Empty image rather than nil so callers never need a nil check.
func Empty() image.Image {
	return image.NewNRGBA(image.Rectangle{})
}

// IsEmpty reports whether img is nil or has no pixels.
func IsEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

// Crop extracts rect from img.
//
// The rectangle is clipped to the image bounds first. When nothing remains
// after clipping, Crop returns Empty(). The result is always anchored at the
// origin.
func Crop(img image.Image, rect image.Rectangle) image.Image {
	if img == nil {
		return Empty()
	}
	r := rect.Intersect(img.Bounds())
	if r.Empty() {
		return Empty()
	}
	return imaging.Crop(img, r)
}

// Fit downsizes img so that neither side exceeds maxSize, preserving aspect
// ratio. Images already within the limit are returned as an origin-anchored
// copy.
//
// Returns the resized image and the factor that maps a coordinate in the
// resized image back to the source (source = resized * scale).
func Fit(img image.Image, maxSize int) (image.Image, float64) {
	b := img.Bounds()
	if b.Empty() {
		return Empty(), 1
	}
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return imaging.Clone(img), 1
	}
	fitted := imaging.Fit(img, maxSize, maxSize, imaging.Box)
	return fitted, float64(b.Dx()) / float64(fitted.Bounds().Dx())
}

// EncodeJPEG encodes img as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveCrops writes bowl and receipt crops next to each other in dir as
// <base>_bowl.jpg and <base>_receipt.jpg, where base is the photo's file name
// without extension. Empty crops are skipped.
//
// Returns the paths that were written, keyed by "bowl" and "receipt".
func SaveCrops(dir, photoPath string, bowl, receipt image.Image) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create crop directory: %w", err)
	}
	base := filepath.Base(photoPath)
	base = base[:len(base)-len(filepath.Ext(base))]

	written := make(map[string]string, 2)
	for _, c := range []struct {
		kind string
		img  image.Image
	}{{"bowl", bowl}, {"receipt", receipt}} {
		if IsEmpty(c.img) {
			continue
		}
		out := filepath.Join(dir, base+"_"+c.kind+".jpg")
		if err := imaging.Save(c.img, out, imaging.JPEGQuality(90)); err != nil {
			return written, fmt.Errorf("failed to save %s crop: %w", c.kind, err)
		}
		written[c.kind] = out
	}
	return written, nil
}
