package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a pixel in hue/saturation/value space.
//
// H is in degrees (0-360, 0=red, 120=green, 240=blue). S and V are in [0, 1].
type HSV struct {
	H float64
	S float64
	V float64
}

// HSVPixels converts every opaque pixel of img to HSV.
//
// Fully transparent pixels are skipped; they carry no color information and
// would otherwise count as black.
func HSVPixels(img image.Image) []HSV {
	if IsEmpty(img) {
		return nil
	}
	b := img.Bounds()
	out := make([]HSV, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, s, v := c.Hsv()
			out = append(out, HSV{H: h, S: s, V: v})
		}
	}
	return out
}

// Coverage returns the percentage (0-100) of pixels for which match is true.
// An empty pixel set has zero coverage.
func Coverage(pixels []HSV, match func(HSV) bool) float64 {
	if len(pixels) == 0 {
		return 0
	}
	n := 0
	for _, p := range pixels {
		if match(p) {
			n++
		}
	}
	return float64(n) * 100 / float64(len(pixels))
}

// MeanColor returns the average color of img's opaque pixels as "#rrggbb".
// Averaging happens in linear RGB so that bright and dark patches blend the
// way they would optically. Empty images report "#000000".
func MeanColor(img image.Image) string {
	if IsEmpty(img) {
		return "#000000"
	}
	var r, g, bl float64
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			lr, lg, lb := c.LinearRgb()
			r += lr
			g += lg
			bl += lb
			n++
		}
	}
	if n == 0 {
		return "#000000"
	}
	return colorful.LinearRgb(r/float64(n), g/float64(n), bl/float64(n)).Clamped().Hex()
}
