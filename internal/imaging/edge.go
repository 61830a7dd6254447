package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	bildseg "github.com/anthonynsimon/bild/segment"
)

// Gray converts img to an 8-bit luminance plane anchored at the origin.
func Gray(img image.Image) *image.Gray {
	lum := effect.Grayscale(img)
	g := image.NewGray(image.Rect(0, 0, lum.Bounds().Dx(), lum.Bounds().Dy()))
	draw.Draw(g, g.Bounds(), lum, lum.Bounds().Min, draw.Src)
	return g
}

// BrightMask marks pixels whose smoothed luminance is at or above level.
//
// A Gaussian blur with the given sigma runs first so that thin dark strokes
// (printed text) do not split a bright paper area into fragments. Marked
// pixels are 255, the rest 0. A sigma of zero skips smoothing.
func BrightMask(img image.Image, sigma float64, level uint8) *image.Gray {
	src := img
	if sigma > 0 {
		src = blur.Gaussian(img, sigma)
	}
	return bildseg.Threshold(src, level)
}

// EdgeMask marks pixels whose Sobel gradient magnitude is at or above level.
// Marked pixels are 255, the rest 0.
func EdgeMask(img image.Image, level uint8) *image.Gray {
	return bildseg.Threshold(effect.Sobel(effect.Grayscale(img)), level)
}

// Denoise applies a median filter of the given radius. Median filtering
// removes speckle from photographed paper while keeping glyph edges sharp.
func Denoise(img image.Image, radius float64) image.Image {
	if radius <= 0 {
		return img
	}
	return effect.Median(img, radius)
}

// Laplacian returns the 4-neighbour Laplacian response of every interior
// pixel of gray within rect. Borders of rect are skipped. The result is empty
// when rect is narrower or shorter than three pixels.
func Laplacian(gray *image.Gray, rect image.Rectangle) []float64 {
	r := rect.Intersect(gray.Bounds())
	if r.Dx() < 3 || r.Dy() < 3 {
		return nil
	}
	out := make([]float64, 0, (r.Dx()-2)*(r.Dy()-2))
	for y := r.Min.Y + 1; y < r.Max.Y-1; y++ {
		for x := r.Min.X + 1; x < r.Max.X-1; x++ {
			c := 4 * float64(gray.GrayAt(x, y).Y)
			n := float64(gray.GrayAt(x, y-1).Y) + float64(gray.GrayAt(x, y+1).Y) +
				float64(gray.GrayAt(x-1, y).Y) + float64(gray.GrayAt(x+1, y).Y)
			out = append(out, c-n)
		}
	}
	return out
}

// Intensities returns the luminance of every pixel of gray within rect.
func Intensities(gray *image.Gray, rect image.Rectangle) []float64 {
	r := rect.Intersect(gray.Bounds())
	out := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out = append(out, float64(gray.GrayAt(x, y).Y))
		}
	}
	return out
}
