package ocr

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	bildseg "github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	bcimaging "github.com/ironsheep/bowlcheck/internal/imaging"
)

// Variant is one preprocessed rendition of a receipt crop.
type Variant struct {
	Name  string
	Image image.Image
}

// Variants renders img for OCR: grayscale at each scale (non-positive scales
// are skipped), then an Otsu-binarized copy of the median-filtered grayscale.
// An empty image has no variants.
func Variants(img image.Image, scales []float64) []Variant {
	if bcimaging.IsEmpty(img) {
		return nil
	}

	gray := effect.Grayscale(img)
	w := gray.Bounds().Dx()

	out := make([]Variant, 0, len(scales)+1)
	for _, s := range scales {
		switch {
		case s <= 0:
			continue
		case s == 1:
			out = append(out, Variant{Name: "gray", Image: gray})
		default:
			width := max(1, int(float64(w)*s+0.5))
			out = append(out, Variant{
				Name:  fmt.Sprintf("gray-x%g", s),
				Image: imaging.Resize(gray, width, 0, imaging.CatmullRom),
			})
		}
	}

	smooth := bcimaging.Gray(bcimaging.Denoise(gray, 1))
	out = append(out, Variant{Name: "otsu", Image: bildseg.Threshold(smooth, OtsuLevel(smooth))})
	return out
}

// OtsuLevel returns the threshold that best separates g into two intensity
// classes by maximising between-class variance. Pixels at or above the level
// form the bright class. A single-intensity image returns its one value.
func OtsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}

	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i * n)
	}

	var sumDark float64
	nDark := 0
	best, bestLvl, lastSeen := -1.0, 0, -1
	for lvl := 0; lvl < 256; lvl++ {
		// Level lvl puts intensities below lvl in the dark class.
		if lvl > 0 {
			nDark += hist[lvl-1]
			sumDark += float64((lvl - 1) * hist[lvl-1])
		}
		if hist[lvl] > 0 {
			lastSeen = lvl
		}
		nBright := total - nDark
		if nDark == 0 || nBright == 0 {
			continue
		}
		meanDark := sumDark / float64(nDark)
		meanBright := (sumAll - sumDark) / float64(nBright)
		d := meanBright - meanDark
		between := float64(nDark) * float64(nBright) * d * d
		if between > best {
			best, bestLvl = between, lvl
		}
	}
	if best < 0 {
		return uint8(lastSeen)
	}
	return uint8(bestLvl)
}
