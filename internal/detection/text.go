package detection

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/bowlcheck/internal/imaging"
)

// EdgeDensity returns the fraction of edge pixels (value 255) in rect.
// Print on paper produces dense short edges; bare paper and smooth food
// surfaces produce very few.
func EdgeDensity(edges *image.Gray, rect image.Rectangle) float64 {
	r := rect.Intersect(edges.Bounds())
	area := r.Dx() * r.Dy()
	if area == 0 {
		return 0
	}

	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges.GrayAt(x, y).Y == 255 {
				count++
			}
		}
	}
	return float64(count) / float64(area)
}

// TextureScore rates how receipt-like a region looks when no paper outline
// could be found.
//
// The score is the variance of the Laplacian (sharp print gives high values)
// plus half the distance of mean brightness from mid-gray, so a bright area
// outranks an equally busy dark one. Regions too small for a Laplacian
// score 0 on the first term.
func TextureScore(gray *image.Gray, rect image.Rectangle) float64 {
	var variance float64
	if lap := imaging.Laplacian(gray, rect); len(lap) > 1 {
		_, variance = stat.MeanVariance(lap, nil)
	}

	var brightness float64
	if vals := imaging.Intensities(gray, rect); len(vals) > 0 {
		brightness = stat.Mean(vals, nil)
	}

	return variance + (brightness-128)*0.5
}
