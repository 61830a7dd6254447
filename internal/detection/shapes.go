package detection

import (
	"image"
	"math"
	"sort"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// BoundsOf converts an image.Rectangle to Bounds.
func BoundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b back to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Area is the number of pixels enclosed by b.
func (b Bounds) Area() int {
	return b.Rect().Dx() * b.Rect().Dy()
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// PaperRegion is a connected bright area that may be a printed receipt.
//
// Paper photographs as a bright, roughly rectangular blob whose interior is
// broken up by dark print. The fields record how strongly a blob shows each
// of those traits.
type PaperRegion struct {
	// Bounds is the bounding box of the blob in mask coordinates.
	Bounds Bounds `json:"bounds"`

	// Pixels is the number of bright pixels in the blob.
	Pixels int `json:"pixels"`

	// AreaFraction is the bounding box area relative to the whole mask.
	AreaFraction float64 `json:"area_fraction"`

	// Fill is the row-span fill ratio: for each row the distance between
	// the leftmost and rightmost blob pixel, summed and divided by the
	// bounding box area. Holes left by print do not lower it; rounded or
	// slanted outlines do.
	Fill float64 `json:"fill"`

	// EdgeDensity is the share of edge pixels inside the inset bounding box.
	EdgeDensity float64 `json:"edge_density"`

	// Confidence combines Fill and EdgeDensity into a 0-1 score.
	Confidence float64 `json:"confidence"`
}

// RegionOptions bounds which blobs are considered.
type RegionOptions struct {
	// MinAreaFraction and MaxAreaFraction limit the bounding box size
	// relative to the whole mask.
	MinAreaFraction float64
	MaxAreaFraction float64
}

const (
	// fillFloor is the row-span fill at which rectangularity starts to count.
	// A disc fills about 0.785 of its bounding box, so anything round scores 0.
	fillFloor = 0.8
	fillSpan  = 0.15

	// textDensityFull is the interior edge density treated as fully text-bearing.
	textDensityFull = 0.05
)

// DetectPaperRegions finds bright rectangular blobs that carry print.
//
// Parameters:
//   - mask: Binary image where 255 marks bright (paper-coloured) pixels.
//   - edges: Binary edge image of the same size where 255 marks edges.
//   - opts: Size limits for candidate blobs.
//
// Returns candidates sorted by confidence (highest first), ties broken by
// pixel count. Blobs outside the size limits are dropped; blobs that are not
// rectangular or show no print are kept with a confidence of zero so callers
// can report what was seen.
//
// # Algorithm
//
//  1. Component Finding: flood-fill groups 8-connected bright pixels
//  2. Bounding Box: computed per component
//  3. Rectangularity: row-span fill mapped onto [0, 1] above fillFloor
//  4. Print Check: edge density inside the box, inset to ignore the outline
//  5. Confidence = rectangularity × print score
//
// # Limitations
//
//   - Receipts rotated by more than roughly ten degrees lose rectangularity
//   - A receipt touching a white plate merges with it into one blob
func DetectPaperRegions(mask, edges *image.Gray, opts RegionOptions) []PaperRegion {
	frame := mask.Bounds()
	total := float64(frame.Dx() * frame.Dy())
	if total == 0 {
		return nil
	}

	minPixels := int(opts.MinAreaFraction * total / 4)
	components := findComponents(mask, minPixels)

	regions := make([]PaperRegion, 0, len(components))
	for _, comp := range components {
		b := componentBounds(comp)
		frac := float64(b.Area()) / total
		if frac < opts.MinAreaFraction || frac > opts.MaxAreaFraction {
			continue
		}

		fill := rowSpanFill(comp, b)
		density := EdgeDensity(edges, insetRect(b.Rect()))
		rectScore := clamp01((fill - fillFloor) / fillSpan)
		textScore := clamp01(density / textDensityFull)

		regions = append(regions, PaperRegion{
			Bounds:       b,
			Pixels:       len(comp),
			AreaFraction: math.Round(frac*1000) / 1000,
			Fill:         math.Round(fill*1000) / 1000,
			EdgeDensity:  math.Round(density*1000) / 1000,
			Confidence:   math.Round(rectScore*textScore*1000) / 1000,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Confidence != regions[j].Confidence {
			return regions[i].Confidence > regions[j].Confidence
		}
		return regions[i].Pixels > regions[j].Pixels
	})

	return regions
}

// findComponents groups 8-connected set pixels of mask.
// Components with fewer than minPixels pixels are discarded as noise.
func findComponents(mask *image.Gray, minPixels int) [][]Point {
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()

	set := make([][]bool, height)
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		set[y] = make([]bool, width)
		visited[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			set[y][x] = mask.GrayAt(x+b.Min.X, y+b.Min.Y).Y == 255
		}
	}

	components := make([][]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if set[y][x] && !visited[y][x] {
				comp := make([]Point, 0)
				floodFill(set, visited, x, y, width, height, &comp)
				if len(comp) >= minPixels {
					for i := range comp {
						comp[i].X += b.Min.X
						comp[i].Y += b.Min.Y
					}
					components = append(components, comp)
				}
			}
		}
	}

	return components
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses an explicit stack so large blobs cannot overflow the goroutine stack.
// Marks visited pixels and appends them to comp. Uses 8-connectivity.
func floodFill(set, visited [][]bool, startX, startY, width, height int, comp *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !set[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*comp = append(*comp, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

func componentBounds(comp []Point) Bounds {
	b := Bounds{X1: comp[0].X, Y1: comp[0].Y, X2: comp[0].X + 1, Y2: comp[0].Y + 1}
	for _, p := range comp[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X+1)
		b.Y2 = max(b.Y2, p.Y+1)
	}
	return b
}

// rowSpanFill sums, for each row of b, the span between the leftmost and
// rightmost component pixel, and divides by the area of b.
func rowSpanFill(comp []Point, b Bounds) float64 {
	h := b.Y2 - b.Y1
	lo := make([]int, h)
	hi := make([]int, h)
	for i := range lo {
		lo[i] = math.MaxInt
		hi[i] = -1
	}
	for _, p := range comp {
		r := p.Y - b.Y1
		lo[r] = min(lo[r], p.X)
		hi[r] = max(hi[r], p.X)
	}

	covered := 0
	for i := range lo {
		if hi[i] >= 0 {
			covered += hi[i] - lo[i] + 1
		}
	}
	return float64(covered) / float64(b.Area())
}

// insetRect shrinks r by 5% of its shorter side (at least two pixels) on
// every side so that the outline of a blob does not count as print.
func insetRect(r image.Rectangle) image.Rectangle {
	n := max(2, min(r.Dx(), r.Dy())/20)
	return r.Inset(n)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
