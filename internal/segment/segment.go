package segment

import (
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/ironsheep/bowlcheck/internal/detection"
	"github.com/ironsheep/bowlcheck/internal/imaging"
)

// Method names how a segmentation was obtained.
type Method string

const (
	MethodPaper      Method = "paper-detection"
	MethodFixedRatio Method = "fixed-ratio"
	MethodDegenerate Method = "degenerate"
)

// Region is one part of the photo.
type Region struct {
	// Image holds the cropped pixels, anchored at the origin. It is never nil;
	// an empty region has zero size.
	Image image.Image `json:"-"`

	// Bounds locates the region in source image coordinates.
	Bounds image.Rectangle `json:"bounds"`

	// Confidence is the segmentation confidence (0-1) shared by both regions.
	Confidence float64 `json:"confidence"`
}

// Empty reports whether the region has no pixels.
func (r Region) Empty() bool { return imaging.IsEmpty(r.Image) }

// Segmentation is the result of splitting one photo.
type Segmentation struct {
	Receipt    Region  `json:"receipt"`
	Bowl       Region  `json:"bowl"`
	Confidence float64 `json:"confidence"`

	// Fallback is set when no paper region was confident enough and the
	// fixed-ratio split was used instead.
	Fallback bool   `json:"fallback"`
	Method   Method `json:"method"`

	// Candidates lists the paper regions that were considered, in source
	// coordinates, best first.
	Candidates []detection.PaperRegion `json:"candidates,omitempty"`
}

// Options tune the segmenter. Zero fields take the defaults below.
type Options struct {
	// MinConfidence is the paper confidence needed to skip the fallback.
	MinConfidence float64

	// FallbackRatio is the share of the longer axis given to the first
	// (left or top) part of a fixed-ratio split.
	FallbackRatio float64

	// WorkSize caps the longer side of the working image.
	WorkSize int

	// BrightThreshold is the luminance at which a pixel counts as paper.
	BrightThreshold uint8

	// EdgeThreshold is the Sobel magnitude at which a pixel counts as an edge.
	EdgeThreshold uint8

	// MinAreaFraction and MaxAreaFraction bound candidate paper size.
	MinAreaFraction float64
	MaxAreaFraction float64
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		MinConfidence:   0.45,
		FallbackRatio:   0.5,
		WorkSize:        320,
		BrightThreshold: 170,
		EdgeThreshold:   80,
		MinAreaFraction: 0.05,
		MaxAreaFraction: 0.9,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.MinConfidence <= 0 {
		o.MinConfidence = d.MinConfidence
	}
	if o.FallbackRatio <= 0 || o.FallbackRatio >= 1 {
		o.FallbackRatio = d.FallbackRatio
	}
	if o.WorkSize <= 0 {
		o.WorkSize = d.WorkSize
	}
	if o.BrightThreshold == 0 {
		o.BrightThreshold = d.BrightThreshold
	}
	if o.EdgeThreshold == 0 {
		o.EdgeThreshold = d.EdgeThreshold
	}
	if o.MinAreaFraction <= 0 {
		o.MinAreaFraction = d.MinAreaFraction
	}
	if o.MaxAreaFraction <= 0 || o.MaxAreaFraction > 1 {
		o.MaxAreaFraction = d.MaxAreaFraction
	}
}

// fallbackConfidenceCap keeps fixed-ratio results clearly below any paper
// detection that would have been accepted.
const fallbackConfidenceCap = 0.2

// Segmenter splits photos. It holds no per-photo state and is safe for
// concurrent use.
type Segmenter struct {
	opts Options
	log  *slog.Logger
}

// New returns a Segmenter. A nil logger discards output.
func New(opts Options, log *slog.Logger) *Segmenter {
	opts.applyDefaults()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Segmenter{opts: opts, log: log}
}

// Options returns the effective tuning.
func (s *Segmenter) Options() Options { return s.opts }

// Segment splits img into receipt and bowl regions.
func (s *Segmenter) Segment(img image.Image) Segmentation {
	if img == nil || img.Bounds().Dx() < 2 || img.Bounds().Dy() < 2 {
		return s.degenerate(img)
	}
	frame := img.Bounds()

	work, scale := imaging.Fit(img, s.opts.WorkSize)
	mask := imaging.BrightMask(work, 1.0, s.opts.BrightThreshold)
	edges := imaging.EdgeMask(work, s.opts.EdgeThreshold)

	regions := detection.DetectPaperRegions(mask, edges, detection.RegionOptions{
		MinAreaFraction: s.opts.MinAreaFraction,
		MaxAreaFraction: s.opts.MaxAreaFraction,
	})
	for i := range regions {
		regions[i].Bounds = detection.BoundsOf(toSource(regions[i].Bounds.Rect(), scale, frame))
	}

	if len(regions) > 0 && regions[0].Confidence >= s.opts.MinConfidence {
		receipt := regions[0].Bounds.Rect()
		bowl := largestRemainder(frame, receipt)
		conf := regions[0].Confidence
		return Segmentation{
			Receipt:    region(img, receipt, conf),
			Bowl:       region(img, bowl, conf),
			Confidence: conf,
			Method:     MethodPaper,
			Candidates: regions,
		}
	}

	best := 0.0
	if len(regions) > 0 {
		best = regions[0].Confidence
	}
	s.log.Warn("receipt not located, using fixed-ratio split",
		"best_confidence", best, "min_confidence", s.opts.MinConfidence, "candidates", len(regions))

	seg := s.fixedRatio(img, work, scale, best)
	seg.Candidates = regions
	return seg
}

// fixedRatio splits the frame along its longer axis and picks the receipt
// side by texture score. The reported confidence is the best paper score seen,
// capped well below the acceptance level.
func (s *Segmenter) fixedRatio(img, work image.Image, scale, best float64) Segmentation {
	frame := img.Bounds()
	first, second := splitRect(frame, s.opts.FallbackRatio)

	gray := imaging.Gray(work)
	scoreFirst := detection.TextureScore(gray, toWork(first, scale, frame))
	scoreSecond := detection.TextureScore(gray, toWork(second, scale, frame))

	receipt, bowl := first, second
	if scoreSecond > scoreFirst {
		receipt, bowl = second, first
	}

	conf := math.Min(best, math.Min(fallbackConfidenceCap, s.opts.MinConfidence/2))
	return Segmentation{
		Receipt:    region(img, receipt, conf),
		Bowl:       region(img, bowl, conf),
		Confidence: conf,
		Fallback:   true,
		Method:     MethodFixedRatio,
	}
}

func (s *Segmenter) degenerate(img image.Image) Segmentation {
	s.log.Warn("image too small to segment, using whole frame as receipt")
	receipt := Region{Image: imaging.Empty()}
	if img != nil {
		receipt = region(img, img.Bounds(), 0)
	}
	return Segmentation{
		Receipt:  receipt,
		Bowl:     Region{Image: imaging.Empty()},
		Fallback: true,
		Method:   MethodDegenerate,
	}
}

func region(img image.Image, r image.Rectangle, conf float64) Region {
	return Region{Image: imaging.Crop(img, r), Bounds: r, Confidence: conf}
}

// splitRect cuts frame along its longer axis; the first part is the left or
// top one and receives ratio of the length.
func splitRect(frame image.Rectangle, ratio float64) (image.Rectangle, image.Rectangle) {
	if frame.Dx() >= frame.Dy() {
		cut := frame.Min.X + clampCut(int(math.Round(float64(frame.Dx())*ratio)), frame.Dx())
		return image.Rect(frame.Min.X, frame.Min.Y, cut, frame.Max.Y),
			image.Rect(cut, frame.Min.Y, frame.Max.X, frame.Max.Y)
	}
	cut := frame.Min.Y + clampCut(int(math.Round(float64(frame.Dy())*ratio)), frame.Dy())
	return image.Rect(frame.Min.X, frame.Min.Y, frame.Max.X, cut),
		image.Rect(frame.Min.X, cut, frame.Max.X, frame.Max.Y)
}

// clampCut keeps both parts of a split at least one pixel wide.
func clampCut(cut, length int) int {
	return max(1, min(length-1, cut))
}

// largestRemainder returns the biggest of the four strips of frame that lie
// entirely left of, right of, above or below receipt.
func largestRemainder(frame, receipt image.Rectangle) image.Rectangle {
	strips := []image.Rectangle{
		image.Rect(frame.Min.X, frame.Min.Y, receipt.Min.X, frame.Max.Y),
		image.Rect(receipt.Max.X, frame.Min.Y, frame.Max.X, frame.Max.Y),
		image.Rect(frame.Min.X, frame.Min.Y, frame.Max.X, receipt.Min.Y),
		image.Rect(frame.Min.X, receipt.Max.Y, frame.Max.X, frame.Max.Y),
	}
	var best image.Rectangle
	bestArea := 0
	for _, r := range strips {
		r = r.Intersect(frame)
		if a := r.Dx() * r.Dy(); a > bestArea {
			best, bestArea = r, a
		}
	}
	return best
}

// toSource maps a rectangle in working-image coordinates back onto frame.
func toSource(r image.Rectangle, scale float64, frame image.Rectangle) image.Rectangle {
	out := image.Rect(
		frame.Min.X+int(math.Floor(float64(r.Min.X)*scale)),
		frame.Min.Y+int(math.Floor(float64(r.Min.Y)*scale)),
		frame.Min.X+int(math.Ceil(float64(r.Max.X)*scale)),
		frame.Min.Y+int(math.Ceil(float64(r.Max.Y)*scale)),
	)
	return out.Intersect(frame)
}

// toWork maps a rectangle in source coordinates onto the working image.
func toWork(r image.Rectangle, scale float64, frame image.Rectangle) image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(r.Min.X-frame.Min.X)/scale)),
		int(math.Floor(float64(r.Min.Y-frame.Min.Y)/scale)),
		int(math.Ceil(float64(r.Max.X-frame.Min.X)/scale)),
		int(math.Ceil(float64(r.Max.Y-frame.Min.Y)/scale)),
	)
}
