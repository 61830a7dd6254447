package visual

import (
	"context"
	"image"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/ironsheep/bowlcheck/internal/imaging"
	"github.com/ironsheep/bowlcheck/internal/ingredient"
	"github.com/ironsheep/bowlcheck/internal/remote"
	"github.com/ironsheep/bowlcheck/internal/vision"
)

// Strategy names reported in Detection.Strategy.
const (
	StrategyVision = "vision-service"
	StrategyColor  = "color-heuristic"
)

// Classifier is the vision service contract.
type Classifier interface {
	Classify(ctx context.Context, img image.Image, vocabulary, reference []string) (*vision.Classification, error)
}

// Options tunes the detector. Zero fields take the defaults below.
type Options struct {
	// MinCoverage is the pixel share (percent) an ingredient's color must
	// exceed before it becomes a candidate. Default 1.
	MinCoverage float64

	// Gain converts coverage percent into confidence. Default 10.
	Gain float64

	// Cap is the highest confidence the heuristic will report. Default 95.
	Cap float64

	// WorkSize caps the longer side of the image the heuristic scans.
	// Default 256.
	WorkSize int

	// Classifier is the optional vision service. Nil means heuristic only.
	Classifier Classifier

	// Retry bounds calls to Classifier.
	Retry remote.Policy
}

func (o *Options) applyDefaults() {
	if o.MinCoverage <= 0 {
		o.MinCoverage = 1
	}
	if o.Gain <= 0 {
		o.Gain = 10
	}
	if o.Cap <= 0 || o.Cap > 100 {
		o.Cap = 95
	}
	if o.WorkSize <= 0 {
		o.WorkSize = 256
	}
	if o.Retry.Attempts <= 0 {
		o.Retry = remote.DefaultPolicy
	}
}

// Detection is the outcome of looking at one bowl.
type Detection struct {
	// Candidates are ranked by confidence, ties in registry order.
	Candidates []ingredient.Candidate `json:"candidates"`

	// Summary is the classifier's own description, empty for the heuristic.
	Summary string `json:"summary,omitempty"`

	// Strategy is StrategyVision or StrategyColor.
	Strategy string `json:"strategy"`

	// FallbackReason is set when a configured classifier failed and the
	// heuristic was used instead.
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Unknown lists classifier names that did not resolve to the registry.
	Unknown []string `json:"unknown,omitempty"`
}

// Detector proposes visual candidates for bowl images.
type Detector struct {
	reg  *ingredient.Registry
	opts Options
	log  *slog.Logger
}

// New returns a detector over reg.
func New(reg *ingredient.Registry, opts Options, log *slog.Logger) *Detector {
	opts.applyDefaults()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Detector{reg: reg, opts: opts, log: log}
}

// Options returns the options in use, defaults applied.
func (d *Detector) Options() Options { return d.opts }

// Detect proposes the ingredients visible in img. reference holds the
// receipt ingredients to mention to the classifier; it may be nil.
//
// Detect never fails. Classifier errors are logged and answered by the
// color heuristic.
func (d *Detector) Detect(ctx context.Context, img image.Image, reference []ingredient.Name) Detection {
	if d.opts.Classifier == nil || imaging.IsEmpty(img) {
		return Detection{Candidates: d.DetectLocal(img), Strategy: StrategyColor}
	}

	refs := make([]string, 0, len(reference))
	for _, n := range reference {
		refs = append(refs, d.reg.Display(n))
	}
	vocab := d.reg.Vocabulary()

	c, err := remote.Retry(ctx, d.opts.Retry, d.log, vision.ServiceName,
		func(ctx context.Context) (*vision.Classification, error) {
			return d.opts.Classifier.Classify(ctx, img, vocab, refs)
		})
	if err != nil {
		d.log.Warn("vision service failed, using color heuristic", "error", err)
		return Detection{
			Candidates:     d.DetectLocal(img),
			Strategy:       StrategyColor,
			FallbackReason: err.Error(),
		}
	}

	det := d.fromClassification(c)
	d.log.Debug("vision service answered", "candidates", len(det.Candidates), "unknown", len(det.Unknown))
	return det
}

// fromClassification resolves classifier names against the registry.
// Unknown names are dropped; repeated names keep their best confidence.
func (d *Detector) fromClassification(c *vision.Classification) Detection {
	best := make(map[ingredient.Name]float64)
	var unknown []string
	for _, it := range c.Items {
		name, ok := d.reg.Resolve(it.Ingredient)
		if !ok {
			d.log.Info("dropping unknown ingredient from vision service", "name", it.Ingredient)
			unknown = append(unknown, it.Ingredient)
			continue
		}
		conf := math.Max(0, math.Min(100, it.Confidence))
		if prev, seen := best[name]; !seen || conf > prev {
			best[name] = conf
		}
	}

	cands := make([]ingredient.Candidate, 0, len(best))
	for name, conf := range best {
		cands = append(cands, ingredient.Candidate{Name: name, Confidence: conf, Source: ingredient.SourceVisual})
	}
	return Detection{
		Candidates: Rank(cands, d.reg),
		Summary:    c.Summary,
		Strategy:   StrategyVision,
		Unknown:    unknown,
	}
}

// DetectLocal runs the color heuristic on img.
//
// For every registry ingredient with a color signature, the share of pixels
// inside the signature is measured. Ingredients whose share exceeds
// MinCoverage become candidates with confidence min(share·Gain, Cap),
// rounded to one decimal. An empty image yields no candidates.
func (d *Detector) DetectLocal(img image.Image) []ingredient.Candidate {
	cands := make([]ingredient.Candidate, 0)
	if imaging.IsEmpty(img) {
		return cands
	}

	work, _ := imaging.Fit(img, d.opts.WorkSize)
	pixels := imaging.HSVPixels(work)

	for _, e := range d.reg.Entries() {
		if e.Color == nil {
			continue
		}
		sig := *e.Color
		cov := imaging.Coverage(pixels, func(p imaging.HSV) bool {
			return sig.Contains(p.H, p.S, p.V)
		})
		if cov <= d.opts.MinCoverage {
			continue
		}
		conf := math.Min(cov*d.opts.Gain, d.opts.Cap)
		cands = append(cands, ingredient.Candidate{
			Name:       e.Name,
			Confidence: math.Round(conf*10) / 10,
			Source:     ingredient.SourceVisual,
		})
	}
	return Rank(cands, d.reg)
}

// Rank returns cands sorted by confidence, highest first. Equal confidences
// keep registry order; names outside the registry sort last by name.
func Rank(cands []ingredient.Candidate, reg *ingredient.Registry) []ingredient.Candidate {
	out := make([]ingredient.Candidate, len(cands))
	copy(out, cands)

	order := func(n ingredient.Name) int {
		if i := reg.Order(n); i >= 0 {
			return i
		}
		return math.MaxInt
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		oi, oj := order(out[i].Name), order(out[j].Name)
		if oi != oj {
			return oi < oj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
