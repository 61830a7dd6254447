package receipt

import (
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ironsheep/bowlcheck/internal/ingredient"
)

// DefaultThreshold is the minimum similarity for a term to be accepted.
const DefaultThreshold = 80.0

// minWindowRunes is the shortest space-free window worth scoring. Shorter
// fragments match too many short terms by accident.
const minWindowRunes = 3

var quantityToken = regexp.MustCompile(`^\d*x\d*$`)

// Extraction is the outcome of reading one receipt.
type Extraction struct {
	// Candidates holds one receipt-sourced candidate per recognised
	// ingredient, in registry order.
	Candidates []ingredient.Candidate `json:"candidates"`

	// Lines are the cleaned token lines that were scored.
	Lines []string `json:"lines,omitempty"`

	// OCRFailure is set when the text contained nothing readable.
	OCRFailure bool `json:"ocr_failure"`
}

// Extractor matches receipt text against a registry.
type Extractor struct {
	reg       *ingredient.Registry
	threshold float64
	log       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithThreshold overrides the acceptance threshold (0-100).
func WithThreshold(t float64) Option {
	return func(e *Extractor) {
		if t > 0 {
			e.threshold = t
		}
	}
}

// WithLogger sets the logger used for per-line match diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Extractor over reg.
func New(reg *ingredient.Registry, opts ...Option) *Extractor {
	e := &Extractor{
		reg:       reg,
		threshold: DefaultThreshold,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Threshold returns the acceptance threshold in use.
func (e *Extractor) Threshold() float64 { return e.threshold }

// Extract finds the registry ingredients named in text.
func (e *Extractor) Extract(text string) Extraction {
	lines := tokenLines(text)
	if len(lines) == 0 {
		e.log.Debug("receipt text has no readable tokens", "chars", len(text))
		return Extraction{Candidates: []ingredient.Candidate{}, OCRFailure: true}
	}

	entries := e.reg.Entries()
	best := make([]float64, len(entries))
	for i, entry := range entries {
		for _, term := range entry.Terms() {
			k := len(strings.Fields(term))
			for _, tokens := range lines {
				if s := bestWindow(tokens, term, k); s > best[i] {
					best[i] = s
				}
			}
		}
	}

	out := Extraction{Candidates: []ingredient.Candidate{}}
	for _, tokens := range lines {
		out.Lines = append(out.Lines, strings.Join(tokens, " "))
	}
	for i, entry := range entries {
		if best[i] < e.threshold {
			continue
		}
		score := math.Round(best[i]*10) / 10
		e.log.Debug("receipt ingredient matched", "ingredient", entry.Name, "score", score)
		out.Candidates = append(out.Candidates, ingredient.Candidate{
			Name:       entry.Name,
			Confidence: score,
			Source:     ingredient.SourceReceipt,
		})
	}
	return out
}

// bestWindow scores term against every run of k-1, k and k+1 consecutive
// tokens and returns the highest score.
func bestWindow(tokens []string, term string, k int) float64 {
	var best float64
	for size := max(1, k-1); size <= k+1; size++ {
		for start := 0; start+size <= len(tokens); start++ {
			window := strings.Join(tokens[start:start+size], " ")
			if utf8.RuneCountInString(stripSpaces(window)) < minWindowRunes {
				continue
			}
			if s := termScore(window, term); s > best {
				best = s
			}
		}
	}
	return best
}

// tokenLines canonicalizes each line of text and keeps only tokens that can
// be part of an ingredient name. Lines left without tokens are dropped.
func tokenLines(text string) [][]string {
	var lines [][]string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		var tokens []string
		for _, tok := range strings.Fields(ingredient.Canonicalize(raw)) {
			if quantityToken.MatchString(tok) || !hasLetter(tok) {
				continue
			}
			tokens = append(tokens, tok)
		}
		if len(tokens) > 0 {
			lines = append(lines, tokens)
		}
	}
	return lines
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
