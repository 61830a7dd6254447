package reconcile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/ironsheep/bowlcheck/internal/ingredient"
)

// ErrInsufficientData is returned when neither side produced a candidate.
var ErrInsufficientData = errors.New("insufficient data: no receipt or visual ingredients")

// Summary provenance values.
const (
	SummaryTemplate = "template"
	SummaryVision   = "vision-service"
)

// Detected is one visually detected ingredient in the exposed result.
type Detected struct {
	Ingredient  string          `json:"ingredient"`
	Name        ingredient.Name `json:"name"`
	Confidence  float64         `json:"confidence"`
	FromReceipt bool            `json:"from_receipt"`
}

// Result is the reconciliation of one image.
//
// Matched, Missing and Unexpected are pairwise disjoint and in registry
// order. Matched ∪ Missing is the receipt set; Matched ∪ Unexpected is the
// visual set.
type Result struct {
	Detected        []Detected `json:"detected_ingredients"`
	Summary         string     `json:"summary"`
	MatchPercentage *float64   `json:"match_percentage"`

	Matched    []ingredient.Name `json:"matched"`
	Missing    []ingredient.Name `json:"missing"`
	Unexpected []ingredient.Name `json:"unexpected"`

	// ReceiptLess is set when the receipt contributed no ingredients.
	ReceiptLess bool `json:"receipt_less"`

	// SummarySource is SummaryTemplate or SummaryVision.
	SummarySource string `json:"summary_source"`
}

type settings struct {
	visionSummary string
}

// Option adjusts a single Reconcile call.
type Option func(*settings)

// WithVisionSummary surfaces a summary written by the vision service in
// place of the templated one. Blank summaries are ignored.
func WithVisionSummary(s string) Option {
	return func(st *settings) {
		st.visionSummary = strings.TrimSpace(s)
	}
}

// Matcher reconciles candidate sets against one registry.
type Matcher struct {
	reg *ingredient.Registry
	log *slog.Logger
}

// New returns a Matcher. A nil logger discards output.
func New(reg *ingredient.Registry, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{reg: reg, log: log}
}

// Reconcile classifies the receipt and visual candidates.
//
// Candidates naming ingredients outside the registry are dropped with a log
// line. Detected lists the visual candidates in their given order, each
// flagged with whether the receipt listed it.
func (m *Matcher) Reconcile(receipt, visual []ingredient.Candidate, opts ...Option) (*Result, error) {
	var st settings
	for _, o := range opts {
		o(&st)
	}

	r := m.nameSet(receipt, "receipt")
	v := m.nameSet(visual, "visual")
	if len(r) == 0 && len(v) == 0 {
		m.log.Warn("nothing to reconcile")
		return nil, ErrInsufficientData
	}

	res := &Result{
		Detected:   make([]Detected, 0, len(visual)),
		Matched:    make([]ingredient.Name, 0),
		Missing:    make([]ingredient.Name, 0),
		Unexpected: make([]ingredient.Name, 0),
	}

	for n := range r {
		if _, ok := v[n]; ok {
			res.Matched = append(res.Matched, n)
		} else {
			res.Missing = append(res.Missing, n)
		}
	}
	for n := range v {
		if _, ok := r[n]; !ok {
			res.Unexpected = append(res.Unexpected, n)
		}
	}
	m.sortNames(res.Matched)
	m.sortNames(res.Missing)
	m.sortNames(res.Unexpected)

	seen := make(map[ingredient.Name]struct{}, len(v))
	for _, c := range visual {
		if _, ok := v[c.Name]; !ok {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		_, onReceipt := r[c.Name]
		res.Detected = append(res.Detected, Detected{
			Ingredient:  m.reg.Display(c.Name),
			Name:        c.Name,
			Confidence:  c.Confidence,
			FromReceipt: onReceipt,
		})
	}

	if len(r) == 0 {
		res.ReceiptLess = true
	} else {
		pct := 100 * float64(len(res.Matched)) / float64(len(r))
		res.MatchPercentage = &pct
	}

	if st.visionSummary != "" {
		res.Summary = st.visionSummary
		res.SummarySource = SummaryVision
	} else {
		res.Summary = m.summarize(res)
		res.SummarySource = SummaryTemplate
	}
	return res, nil
}

// nameSet collects the registered names in cands.
func (m *Matcher) nameSet(cands []ingredient.Candidate, side string) map[ingredient.Name]struct{} {
	set := make(map[ingredient.Name]struct{}, len(cands))
	for _, c := range cands {
		if m.reg.Order(c.Name) < 0 {
			m.log.Info("dropping unregistered ingredient", "side", side, "name", c.Name)
			continue
		}
		set[c.Name] = struct{}{}
	}
	return set
}

func (m *Matcher) sortNames(names []ingredient.Name) {
	sort.Slice(names, func(i, j int) bool {
		return m.reg.Order(names[i]) < m.reg.Order(names[j])
	})
}

func (m *Matcher) list(names []ingredient.Name) string {
	if len(names) == 0 {
		return "none"
	}
	labels := make([]string, len(names))
	for i, n := range names {
		labels[i] = m.reg.Display(n)
	}
	return strings.Join(labels, ", ")
}

// summarize renders the templated summary for res.
func (m *Matcher) summarize(res *Result) string {
	if res.ReceiptLess {
		return fmt.Sprintf("No ingredients could be read from the receipt, so no match percentage is given. Seen in the bowl: %s.",
			m.list(res.Unexpected))
	}
	total := len(res.Matched) + len(res.Missing)
	return fmt.Sprintf("Matched %d of %d receipt ingredients (%.0f%%): %s. Missing: %s. Unexpected: %s.",
		len(res.Matched), total, *res.MatchPercentage,
		m.list(res.Matched), m.list(res.Missing), m.list(res.Unexpected))
}
