package ingredient

import "fmt"

// Name is a canonical ingredient key produced by the registry.
type Name string

// Source identifies which side of the pipeline produced a candidate.
type Source string

const (
	// SourceVisual marks candidates produced from the bowl image.
	SourceVisual Source = "visual"
	// SourceReceipt marks candidates produced from receipt text.
	SourceReceipt Source = "receipt"
)

// Candidate is one ingredient proposed by an extractor, with a confidence in
// [0,100]. Candidates are values; producers never mutate them after emitting.
type Candidate struct {
	Name       Name    `json:"name"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s(%s %.1f)", c.Name, c.Source, c.Confidence)
}

// Names returns the candidate names in input order.
func Names(cands []Candidate) []Name {
	out := make([]Name, len(cands))
	for i, c := range cands {
		out[i] = c.Name
	}
	return out
}

// ColorSignature is an HSV box describing how an ingredient tends to look.
//
// Hue is in degrees [0,360]; Saturation and Value are in [0,1]. When
// Hue[0] > Hue[1] the hue range wraps through 0.
type ColorSignature struct {
	Hue        [2]float64 `json:"hue"`
	Saturation [2]float64 `json:"saturation"`
	Value      [2]float64 `json:"value"`
}

// Contains reports whether the HSV triple falls inside the signature.
func (s ColorSignature) Contains(h, sat, val float64) bool {
	if sat < s.Saturation[0] || sat > s.Saturation[1] {
		return false
	}
	if val < s.Value[0] || val > s.Value[1] {
		return false
	}
	if s.Hue[0] <= s.Hue[1] {
		return h >= s.Hue[0] && h <= s.Hue[1]
	}
	return h >= s.Hue[0] || h <= s.Hue[1]
}

func (s ColorSignature) validate() error {
	if s.Hue[0] < 0 || s.Hue[0] > 360 || s.Hue[1] < 0 || s.Hue[1] > 360 {
		return fmt.Errorf("hue range %v outside [0,360]", s.Hue)
	}
	for _, r := range [][2]float64{s.Saturation, s.Value} {
		if r[0] < 0 || r[1] > 1 || r[0] > r[1] {
			return fmt.Errorf("range %v outside [0,1] or inverted", r)
		}
	}
	return nil
}
