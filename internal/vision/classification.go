package vision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Item is one ingredient named by the model.
type Item struct {
	Ingredient string  `json:"ingredient"`
	Confidence float64 `json:"confidence"`

	// FromReference is set when the model says the ingredient was also in
	// the reference (receipt) list it was given.
	FromReference bool `json:"from_reference"`
}

// Classification is the model's answer for one bowl.
type Classification struct {
	Items   []Item `json:"detected_ingredients"`
	Summary string `json:"summary"`
}

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("reply contains no JSON object")

// flexFloat accepts numbers and numeric strings ("85", "85%").
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("confidence %q is not a number", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type replyItem struct {
	Ingredient    string    `json:"ingredient"`
	Name          string    `json:"name"`
	Confidence    flexFloat `json:"confidence"`
	FromReference *bool     `json:"from_reference"`
	FromReceipt   *bool     `json:"from_receipt"`
}

type reply struct {
	Detected    []replyItem `json:"detected_ingredients"`
	Ingredients []replyItem `json:"ingredients"`
	Summary     string      `json:"summary"`
}

// ParseClassification extracts the JSON object spanning from the first '{'
// to the last '}' of text and decodes it.
//
// Both "detected_ingredients" and "ingredients" are accepted as the list key,
// "ingredient" and "name" as the item name, "from_reference" and
// "from_receipt" as the reference flag. Items without a name are skipped.
func ParseClassification(text string) (*Classification, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}

	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	items := r.Detected
	if items == nil {
		items = r.Ingredients
	}
	if items == nil {
		return nil, errors.New("reply has no ingredient list")
	}

	out := &Classification{Items: make([]Item, 0, len(items)), Summary: strings.TrimSpace(r.Summary)}
	for _, it := range items {
		name := strings.TrimSpace(it.Ingredient)
		if name == "" {
			name = strings.TrimSpace(it.Name)
		}
		if name == "" {
			continue
		}
		fromRef := false
		switch {
		case it.FromReference != nil:
			fromRef = *it.FromReference
		case it.FromReceipt != nil:
			fromRef = *it.FromReceipt
		}
		out.Items = append(out.Items, Item{
			Ingredient:    name,
			Confidence:    float64(it.Confidence),
			FromReference: fromRef,
		})
	}
	return out, nil
}
