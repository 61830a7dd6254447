package receipt

import (
	"math"
	"reflect"
	"testing"

	"github.com/ironsheep/bowlcheck/internal/ingredient"
)

func names(ex Extraction) []ingredient.Name {
	return ingredient.Names(ex.Candidates)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"salmon", "salmon", 100},
		{"", "", 100},
		{"salmon", "", 0},
		{"whte rice", "white rice", 90},
		{"tuna", "tuba", 75},
		{"abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestExtract_SingleLineWithQuantities(t *testing.T) {
	ex := New(ingredient.Default()).Extract("1x White Rice 1x Sesame Seeds")

	want := []ingredient.Name{"white rice", "sesame seed"}
	if got := names(ex); !reflect.DeepEqual(got, want) {
		t.Fatalf("names: got %v, want %v", got, want)
	}
	for _, c := range ex.Candidates {
		if c.Confidence != 100 {
			t.Errorf("%s confidence: got %v, want 100", c.Name, c.Confidence)
		}
		if c.Source != ingredient.SourceReceipt {
			t.Errorf("%s source: got %s", c.Name, c.Source)
		}
	}
	if ex.OCRFailure {
		t.Error("OCRFailure should not be set for readable text")
	}
}

func TestExtract_NoiseTolerance(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []ingredient.Name
	}{
		{"dropped letter", "Whte Rice", []ingredient.Name{"white rice"}},
		{"merged words", "WHITERICE  $3.00", []ingredient.Name{"white rice"}},
		{"split word", "SAL MON", []ingredient.Name{"salmon"}},
		{"alias", "Scallions\nahi", []ingredient.Name{"tuna", "green onion"}},
		{"beyond threshold", "Wh Ri", []ingredient.Name{}},
		{"sesame oil is not seeds", "1x Sesame Oil", []ingredient.Name{}},
		{"oil next to seeds", "1x Sesame Oil\n1x Sesame Seeds", []ingredient.Name{"sesame seed"}},
		{"unrelated lines", "TOTAL 25.90\nTHANK YOU", []ingredient.Name{}},
	}

	ext := New(ingredient.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(ext.Extract(tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtract_CollapsesDuplicates(t *testing.T) {
	ex := New(ingredient.Default()).Extract("Salmn\nSalmon\n2x salmon")

	if len(ex.Candidates) != 1 {
		t.Fatalf("expected one candidate, got %v", ex.Candidates)
	}
	if ex.Candidates[0].Name != "salmon" || ex.Candidates[0].Confidence != 100 {
		t.Errorf("got %v, want salmon at 100", ex.Candidates[0])
	}
	if len(ex.Lines) != 3 {
		t.Errorf("lines: got %v", ex.Lines)
	}
}

func TestExtract_OCRFailure(t *testing.T) {
	tests := []string{"", "   \n\t", "$12.50\n2\n---"}

	ext := New(ingredient.Default())
	for _, text := range tests {
		ex := ext.Extract(text)
		if !ex.OCRFailure {
			t.Errorf("Extract(%q): OCRFailure not set", text)
		}
		if ex.Candidates == nil || len(ex.Candidates) != 0 {
			t.Errorf("Extract(%q): want empty non-nil candidates, got %v", text, ex.Candidates)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "POKEWORKS\n1x Brown Rice\n1x Ahi Tuna\nEdamame\nMasago\nCucumbr\nSpicy Furikake"
	ext := New(ingredient.Default())

	first := ext.Extract(text)
	for i := 0; i < 5; i++ {
		if again := ext.Extract(text); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}

	want := []ingredient.Name{"brown rice", "tuna", "cucumber", "edamame", "masago", "spicy furikake"}
	if got := names(first); !reflect.DeepEqual(got, want) {
		t.Errorf("names: got %v, want %v", got, want)
	}
}

func TestExtract_Threshold(t *testing.T) {
	strict := New(ingredient.Default(), WithThreshold(95))
	if got := names(strict.Extract("Whte Rice")); len(got) != 0 {
		t.Errorf("strict threshold should reject a 90 score, got %v", got)
	}
	if strict.Threshold() != 95 {
		t.Errorf("Threshold: got %v", strict.Threshold())
	}

	lenient := New(ingredient.Default(), WithThreshold(85))
	ex := lenient.Extract("Whte Rice")
	if len(ex.Candidates) != 1 || ex.Candidates[0].Confidence != 90 {
		t.Errorf("lenient threshold: got %v", ex.Candidates)
	}
}
