package ocr

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// ServiceName identifies the OCR engine in errors and logs.
const ServiceName = "ocr"

// Config selects the Tesseract language data and preprocessing.
type Config struct {
	// Language is a Tesseract language code such as "eng".
	Language string

	// TessdataPrefix is the directory holding *.traineddata files. Empty
	// means the engine's compiled-in default.
	TessdataPrefix string

	// Scales are the grayscale upscaling factors tried on each crop.
	Scales []float64

	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if len(c.Scales) == 0 {
		c.Scales = []float64{1, 1.5, 2}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Error     string `json:"error,omitempty"`
}

// longest returns the candidate with the most non-space characters.
// Earlier candidates win ties.
func longest(texts []string) string {
	best, bestLen := "", -1
	for _, t := range texts {
		n := len(strings.Join(strings.Fields(t), ""))
		if n > bestLen {
			best, bestLen = t, n
		}
	}
	return strings.TrimSpace(best)
}

// readBounded runs read in its own goroutine and stops waiting for it when
// ctx is done. The engine call cannot be interrupted, so read must release
// its own resources.
func readBounded(ctx context.Context, read func() (string, error)) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := read()
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
