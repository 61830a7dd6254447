//go:build cgo

package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/bowlcheck/internal/imaging"
	"github.com/ironsheep/bowlcheck/internal/remote"
)

// Tesseract extracts text through the native Tesseract engine.
//
// A new gosseract client is created for every call, so a Tesseract value
// may be shared between goroutines.
type Tesseract struct {
	cfg Config
}

// NewTesseract checks that the engine starts with cfg and returns a reader.
func NewTesseract(cfg Config) (*Tesseract, error) {
	cfg.applyDefaults()
	t := &Tesseract{cfg: cfg}

	client, err := t.client()
	if err != nil {
		return nil, err
	}
	client.Close()
	return t, nil
}

func (t *Tesseract) client() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, remote.Unavailable(ServiceName, fmt.Errorf("set tessdata prefix: %w", err))
		}
	}
	if err := client.SetLanguage(t.cfg.Language); err != nil {
		client.Close()
		return nil, remote.Unavailable(ServiceName, fmt.Errorf("set language: %w", err))
	}
	// Receipts are a single column of lines.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, remote.Unavailable(ServiceName, fmt.Errorf("set page segmentation: %w", err))
	}
	return client, nil
}

// ExtractText reads img in every preprocessing variant and returns the
// longest text found. An empty image or one without text gives "".
// It returns ctx.Err() as soon as ctx is done, even while the engine is
// still busy with a variant.
func (t *Tesseract) ExtractText(ctx context.Context, img image.Image) (string, error) {
	if imaging.IsEmpty(img) {
		return "", nil
	}
	return readBounded(ctx, func() (string, error) { return t.read(ctx, img) })
}

// read owns its client, so it may outlive a cancelled ExtractText call.
func (t *Tesseract) read(ctx context.Context, img image.Image) (string, error) {
	client, err := t.client()
	if err != nil {
		return "", err
	}
	defer client.Close()

	var texts []string
	var errs []error
	for _, v := range Variants(img, t.cfg.Scales) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		data, err := imaging.EncodePNG(v.Image)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Name, err))
			continue
		}
		if err := client.SetImageFromBytes(data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Name, err))
			continue
		}
		text, err := client.Text()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Name, err))
			continue
		}
		t.cfg.Logger.Debug("ocr variant read", "variant", v.Name, "chars", len(text))
		texts = append(texts, text)
	}

	if len(texts) == 0 && len(errs) > 0 {
		return "", remote.Transient(ServiceName, errors.Join(errs...))
	}
	return longest(texts), nil
}

// Info reports the engine version.
func (t *Tesseract) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()
	return Info{Available: true, Version: client.Version(), Backend: "gosseract"}
}
