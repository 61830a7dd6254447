package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/ironsheep/bowlcheck/internal/config"
	"github.com/ironsheep/bowlcheck/internal/ingredient"
	"github.com/ironsheep/bowlcheck/internal/ocr"
	"github.com/ironsheep/bowlcheck/internal/vision"
)

// FromConfig wires a Pipeline with the services cfg enables.
//
// Services that cannot start are logged and left out: without Tesseract
// every receipt reads as empty, without a vision client the color heuristic
// is used. Only an unreadable registry file is an error.
func FromConfig(cfg config.Config, log *slog.Logger) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}

	reg := ingredient.Default()
	if cfg.RegistryPath != "" {
		r, err := ingredient.Load(cfg.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		reg = r
	}

	opts := Options{
		Registry:         reg,
		Segment:          cfg.SegmentOptions(),
		ReceiptThreshold: cfg.Receipt.AcceptThreshold,
		Visual:           cfg.VisualOptions(),
		Retry:            cfg.RetryPolicy(),
		BiasWithReceipt:  cfg.Vision.BiasWithReceipt,
		Logger:           log,
	}

	ocrCfg := cfg.OCRClient()
	ocrCfg.Logger = log.With("service", ocr.ServiceName)
	if t, err := ocr.NewTesseract(ocrCfg); err != nil {
		log.Warn("OCR disabled", "error", err)
	} else {
		opts.OCR = t
	}

	if cfg.VisionEnabled() {
		c, err := vision.NewOpenAI(cfg.VisionClient())
		if err != nil {
			log.Warn("vision service disabled", "error", err)
		} else {
			opts.Visual.Classifier = c
			log.Info("vision service enabled", "model", c.Model())
		}
	} else {
		log.Info("vision service not configured, using color heuristic")
	}

	return New(opts), nil
}
