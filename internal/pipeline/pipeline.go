package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/bowlcheck/internal/imaging"
	"github.com/ironsheep/bowlcheck/internal/ingredient"
	"github.com/ironsheep/bowlcheck/internal/ocr"
	"github.com/ironsheep/bowlcheck/internal/receipt"
	"github.com/ironsheep/bowlcheck/internal/reconcile"
	"github.com/ironsheep/bowlcheck/internal/remote"
	"github.com/ironsheep/bowlcheck/internal/segment"
	"github.com/ironsheep/bowlcheck/internal/visual"
)

// TextExtractor is the OCR service contract.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) (string, error)
}

var errNoOCR = errors.New("no text extractor configured")

// Options assembles a Pipeline.
type Options struct {
	Registry *ingredient.Registry

	Segment          segment.Options
	ReceiptThreshold float64
	Visual           visual.Options

	// OCR reads receipt crops. Nil means every receipt is unreadable.
	OCR TextExtractor

	// Retry bounds OCR calls. The vision classifier uses Visual.Retry.
	Retry remote.Policy

	// BiasWithReceipt passes the receipt ingredients to the vision service.
	BiasWithReceipt bool

	Logger *slog.Logger
}

// Pipeline verifies bowl photos. It is safe for concurrent use.
type Pipeline struct {
	reg      *ingredient.Registry
	seg      *segment.Segmenter
	receipt  *receipt.Extractor
	detector *visual.Detector
	matcher  *reconcile.Matcher
	ocr      TextExtractor
	retry    remote.Policy
	bias     bool
	log      *slog.Logger
}

// New builds a Pipeline. A nil Registry means the built-in one.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg := opts.Registry
	if reg == nil {
		reg = ingredient.Default()
	}
	retry := opts.Retry
	if retry.Attempts <= 0 {
		retry = remote.DefaultPolicy
	}

	return &Pipeline{
		reg:      reg,
		seg:      segment.New(opts.Segment, log.With("stage", "segment")),
		receipt:  receipt.New(reg, receipt.WithThreshold(opts.ReceiptThreshold), receipt.WithLogger(log.With("stage", "receipt"))),
		detector: visual.New(reg, opts.Visual, log.With("stage", "visual")),
		matcher:  reconcile.New(reg, log.With("stage", "reconcile")),
		ocr:      opts.OCR,
		retry:    retry,
		bias:     opts.BiasWithReceipt,
		log:      log,
	}
}

// Registry returns the registry the pipeline resolves names against.
func (p *Pipeline) Registry() *ingredient.Registry { return p.reg }

// Segment splits img without running the rest of the pipeline.
func (p *Pipeline) Segment(img image.Image) segment.Segmentation { return p.seg.Segment(img) }

// Flags record the degraded paths a run took.
type Flags struct {
	SegmentationFallback bool   `json:"segmentation_fallback"`
	OCRFailure           bool   `json:"ocr_failure"`
	OCRError             string `json:"ocr_error,omitempty"`
	VisionFallback       bool   `json:"vision_fallback"`
	ReceiptLess          bool   `json:"receipt_less"`
}

// Report is everything known about one run.
type Report struct {
	RunID string `json:"run_id"`

	// Result is nil only when the run ended in ErrInsufficientData.
	Result *reconcile.Result `json:"result"`

	Segmentation segment.Segmentation `json:"segmentation"`
	ReceiptText  string               `json:"receipt_text"`
	Receipt      receipt.Extraction   `json:"receipt"`
	Visual       visual.Detection     `json:"visual"`
	Flags        Flags                `json:"flags"`
}

// Process verifies one photo. The report is always returned; the error is
// non-nil only for ErrInsufficientData or a cancelled ctx.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Report, error) {
	rep := &Report{RunID: uuid.NewString()}
	log := p.log.With("run_id", rep.RunID)

	rep.Segmentation = p.seg.Segment(img)
	rep.Flags.SegmentationFallback = rep.Segmentation.Fallback

	receiptDone := make(chan struct{})
	var g errgroup.Group

	g.Go(func() error {
		defer close(receiptDone)
		text, err := p.readReceipt(ctx, rep.Segmentation.Receipt.Image)
		if err != nil {
			log.Warn("receipt text unavailable", "error", err)
			rep.Flags.OCRError = err.Error()
		}
		rep.ReceiptText = text
		rep.Receipt = p.receipt.Extract(text)
		if rep.Receipt.OCRFailure {
			log.Warn("receipt unreadable")
		}
		return nil
	})

	g.Go(func() error {
		var ref []ingredient.Name
		if p.bias {
			select {
			case <-receiptDone:
				ref = ingredient.Names(rep.Receipt.Candidates)
			case <-ctx.Done():
			}
		}
		rep.Visual = p.detector.Detect(ctx, rep.Segmentation.Bowl.Image, ref)
		return nil
	})

	_ = g.Wait()

	rep.Flags.OCRFailure = rep.Receipt.OCRFailure
	rep.Flags.VisionFallback = rep.Visual.FallbackReason != ""

	if err := ctx.Err(); err != nil {
		return rep, err
	}

	var opts []reconcile.Option
	if rep.Visual.Strategy == visual.StrategyVision {
		opts = append(opts, reconcile.WithVisionSummary(rep.Visual.Summary))
	}
	res, err := p.matcher.Reconcile(rep.Receipt.Candidates, rep.Visual.Candidates, opts...)
	if err != nil {
		return rep, err
	}
	rep.Result = res
	rep.Flags.ReceiptLess = res.ReceiptLess

	log.Info("bowl verified",
		"segmentation", rep.Segmentation.Method,
		"receipt", len(rep.Receipt.Candidates),
		"visual", len(rep.Visual.Candidates),
		"strategy", rep.Visual.Strategy,
		"matched", len(res.Matched),
		"missing", len(res.Missing),
		"unexpected", len(res.Unexpected))
	return rep, nil
}

// readReceipt runs OCR with retries. Empty crops read as "".
func (p *Pipeline) readReceipt(ctx context.Context, img image.Image) (string, error) {
	if imaging.IsEmpty(img) {
		return "", nil
	}
	if p.ocr == nil {
		return "", remote.Unavailable(ocr.ServiceName, errNoOCR)
	}
	return remote.Retry(ctx, p.retry, p.log, ocr.ServiceName, func(ctx context.Context) (string, error) {
		return p.ocr.ExtractText(ctx, img)
	})
}

// ProcessFile loads the photo at path and verifies it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Report, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p.Process(ctx, img)
}

// Item is the outcome for one photo of a batch.
type Item struct {
	Path             string  `json:"path"`
	Report           *Report `json:"report,omitempty"`
	Error            string  `json:"error,omitempty"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
	Success          bool    `json:"success"`
}

// ProcessBatch verifies every path with at most concurrency photos in flight.
// Items are returned in input order; a failing photo never stops the batch.
// progress, when non-nil, is called once per finished photo from the worker
// goroutine that processed it.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string, concurrency int, progress func(Item)) []Item {
	if concurrency <= 0 {
		concurrency = 1
	}
	items := make([]Item, len(paths))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			start := time.Now()
			rep, err := p.ProcessFile(ctx, path)
			it := Item{
				Path:             path,
				Report:           rep,
				ProcessingTimeMS: time.Since(start).Milliseconds(),
				Success:          err == nil,
			}
			if err != nil {
				it.Error = err.Error()
				p.log.Warn("photo failed", "path", path, "error", err)
			}
			items[i] = it
			if progress != nil {
				progress(it)
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}
