package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/bowlcheck/internal/ingredient"
	"github.com/ironsheep/bowlcheck/internal/ocr"
	"github.com/ironsheep/bowlcheck/internal/reconcile"
	"github.com/ironsheep/bowlcheck/internal/remote"
	"github.com/ironsheep/bowlcheck/internal/segment"
	"github.com/ironsheep/bowlcheck/internal/vision"
	"github.com/ironsheep/bowlcheck/internal/visual"
)

var (
	background = color.RGBA{40, 40, 40, 255}
	paper      = color.RGBA{250, 250, 245, 255}
	ink        = color.RGBA{20, 20, 20, 255}
	salmon     = color.RGBA{230, 120, 60, 255}
)

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

// createScene draws a 200x100 photo: an orange bowl on a dark table at the
// left and a printed receipt at (110,10)-(190,90).
func createScene() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, img.Bounds(), background)
	for y := 20; y <= 80; y++ {
		for x := 20; x <= 80; x++ {
			if (x-50)*(x-50)+(y-50)*(y-50) <= 900 {
				img.Set(x, y, salmon)
			}
		}
	}
	fill(img, image.Rect(110, 10, 190, 90), paper)
	for y := 14; y < 86; y += 8 {
		fill(img, image.Rect(120, y, 180, y+2), ink)
	}
	return img
}

func createGray() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, img.Bounds(), color.RGBA{128, 128, 128, 255})
	return img
}

type fakeOCR struct {
	text  string
	err   error

	// needsInk makes crops without dark print read as "".
	needsInk bool

	calls atomic.Int32

	mu     sync.Mutex
	bounds image.Rectangle
}

func (f *fakeOCR) ExtractText(ctx context.Context, img image.Image) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.bounds = img.Bounds()
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.needsInk && !hasInk(img) {
		return "", f.err
	}
	return f.text, f.err
}

func hasInk(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y < 64 {
				return true
			}
		}
	}
	return false
}

type fakeClassifier struct {
	result *vision.Classification

	mu  sync.Mutex
	ref []string
}

func (f *fakeClassifier) Classify(ctx context.Context, img image.Image, vocabulary, reference []string) (*vision.Classification, error) {
	f.mu.Lock()
	f.ref = reference
	f.mu.Unlock()
	return f.result, nil
}

var fastRetry = remote.Policy{Attempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, CallTimeout: time.Second}

func newPipeline(o TextExtractor, c visual.Classifier, bias bool) *Pipeline {
	return New(Options{
		Segment:         segment.DefaultOptions(),
		Visual:          visual.Options{Classifier: c, Retry: fastRetry},
		OCR:             o,
		Retry:           fastRetry,
		BiasWithReceipt: bias,
	})
}

func resolve(t *testing.T, ss ...string) []ingredient.Name {
	t.Helper()
	reg := ingredient.Default()
	out := make([]ingredient.Name, 0, len(ss))
	for _, s := range ss {
		n, ok := reg.Resolve(s)
		if !ok {
			t.Fatalf("%q is not registered", s)
		}
		out = append(out, n)
	}
	return out
}

func TestProcess_ColorHeuristic(t *testing.T) {
	o := &fakeOCR{text: "1x Salmon\n1x Masago\nTOTAL 14.95"}
	rep, err := newPipeline(o, nil, false).Process(context.Background(), createScene())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if rep.RunID == "" {
		t.Error("run ID should be set")
	}
	if rep.Flags.SegmentationFallback {
		t.Errorf("receipt should be located, got method %s", rep.Segmentation.Method)
	}
	if b := o.bounds; b.Dx() < 78 || b.Dx() > 82 || b.Dy() < 78 || b.Dy() > 82 {
		t.Errorf("OCR should see the receipt crop, got %v", b)
	}
	if rep.Visual.Strategy != visual.StrategyColor {
		t.Errorf("strategy: got %s", rep.Visual.Strategy)
	}

	res := rep.Result
	if want := resolve(t, "Salmon", "Masago"); !reflect.DeepEqual(res.Matched, want) {
		t.Errorf("matched: got %v, want %v", res.Matched, want)
	}
	if want := resolve(t, "Shredded Nori"); !reflect.DeepEqual(res.Unexpected, want) {
		t.Errorf("unexpected: got %v, want %v", res.Unexpected, want)
	}
	if res.MatchPercentage == nil || *res.MatchPercentage != 100 {
		t.Errorf("match percentage: got %v, want 100", res.MatchPercentage)
	}
	if res.SummarySource != reconcile.SummaryTemplate {
		t.Errorf("summary source: got %s", res.SummarySource)
	}
}

func TestProcess_VisionBiasedByReceipt(t *testing.T) {
	fc := &fakeClassifier{result: &vision.Classification{
		Items:   []vision.Item{{Ingredient: "Salmon", Confidence: 88, FromReference: true}},
		Summary: "Salmon over rice, as ordered.",
	}}

	tests := []struct {
		name    string
		bias    bool
		wantRef []string
	}{
		{"biased", true, []string{"Salmon"}},
		{"unbiased", false, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := newPipeline(&fakeOCR{text: "1x Salmon"}, fc, tt.bias).Process(context.Background(), createScene())
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if !reflect.DeepEqual(fc.ref, tt.wantRef) {
				t.Errorf("reference: got %v, want %v", fc.ref, tt.wantRef)
			}
			if rep.Visual.Strategy != visual.StrategyVision {
				t.Errorf("strategy: got %s", rep.Visual.Strategy)
			}
			if rep.Result.Summary != "Salmon over rice, as ordered." || rep.Result.SummarySource != reconcile.SummaryVision {
				t.Errorf("summary: got %q (%s)", rep.Result.Summary, rep.Result.SummarySource)
			}
			if *rep.Result.MatchPercentage != 100 {
				t.Errorf("match percentage: got %v", *rep.Result.MatchPercentage)
			}
		})
	}
}

func TestProcess_OCRFailures(t *testing.T) {
	tests := []struct {
		name      string
		ocr       TextExtractor
		wantCalls int32
	}{
		{"transient errors exhaust retries", &fakeOCR{err: remote.Transient(ocr.ServiceName, errors.New("engine busy"))}, 2},
		{"unavailable engine", &fakeOCR{err: remote.Unavailable(ocr.ServiceName, errors.New("no tessdata"))}, 1},
		{"no engine", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := newPipeline(tt.ocr, nil, false).Process(context.Background(), createScene())
			if err != nil {
				t.Fatalf("OCR failure should not fail the run: %v", err)
			}
			if f, ok := tt.ocr.(*fakeOCR); ok && f.calls.Load() != tt.wantCalls {
				t.Errorf("OCR calls: got %d, want %d", f.calls.Load(), tt.wantCalls)
			}
			if !rep.Flags.OCRFailure || rep.Flags.OCRError == "" || !rep.Flags.ReceiptLess {
				t.Errorf("flags: %+v", rep.Flags)
			}
			if rep.Result.MatchPercentage != nil {
				t.Errorf("match percentage should be undefined, got %v", *rep.Result.MatchPercentage)
			}
			if want := resolve(t, "Salmon", "Masago", "Shredded Nori"); !reflect.DeepEqual(rep.Result.Unexpected, want) {
				t.Errorf("unexpected: got %v, want %v", rep.Result.Unexpected, want)
			}
		})
	}
}

func TestProcess_InsufficientData(t *testing.T) {
	rep, err := newPipeline(&fakeOCR{text: ""}, nil, false).Process(context.Background(), createGray())
	if !errors.Is(err, reconcile.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if rep == nil || rep.Result != nil {
		t.Fatalf("report should be returned without a result, got %+v", rep)
	}
	if !rep.Flags.SegmentationFallback || !rep.Flags.OCRFailure {
		t.Errorf("flags: %+v", rep.Flags)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newPipeline(&fakeOCR{text: "1x Salmon"}, nil, true).Process(ctx, createScene())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if rep == nil {
		t.Error("report should still be returned")
	}
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

func TestProcessBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "bowl1.png", createScene()),
		writePNG(t, dir, "blank.png", createGray()),
		filepath.Join(dir, "missing.png"),
		writePNG(t, dir, "bowl2.png", createScene()),
	}

	var done atomic.Int32
	p := newPipeline(&fakeOCR{text: "1x Salmon", needsInk: true}, nil, false)
	items := p.ProcessBatch(context.Background(), paths, 2, func(Item) { done.Add(1) })

	if len(items) != len(paths) {
		t.Fatalf("got %d items, want %d", len(items), len(paths))
	}
	if done.Load() != int32(len(paths)) {
		t.Errorf("progress calls: got %d, want %d", done.Load(), len(paths))
	}
	for i, it := range items {
		if it.Path != paths[i] {
			t.Errorf("item %d: path %s, want %s", i, it.Path, paths[i])
		}
	}

	for _, i := range []int{0, 3} {
		if !items[i].Success || items[i].Report == nil || items[i].Report.Result == nil {
			t.Errorf("item %d should succeed: %+v", i, items[i])
		}
	}
	if items[1].Success || !strings.Contains(items[1].Error, "insufficient data") {
		t.Errorf("blank photo: %+v", items[1])
	}
	if items[2].Success || !strings.Contains(items[2].Error, "load") || items[2].Report != nil {
		t.Errorf("missing photo: %+v", items[2])
	}
	if items[0].Report.RunID == items[3].Report.RunID {
		t.Error("each photo should get its own run ID")
	}
}
