package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// createQuadrantImage paints red, green, blue and white quadrants.
func createQuadrantImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createQuadrantImage(100, 100)

	got := Crop(img, image.Rect(50, 0, 100, 50))
	if got.Bounds().Dx() != 50 || got.Bounds().Dy() != 50 {
		t.Fatalf("dimensions: got %v, want 50x50", got.Bounds())
	}
	if got.Bounds().Min != (image.Point{}) {
		t.Errorf("crop not anchored at origin: %v", got.Bounds())
	}

	r, g, b, _ := got.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("expected green quadrant, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestCrop_ClipsToBounds(t *testing.T) {
	img := createQuadrantImage(100, 100)

	got := Crop(img, image.Rect(80, 80, 300, 300))
	if got.Bounds().Dx() != 20 || got.Bounds().Dy() != 20 {
		t.Errorf("dimensions: got %v, want 20x20", got.Bounds())
	}
}

func TestCrop_EmptyResults(t *testing.T) {
	img := createQuadrantImage(100, 100)

	tests := []struct {
		name string
		img  image.Image
		rect image.Rectangle
	}{
		{"outside", img, image.Rect(200, 200, 300, 300)},
		{"zero rect", img, image.Rectangle{}},
		{"nil image", nil, image.Rect(0, 0, 10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Crop(tt.img, tt.rect)
			if got == nil {
				t.Fatal("Crop returned nil")
			}
			if !IsEmpty(got) {
				t.Errorf("expected empty image, got %v", got.Bounds())
			}
		})
	}
}

func TestFit(t *testing.T) {
	img := createInMemoryImage(640, 320, color.RGBA{10, 20, 30, 255})

	fitted, scale := Fit(img, 320)
	if fitted.Bounds().Dx() != 320 || fitted.Bounds().Dy() != 160 {
		t.Errorf("dimensions: got %v, want 320x160", fitted.Bounds())
	}
	if scale != 2 {
		t.Errorf("scale: got %v, want 2", scale)
	}

	small, scale := Fit(createInMemoryImage(50, 40, color.White), 320)
	if small.Bounds().Dx() != 50 || scale != 1 {
		t.Errorf("small image should pass through unscaled, got %v scale %v", small.Bounds(), scale)
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(createQuadrantImage(32, 32), 85)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a valid JPEG: %v", err)
	}
}

func TestSaveCrops(t *testing.T) {
	dir := t.TempDir()
	bowl := createInMemoryImage(20, 20, color.RGBA{200, 100, 50, 255})

	written, err := SaveCrops(dir, "/photos/order-17.png", bowl, Empty())
	if err != nil {
		t.Fatalf("SaveCrops failed: %v", err)
	}

	want := filepath.Join(dir, "order-17_bowl.jpg")
	if written["bowl"] != want {
		t.Errorf("bowl path: got %q, want %q", written["bowl"], want)
	}
	if _, ok := written["receipt"]; ok {
		t.Error("empty receipt crop should not be written")
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("bowl crop missing on disk: %v", err)
	}
}
