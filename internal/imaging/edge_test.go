package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createEdgeTestImage creates a black image with a white square in the middle.
func createEdgeTestImage(width, height int) *image.RGBA {
	img := createInMemoryImage(width, height, color.Black)
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func countSet(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v == 255 {
			n++
		}
	}
	return n
}

func TestGray(t *testing.T) {
	img := createInMemoryImage(20, 10, color.Black)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.White)
		}
	}

	g := Gray(img)
	if g.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("bounds: got %v, want (0,0)-(20,10)", g.Bounds())
	}
	if v := g.GrayAt(2, 5).Y; v < 254 {
		t.Errorf("white half: got %d, want about 255", v)
	}
	if v := g.GrayAt(15, 5).Y; v != 0 {
		t.Errorf("black half: got %d, want 0", v)
	}
}

func TestBrightMask(t *testing.T) {
	img := createEdgeTestImage(40, 40)

	mask := BrightMask(img, 0, 128)
	if got := countSet(mask); got != 20*20 {
		t.Errorf("bright pixels: got %d, want 400", got)
	}

	if mask.GrayAt(20, 20).Y != 255 {
		t.Error("center should be bright")
	}
	if mask.GrayAt(2, 2).Y != 0 {
		t.Error("corner should be dark")
	}
}

func TestBrightMask_Smoothed(t *testing.T) {
	img := createEdgeTestImage(40, 40)

	mask := BrightMask(img, 1.0, 170)
	if mask.GrayAt(20, 20).Y != 255 {
		t.Error("center should stay bright after smoothing")
	}
	if mask.GrayAt(2, 2).Y != 0 {
		t.Error("corner should stay dark after smoothing")
	}
}

func TestEdgeMask(t *testing.T) {
	img := createEdgeTestImage(40, 40)
	edges := EdgeMask(img, 80)

	if edges.GrayAt(10, 20).Y != 255 && edges.GrayAt(9, 20).Y != 255 {
		t.Error("expected an edge at the left side of the square")
	}
	if edges.GrayAt(20, 20).Y != 0 {
		t.Error("square interior should have no edges")
	}
	if edges.GrayAt(2, 2).Y != 0 {
		t.Error("background should have no edges")
	}
}

func TestEdgeMask_UniformImage(t *testing.T) {
	img := createInMemoryImage(30, 30, color.RGBA{128, 128, 128, 255})
	edges := EdgeMask(img, 80)
	for y := 2; y < 28; y++ {
		for x := 2; x < 28; x++ {
			if edges.GrayAt(x, y).Y != 0 {
				t.Fatalf("uniform image produced an edge at (%d,%d)", x, y)
			}
		}
	}
}

func TestLaplacian(t *testing.T) {
	flat := Gray(createInMemoryImage(10, 10, color.RGBA{100, 100, 100, 255}))
	resp := Laplacian(flat, flat.Bounds())
	if len(resp) != 64 {
		t.Fatalf("response count: got %d, want 64", len(resp))
	}
	for _, v := range resp {
		if v != 0 {
			t.Fatalf("flat image should have zero Laplacian, got %v", v)
		}
	}

	if Laplacian(flat, image.Rect(0, 0, 2, 10)) != nil {
		t.Error("rect narrower than 3 pixels should give no responses")
	}
}

func TestIntensities(t *testing.T) {
	g := Gray(createInMemoryImage(4, 3, color.White))
	vals := Intensities(g, g.Bounds())
	if len(vals) != 12 {
		t.Fatalf("got %d values, want 12", len(vals))
	}
	if vals[0] < 254 {
		t.Errorf("white intensity: got %v, want about 255", vals[0])
	}
}
