package imaging

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestApplyFilterPreservesDimensions(t *testing.T) {
	src := solid(37, 21, color.NRGBA{R: 10, G: 200, B: 90, A: 255})
	for _, opt := range Filters() {
		out := ApplyFilter(src, opt.ID)
		if out.Bounds().Dx() != 37 || out.Bounds().Dy() != 21 {
			t.Fatalf("%s: got %v, want 37x21", opt.ID, out.Bounds())
		}
	}
}

func TestApplyFilterNormalIsIdentity(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 13)
	}
	out := ApplyFilter(src, FilterNormal)
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel byte %d changed: %d -> %d", i, src.Pix[i], out.Pix[i])
		}
	}
}

func TestApplyFilterBW(t *testing.T) {
	cases := []struct {
		in   color.NRGBA
		want uint8
	}{
		{color.NRGBA{R: 10, G: 20, B: 30, A: 255}, 20},
		{color.NRGBA{R: 1, G: 1, B: 0, A: 255}, 1},     // 0.667 rounds up
		{color.NRGBA{R: 1, G: 0, B: 0, A: 128}, 0},     // 0.333 rounds down
		{color.NRGBA{R: 255, G: 254, B: 0, A: 7}, 170}, // 169.67
	}
	for _, tc := range cases {
		out := ApplyFilter(solid(1, 1, tc.in), FilterBW).NRGBAAt(0, 0)
		if out.R != tc.want || out.G != tc.want || out.B != tc.want {
			t.Fatalf("bw(%v) = %v, want all channels %d", tc.in, out, tc.want)
		}
		if out.A != tc.in.A {
			t.Fatalf("bw(%v) alpha = %d, want %d", tc.in, out.A, tc.in.A)
		}
	}
}

func TestApplyFilterSepia(t *testing.T) {
	black := ApplyFilter(solid(1, 1, color.NRGBA{A: 255}), FilterSepia).NRGBAAt(0, 0)
	if black != (color.NRGBA{A: 255}) {
		t.Fatalf("sepia(black) = %v", black)
	}

	// red and green saturate; blue coefficients sum to 0.937
	white := ApplyFilter(solid(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), FilterSepia).NRGBAAt(0, 0)
	if white.R != 255 || white.G != 255 || white.B != 239 {
		t.Fatalf("sepia(white) = %v", white)
	}

	mid := ApplyFilter(solid(1, 1, color.NRGBA{R: 100, G: 50, B: 20, A: 40}), FilterSepia).NRGBAAt(0, 0)
	// 39.3+38.45+3.78, 34.9+34.3+3.36, 27.2+26.7+2.62
	if mid.R != 82 || mid.G != 73 || mid.B != 57 || mid.A != 40 {
		t.Fatalf("sepia(mid) = %v", mid)
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := ParseFilter("sepia"); err != nil || f != FilterSepia {
		t.Fatalf("ParseFilter(sepia) = %q, %v", f, err)
	}
	if _, err := ParseFilter("comic"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}
