package imaging

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestLogoRectBounds(t *testing.T) {
	logo := image.Rect(0, 0, 400, 200)

	cases := []struct {
		w, h      int
		wantWidth int
	}{
		{w: 4000, h: 3000, wantWidth: 200}, // capped at 200px
		{w: 1000, h: 800, wantWidth: 120},  // 12% of width
		{w: 1280, h: 720, wantWidth: 154},  // 153.6
	}
	for _, tc := range cases {
		r := LogoRect(tc.w, tc.h, logo)
		if r.Dx() != tc.wantWidth {
			t.Fatalf("%dx%d: logo width = %d, want %d", tc.w, tc.h, r.Dx(), tc.wantWidth)
		}
		if r.Dx() > 200 || float64(r.Dx()) > float64(tc.w)*0.12+0.5 {
			t.Fatalf("%dx%d: logo width %d exceeds limits", tc.w, tc.h, r.Dx())
		}
		pad := float64(tc.w) * 0.03
		if float64(tc.w-r.Max.X) < pad-1 || float64(tc.h-r.Max.Y) < pad-1 {
			t.Fatalf("%dx%d: logo %v ignores padding %.1f", tc.w, tc.h, r, pad)
		}
	}

	r := LogoRect(1000, 800, logo)
	if r.Dy() != 60 {
		t.Fatalf("aspect ratio not preserved: %v", r)
	}
}

func TestWatermarkerCaptionPlacement(t *testing.T) {
	w := NewWatermarker("PARTY TIME 2025", "")
	out, err := w.Apply(solid(1000, 800, color.NRGBA{A: 255}))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// the logo sits in the bottom right, the caption in the top band
	minX, maxX, minY, maxY := 1000, -1, 800, -1
	var brightest uint8
	for y := 0; y < 200; y++ {
		for x := 0; x < 1000; x++ {
			c := out.NRGBAAt(x, y)
			if c.R <= 40 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			brightest = max(brightest, c.R, c.G, c.B)
		}
	}
	if maxX < 0 {
		t.Fatal("no caption drawn")
	}

	// 30px font on a 1000px frame, baseline at 40px
	if center := (minX + maxX) / 2; center < 490 || center > 510 {
		t.Fatalf("caption centered at x=%d, ink spans [%d,%d]", center, minX, maxX)
	}
	if minY < 12 || minY > 25 {
		t.Fatalf("caption top at y=%d", minY)
	}
	if maxY < 36 || maxY > 42 {
		t.Fatalf("caption bottom at y=%d, baseline is 40", maxY)
	}
	if brightest < 225 || brightest > 232 {
		t.Fatalf("caption brightness = %d, want white at 0.9 alpha", brightest)
	}
}

func TestWatermarkerApplyKeepsDimensions(t *testing.T) {
	w := NewWatermarker("Sophie & Jérôme • 27/09/25", "")
	src := solid(640, 480, color.NRGBA{R: 20, G: 20, B: 20, A: 255})

	out, err := w.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Bounds().Dx() != 640 || out.Bounds().Dy() != 480 {
		t.Fatalf("dimensions changed: %v", out.Bounds())
	}
	if src.NRGBAAt(0, 0) != (color.NRGBA{R: 20, G: 20, B: 20, A: 255}) {
		t.Fatal("source frame was mutated")
	}

	// something was drawn in the logo area
	r := LogoRect(640, 480, w.logo.Bounds())
	center := out.NRGBAAt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	if center == (color.NRGBA{R: 20, G: 20, B: 20, A: 255}) {
		t.Fatal("logo not composited")
	}
}

func TestWatermarkerMissingLogo(t *testing.T) {
	w := NewWatermarker("caption", filepath.Join(t.TempDir(), "missing.png"))
	_, err := w.Apply(solid(10, 10, color.NRGBA{A: 255}))
	if !errors.Is(err, ErrNoLogo) {
		t.Fatalf("expected ErrNoLogo, got %v", err)
	}
}
