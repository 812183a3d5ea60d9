package imaging

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

//go:embed assets/logo.png
var defaultLogo []byte

const (
	maxLogoWidth    = 200.0
	logoWidthRatio  = 0.12
	paddingRatio    = 0.03
	captionSize     = 0.03
	captionBaseline = 0.05
	logoOpacity     = 0.85
)

var captionColor = color.NRGBA{R: 255, G: 255, B: 255, A: 230} // white at 0.9

// ErrNoLogo is returned when the watermark logo could not be loaded
var ErrNoLogo = errors.New("watermark logo unavailable")

// Watermarker overlays a caption and a logo onto finished frames
type Watermarker struct {
	caption string
	logo    image.Image
	logoErr error
	font    *opentype.Font
}

// NewWatermarker creates a watermarker. An empty logoPath uses the embedded logo.
// A logo that cannot be read is remembered and makes every Apply fall back.
func NewWatermarker(caption, logoPath string) *Watermarker {
	w := &Watermarker{caption: caption}

	data := defaultLogo
	if logoPath != "" {
		raw, err := os.ReadFile(logoPath)
		if err != nil {
			w.logoErr = fmt.Errorf("%w: %v", ErrNoLogo, err)
		}
		data = raw
	}
	if w.logoErr == nil {
		logo, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			w.logoErr = fmt.Errorf("%w: %v", ErrNoLogo, err)
		}
		w.logo = logo
	}

	f, err := opentype.Parse(goregular.TTF)
	if err == nil {
		w.font = f
	}

	return w
}

// LogoRect returns where the logo lands on a w x h frame
func LogoRect(w, h int, logo image.Rectangle) image.Rectangle {
	lw := math.Min(maxLogoWidth, float64(w)*logoWidthRatio)
	ratio := float64(logo.Dy()) / float64(logo.Dx())
	lh := lw * ratio
	pad := float64(w) * paddingRatio

	width := max(1, int(math.Round(lw)))
	height := max(1, int(math.Round(lh)))
	x := int(math.Round(float64(w) - lw - pad))
	y := int(math.Round(float64(h) - lh - pad))

	return image.Rect(x, y, x+width, y+height)
}

// Apply renders the caption and the logo onto a copy of img
func (w *Watermarker) Apply(img image.Image) (*image.NRGBA, error) {
	if w.logoErr != nil {
		return nil, w.logoErr
	}
	if w.logo == nil {
		return nil, ErrNoLogo
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.New("empty frame")
	}
	dst := imaging.Clone(img)

	if w.caption != "" {
		if err := w.drawCaption(dst); err != nil {
			return nil, err
		}
	}

	rect := LogoRect(dst.Bounds().Dx(), dst.Bounds().Dy(), w.logo.Bounds())
	logo := imaging.Resize(w.logo, rect.Dx(), rect.Dy(), imaging.Lanczos)

	return imaging.Overlay(dst, logo, rect.Min, logoOpacity), nil
}

func (w *Watermarker) drawCaption(dst *image.NRGBA) error {
	if w.font == nil {
		return errors.New("caption font unavailable")
	}

	width := dst.Bounds().Dx()
	size := math.Max(1, float64(width)*captionSize)
	face, err := opentype.NewFace(w.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create caption face: %w", err)
	}
	defer face.Close()

	advance := font.MeasureString(face, w.caption)
	x := (fixed.I(width) - advance) / 2
	y := fixed.I(int(math.Round(float64(dst.Bounds().Dy()) * captionBaseline)))

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionColor),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(w.caption)
	return nil
}
