package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Outcome tells whether a transform produced a new frame or kept the original
type Outcome int

const (
	Transformed Outcome = iota
	FallbackOriginal
)

func (o Outcome) String() string {
	if o == FallbackOriginal {
		return "fallback_original"
	}
	return "transformed"
}

// Result is the output of a frame transform.
// On FallbackOriginal, Data is the untouched input and Err holds the cause.
type Result struct {
	Data    []byte
	Outcome Outcome
	Err     error
}

// Fallback reports whether the transform degraded to the original frame
func (r Result) Fallback() bool {
	return r.Outcome == FallbackOriginal
}

// Config for frame processing
type Config struct {
	Quality     int    // JPEG quality 1-100 (default 90)
	Caption     string // Watermark caption
	LogoPath    string // Watermark logo, embedded logo when empty
	NoWatermark bool
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		Quality: 90,
		Caption: "Sophie & Jérôme • 27/09/25",
	}
}

// Processor runs the capture pipeline: filter, then watermark
type Processor struct {
	config      Config
	watermarker *Watermarker
}

// NewProcessor creates frame processor
func NewProcessor(config Config) *Processor {
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = 90
	}
	p := &Processor{config: config}
	if !config.NoWatermark {
		p.watermarker = NewWatermarker(config.Caption, config.LogoPath)
	}
	return p
}

// ProcessedFrame is the pipeline output for one captured frame
type ProcessedFrame struct {
	Data      []byte
	Filter    Result
	Watermark Result
}

// Process applies the filter then the watermark. Never fails: every step
// that cannot complete hands the previous frame to the next one.
func (p *Processor) Process(frame []byte, f Filter) ProcessedFrame {
	filtered := p.Filter(frame, f)
	marked := p.Watermark(filtered.Data)
	return ProcessedFrame{
		Data:      marked.Data,
		Filter:    filtered,
		Watermark: marked,
	}
}

// Filter applies f to an encoded frame
func (p *Processor) Filter(frame []byte, f Filter) Result {
	if f == FilterNormal || f == "" {
		return Result{Data: frame, Outcome: Transformed}
	}
	if !IsValidFilter(string(f)) {
		return fallback(frame, fmt.Errorf("unknown filter %q", f))
	}

	img, err := decode(frame)
	if err != nil {
		return fallback(frame, err)
	}

	out, err := p.encode(ApplyFilter(img, f))
	if err != nil {
		return fallback(frame, err)
	}
	return Result{Data: out, Outcome: Transformed}
}

// Watermark overlays caption and logo onto an encoded frame
func (p *Processor) Watermark(frame []byte) Result {
	if p.watermarker == nil {
		return Result{Data: frame, Outcome: Transformed}
	}

	img, err := decode(frame)
	if err != nil {
		return fallback(frame, err)
	}

	marked, err := p.watermarker.Apply(img)
	if err != nil {
		return fallback(frame, err)
	}

	out, err := p.encode(marked)
	if err != nil {
		return fallback(frame, err)
	}
	return Result{Data: out, Outcome: Transformed}
}

func fallback(frame []byte, err error) Result {
	return Result{Data: frame, Outcome: FallbackOriginal, Err: err}
}

func decode(frame []byte) (image.Image, error) {
	if len(frame) == 0 {
		return nil, errors.New("empty frame")
	}
	img, err := imaging.Decode(bytes.NewReader(frame), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("zero-size frame")
	}
	return img, nil
}

// encode encodes image to JPEG bytes
func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
