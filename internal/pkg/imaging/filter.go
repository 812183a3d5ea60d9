package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Filter identifies a cosmetic pixel transform applied at capture time
type Filter string

const (
	FilterNormal Filter = "normal"
	FilterBW     Filter = "bw"
	FilterSepia  Filter = "sepia"
)

// FilterOption describes a filter for pickers
type FilterOption struct {
	ID   Filter `json:"id"`
	Name string `json:"name"`
}

var filterOptions = []FilterOption{
	{ID: FilterNormal, Name: "Normal"},
	{ID: FilterBW, Name: "N&B"},
	{ID: FilterSepia, Name: "Sepia"},
}

// Filters returns the supported filters in display order
func Filters() []FilterOption {
	out := make([]FilterOption, len(filterOptions))
	copy(out, filterOptions)
	return out
}

// ParseFilter converts a filter id into a Filter
func ParseFilter(id string) (Filter, error) {
	for _, opt := range filterOptions {
		if string(opt.ID) == id {
			return opt.ID, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", id)
}

// IsValidFilter reports whether id names a supported filter
func IsValidFilter(id string) bool {
	_, err := ParseFilter(id)
	return err == nil
}

// ApplyFilter returns a copy of img with the filter applied.
// Dimensions are preserved and alpha is never touched.
func ApplyFilter(img image.Image, f Filter) *image.NRGBA {
	switch f {
	case FilterBW:
		return imaging.AdjustFunc(img, grayscale)
	case FilterSepia:
		return imaging.AdjustFunc(img, sepia)
	default:
		return imaging.Clone(img)
	}
}

// grayscale uses the unweighted channel average, rounded
func grayscale(c color.NRGBA) color.NRGBA {
	sum := int(c.R) + int(c.G) + int(c.B)
	avg := uint8((sum + 1) / 3)
	return color.NRGBA{R: avg, G: avg, B: avg, A: c.A}
}

func sepia(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	return color.NRGBA{
		R: clamp(0.393*r + 0.769*g + 0.189*b),
		G: clamp(0.349*r + 0.686*g + 0.168*b),
		B: clamp(0.272*r + 0.534*g + 0.131*b),
		A: c.A,
	}
}

func clamp(v float64) uint8 {
	return uint8(math.Min(255, math.Round(v)))
}
