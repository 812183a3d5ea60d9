package photo

import (
	"github.com/photobooth/photobooth-api/internal/pkg/imaging"
)

// Form defaults
const (
	DefaultType       = TypeSingle
	DefaultFilter     = string(imaging.FilterNormal)
	DefaultBackground = "none"

	// MaxFrames is the most photos parts accepted by one upload
	MaxFrames = 3
)

// Frame is one uploaded image after content sniffing
type Frame struct {
	Data     []byte
	MimeType string
}

// CreateRequest is the decoded multipart upload
type CreateRequest struct {
	Type       string
	Filter     string
	Background string
	Frames     []Frame
	BaseURL    string // share link base, request host when BASE_URL is unset
}

// NewPhoto is the record schema checked before anything is written
type NewPhoto struct {
	Type       Type     `json:"type" validate:"required,photo_type"`
	Filter     string   `json:"filter" validate:"required,photo_filter"`
	Background string   `json:"background" validate:"required,max=64"`
	FilePath   string   `json:"filePath" validate:"required"`
	PhotoURLs  []string `json:"photoUrls" validate:"min=1,max=3,dive,required"`
	QRCode     string   `json:"qrCode" validate:"required"`
	ShareID    string   `json:"shareId" validate:"required"`
}

// FilterResponse lists a supported filter
type FilterResponse = imaging.FilterOption
