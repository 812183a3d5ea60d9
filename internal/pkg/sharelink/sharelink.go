// Package sharelink builds the share URL printed as a QR code on every photo.
package sharelink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length of generated QR codes in pixels
const DefaultQRSize = 256

var ErrInvalidToken = errors.New("invalid share token")

// NewToken returns a fresh, time-sortable share token
func NewToken() string {
	return ksuid.New().String()
}

// ParseToken validates a token taken from a URL
func ParseToken(s string) (string, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id.String(), nil
}

// URL returns <base>/share/<token>
func URL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/share/" + token
}

// QRCode renders content as a PNG QR code of size x size pixels
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// RandomSuffix returns n lowercase hex characters
func RandomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// QRFileName returns a unique name for a QR code file
func QRFileName() string {
	return "qr-" + RandomSuffix(6) + ".png"
}
