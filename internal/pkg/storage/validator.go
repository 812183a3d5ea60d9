package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// imageTypes maps the sniffed content types a booth frame may have to their extension
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ReadImage reads an uploaded frame, capped at maxSize, and sniffs its type from the
// leading bytes. The client-declared content type is never trusted.
func ReadImage(reader io.Reader, maxSize int64) ([]byte, string, error) {
	// one extra byte tells "exactly maxSize" from "too large"
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if _, ok := imageTypes[mimeType]; !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidMimeType, mimeType)
	}

	return data, mimeType, nil
}

// ExtensionFor returns the stored file extension for an accepted image type
func ExtensionFor(mimeType string) string {
	return imageTypes[mimeType]
}
