package photo

import (
	"errors"
	"strings"

	"github.com/photobooth/photobooth-api/internal/pkg/validator"
)

var (
	ErrPhotoNotFound = errors.New("photo not found")
	ErrNoPhotos      = errors.New("no photos uploaded")
	ErrInvalidPhoto  = errors.New("invalid photo data")
	ErrInvalidID     = errors.New("invalid photo id")
)

// ValidationError lists the rejected fields of a photo record
type ValidationError struct {
	Errors []validator.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid photo data: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidPhoto) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPhoto
}
