package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/photobooth/photobooth-api/internal/pkg/imaging"
)

// Validator instance
var validate *validator.Validate

// FieldError describes one rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Photo type: single shot or 3-frame strip
	validate.RegisterValidation("photo_type", func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		return t == "single" || t == "strip"
	})

	validate.RegisterValidation("photo_filter", func(fl validator.FieldLevel) bool {
		return imaging.IsValidFilter(fl.Field().String())
	})
}

// Validate validates a struct and returns the list of field errors
func Validate(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, err := range verrs {
		field := err.Field()
		var msg string
		switch err.Tag() {
		case "required":
			msg = "This field is required"
		case "min":
			msg = "Value is too short (min: " + err.Param() + ")"
		case "max":
			msg = "Value is too long (max: " + err.Param() + ")"
		case "url":
			msg = "Invalid URL format"
		case "photo_type":
			msg = "Invalid photo type. Must be: single or strip"
		case "photo_filter":
			msg = "Invalid filter. Must be: " + strings.Join(filterIDs(), ", ")
		default:
			msg = "Invalid value"
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}

	return out
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

func filterIDs() []string {
	var ids []string
	for _, f := range imaging.Filters() {
		ids = append(ids, string(f.ID))
	}
	return ids
}
