package errorhandler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/photobooth/photobooth-api/internal/pkg/logger"
	"github.com/photobooth/photobooth-api/internal/pkg/response"
)

// HandleError logs err with the request id and sends {"message": message}.
// The cause stays in the server log.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	event := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}

	event.Msg("Request error")

	response.Error(w, status, message)
}

// HandleErrorWithDetails sends a client error with its field list
func HandleErrorWithDetails(ctx context.Context, w http.ResponseWriter, status int, message string, details interface{}, err error) {
	event := log.Warn().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_message", message).
		Int("status_code", status).
		Interface("error_details", details)

	if err != nil {
		event.Err(err)
	}

	event.Msg("Request rejected")

	response.ErrorWithDetails(w, status, message, details)
}

// HandlePanicError logs a recovered panic with its stack trace
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	response.InternalError(w, "Internal server error")
}

// LogStorageError logs a failed storage call that does not change the response
func LogStorageError(ctx context.Context, operation, key string, err error) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", operation).
		Str("key", key).
		Err(err).
		Msg("Storage error")
}
