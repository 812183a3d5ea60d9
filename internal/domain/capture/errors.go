package capture

import "errors"

var (
	ErrNoCamera          = errors.New("camera is required")
	ErrNoPipeline        = errors.New("pipeline is required")
	ErrNoPersister       = errors.New("persister is required")
	ErrSessionComplete   = errors.New("session complete, start a new one")
	ErrUploadPending     = errors.New("all frames captured, retry the upload")
	ErrNothingToRetry    = errors.New("no upload to retry")
	ErrCameraFailed      = errors.New("camera unavailable")
	ErrCaptureInProgress = errors.New("capture in progress")
	ErrFrameTooLarge     = errors.New("frame exceeds size limit")
)
