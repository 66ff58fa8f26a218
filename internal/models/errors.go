package models

import "errors"

// Errors returned across the session controller and its collaborators.
var (
	ErrValidation        = errors.New("validation failed")
	ErrResourceBusy      = errors.New("recording already in progress")
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrPrecursorMissing  = errors.New("current word has not been recorded")
	ErrPersistence       = errors.New("failed to save session")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("operation not allowed in current state")
)
