package upload

import "errors"

// Sentinel errors for the upload service layer.
var (
	ErrNotFound     = errors.New("upload not found")
	ErrNotProcessed = errors.New("upload has no processed list")
	ErrBusy         = errors.New("upload is already being processed")
	ErrInvalidScope = errors.New("unknown summary scope")
	ErrEmptyName    = errors.New("filename is required")
)
