package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyStaging = errors.New("meal builder is empty")
	ErrNotReady     = errors.New("recognition result not ready")
)
