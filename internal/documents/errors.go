package documents

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrFileTooLarge  = errors.New("file too large")
	ErrStorageFailed = errors.New("storage write failed")
	ErrQueryFailed   = errors.New("document query failed")
)

// ValidationError carries a client-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
