package entity

import (
	"errors"
	"fmt"
)

// Виды ошибок во внешнем ответе.
const (
	KindInvalidImage    = "invalid_image"
	KindProcessingError = "processing_error"
)

// InvalidImageError вход не декодируется, слишком большой или слишком маленький.
type InvalidImageError struct {
	Reason string
	Cause  error
}

func (e *InvalidImageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid image: %s: %v", e.Reason, e.Cause)
	}
	return "invalid image: " + e.Reason
}

func (e *InvalidImageError) Unwrap() error { return e.Cause }

// ProcessingError непредвиденный сбой внутри одного из этапов.
type ProcessingError struct {
	Stage string
	Cause error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processing failed at %s: %v", e.Stage, e.Cause)
	}
	return "processing failed at " + e.Stage
}

func (e *ProcessingError) Unwrap() error { return e.Cause }

// ErrorKind возвращает вид ошибки для внешнего ответа.
func ErrorKind(err error) string {
	var invalid *InvalidImageError
	if errors.As(err, &invalid) {
		return KindInvalidImage
	}
	return KindProcessingError
}
