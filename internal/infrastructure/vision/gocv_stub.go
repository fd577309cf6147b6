//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"healtrack/internal/domain/port"
)

// NewGoCVBackend возвращает ошибку, если сборка без тега gocv.
func NewGoCVBackend() (port.VisionBackend, error) {
	return nil, errors.New("gocv build tag is not enabled")
}
