//go:build !onnx

package model

import "healtrack/internal/domain/port"

// Load без тега onnx всегда возвращает ErrUnavailable.
func Load(cfg Config) (port.InflammationModel, error) {
	_ = cfg
	return nil, ErrUnavailable
}
