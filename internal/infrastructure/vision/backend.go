package vision

import (
	"fmt"

	"healtrack/internal/domain/port"
)

// New выбирает реализацию по имени из конфигурации.
func New(name string) (port.VisionBackend, error) {
	switch name {
	case "", "native":
		return NewNativeBackend(), nil
	case "gocv":
		return NewGoCVBackend()
	default:
		return nil, fmt.Errorf("unknown vision backend %q", name)
	}
}
