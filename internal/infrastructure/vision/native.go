package vision

import "healtrack/internal/domain/port"

// NativeBackend реализация примитивов зрения на чистом Go, без OpenCV.
// Не хранит состояния, поэтому один экземпляр можно делить между запросами.
type NativeBackend struct{}

// NewNativeBackend создаёт бэкенд по умолчанию.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{}
}

// Name возвращает имя реализации.
func (NativeBackend) Name() string { return "native" }

var _ port.VisionBackend = (*NativeBackend)(nil)
