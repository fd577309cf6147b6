//go:build onnx

package model

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// OnnxModel сессия ONNX Runtime с заранее выделенными тензорами.
// Тензоры общие, поэтому Run сериализуется мьютексом.
type OnnxModel struct {
	mu      sync.Mutex
	cfg     Config
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	closed  bool
}

// Load инициализирует окружение ONNX Runtime и открывает модель.
func Load(cfg Config) (port.InflammationModel, error) {
	if cfg.LibPath != "" {
		ort.SetSharedLibraryPath(cfg.LibPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("error initializing onnx environment: %w", err)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(cfg.InputSize), int64(cfg.InputSize)))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.Path,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &OnnxModel{cfg: cfg, session: session, input: input, output: output}, nil
}

func (m *OnnxModel) PredictRedness(img *entity.WoundImage, region image.Rectangle) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, fmt.Errorf("model is closed")
	}
	if err := prepareInput(img, region, m.cfg.InputSize, m.input.GetData()); err != nil {
		return 0, err
	}
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("error running model: %w", err)
	}
	return entity.ClampUnit(float64(m.output.GetData()[0])), nil
}

// Close освобождает сессию и тензоры. Повторный вызов безопасен.
func (m *OnnxModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	for _, destroy := range []func() error{m.session.Destroy, m.input.Destroy, m.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
