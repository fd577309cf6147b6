package app

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"healtrack/internal/domain/entity"
)

// IngestConfig ограничения на входное изображение.
type IngestConfig struct {
	MaxBytes int // предельный размер закодированного файла
	MinSide  int // минимальная сторона после декодирования
	MaxSide  int // кадры крупнее уменьшаются до этой стороны
}

// DefaultIngestConfig 5 МБ, не меньше 32×32, не больше 1024 по длинной стороне.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		MaxBytes: 5 << 20,
		MinSide:  32,
		MaxSide:  1024,
	}
}

// Ingestor декодирует и проверяет входные байты.
type Ingestor struct {
	cfg IngestConfig
}

// NewIngestor создаёт приёмник изображений.
func NewIngestor(cfg IngestConfig) *Ingestor {
	return &Ingestor{cfg: cfg}
}

// Config возвращает действующие ограничения.
func (in *Ingestor) Config() IngestConfig {
	return in.cfg
}

// Decode снимает base64, допускается префикс data:image/...;base64,
func (in *Ingestor) Decode(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return nil, &entity.InvalidImageError{Reason: "empty payload"}
	}

	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return nil, &entity.InvalidImageError{Reason: "malformed data url"}
		}
		if !strings.HasPrefix(s, "data:image/") {
			return nil, &entity.InvalidImageError{Reason: "data url does not carry an image"}
		}
		s = s[comma+1:]
	}

	if in.cfg.MaxBytes > 0 && base64.StdEncoding.DecodedLen(len(s)) > in.cfg.MaxBytes+2 {
		return nil, &entity.InvalidImageError{Reason: fmt.Sprintf("payload exceeds %d bytes", in.cfg.MaxBytes)}
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, &entity.InvalidImageError{Reason: "payload is not valid base64", Cause: err}
	}
	return data, nil
}

// Ingest проверяет размер и формат, приводит кадр к каноничному RGB.
func (in *Ingestor) Ingest(data []byte) (*entity.WoundImage, error) {
	if len(data) == 0 {
		return nil, &entity.InvalidImageError{Reason: "empty payload"}
	}
	if in.cfg.MaxBytes > 0 && len(data) > in.cfg.MaxBytes {
		return nil, &entity.InvalidImageError{Reason: fmt.Sprintf("payload is %d bytes, limit is %d", len(data), in.cfg.MaxBytes)}
	}

	// Размеры проверяем по заголовку, до полного декодирования.
	head, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &entity.InvalidImageError{Reason: "failed to decode image", Cause: err}
	}
	if head.Width < in.cfg.MinSide || head.Height < in.cfg.MinSide {
		return nil, &entity.InvalidImageError{Reason: fmt.Sprintf("image is too small (%dx%d)", head.Width, head.Height)}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &entity.InvalidImageError{Reason: "failed to decode image", Cause: err}
	}

	// Приводим изображение к стандартному размеру для стабильных порогов.
	b := img.Bounds()
	if in.cfg.MaxSide > 0 && (b.Dx() > in.cfg.MaxSide || b.Dy() > in.cfg.MaxSide) {
		img = imaging.Fit(img, in.cfg.MaxSide, in.cfg.MaxSide, imaging.Lanczos)
		b = img.Bounds()
		if b.Dx() < in.cfg.MinSide || b.Dy() < in.cfg.MinSide {
			return nil, &entity.InvalidImageError{Reason: fmt.Sprintf("aspect ratio is too extreme (%dx%d after resize)", b.Dx(), b.Dy())}
		}
	}

	// Прозрачные пиксели кладём на белый фон.
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
	return entity.NewWoundImageFrom(flat)
}
