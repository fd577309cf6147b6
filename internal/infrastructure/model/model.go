package model

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"healtrack/internal/domain/entity"
)

// ErrUnavailable бинарник собран без поддержки ONNX Runtime.
var ErrUnavailable = errors.New("onnx support is not compiled in, rebuild with -tags onnx")

// Config описывает файл модели и её тензоры.
type Config struct {
	Path       string // путь к .onnx
	LibPath    string // путь к libonnxruntime, пустая строка: системный поиск
	InputName  string
	OutputName string
	InputSize  int // сторона квадратного входа
}

func DefaultConfig(path, libPath string) Config {
	return Config{
		Path:       path,
		LibPath:    libPath,
		InputName:  "input",
		OutputName: "output",
		InputSize:  224,
	}
}

// prepareInput вырезает область раны, приводит к size×size и раскладывает
// в NCHW float32 с каналами в [0,1].
func prepareInput(img *entity.WoundImage, region image.Rectangle, size int, dst []float32) error {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return errors.New("region is empty")
	}
	if len(dst) != 3*size*size {
		return errors.New("input tensor has unexpected size")
	}

	crop := imaging.Resize(imaging.Crop(img, region), size, size, imaging.Linear)

	plane := size * size
	for y := 0; y < size; y++ {
		row := crop.Pix[y*crop.Stride : y*crop.Stride+size*4]
		for x := 0; x < size; x++ {
			i := y*size + x
			dst[i] = float32(row[x*4]) / 255
			dst[plane+i] = float32(row[x*4+1]) / 255
			dst[2*plane+i] = float32(row[x*4+2]) / 255
		}
	}
	return nil
}
