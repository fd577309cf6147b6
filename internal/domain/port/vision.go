package port

import (
	"image"

	"healtrack/internal/domain/entity"
)

// ColorSpaceConverter переводит каноничный RGB в другие цветовые пространства.
type ColorSpaceConverter interface {
	ToHSV(img *entity.WoundImage) *entity.HSVImage
	ToLab(img *entity.WoundImage) *entity.LabImage
	ToGray(img *entity.WoundImage) *image.Gray
}

// ContourExtractor работает с внешней границей области.
type ContourExtractor interface {
	// OuterContour возвращает упорядоченный внешний контур маски.
	OuterContour(mask *entity.RegionMask) []image.Point

	// ConvexHull возвращает индексы точек контура, образующих выпуклую оболочку.
	ConvexHull(contour []image.Point) []int

	// ConvexityDefects измеряет провалы контура относительно оболочки.
	ConvexityDefects(contour []image.Point, hull []int) []entity.ConvexityDefect
}

// EdgeParams параметры детектора границ.
type EdgeParams struct {
	LowThreshold  float64 // нижний порог гистерезиса, в единицах градиента
	HighThreshold float64 // верхний порог гистерезиса
	BlurSigma     float64 // сглаживание перед поиском градиента
}

// EdgeDetector строит карту границ (0 или 255).
type EdgeDetector interface {
	Canny(gray *image.Gray, p EdgeParams) *image.Gray
}

// LineParams параметры вероятностного преобразования Хафа, в пикселях.
type LineParams struct {
	Threshold     int     // минимальное число голосов
	MinLineLength float64 // отрезки короче отбрасываются
	MaxLineGap    float64 // максимальный разрыв внутри одного отрезка
}

// LineDetector ищет прямые отрезки на карте границ.
type LineDetector interface {
	Segments(edges *image.Gray, p LineParams) []entity.LineSegment
}

// VisionBackend набор всех вычислительных примитивов зрения.
type VisionBackend interface {
	ColorSpaceConverter
	ContourExtractor
	EdgeDetector
	LineDetector

	// Name возвращает имя реализации для логов и /api/model-info.
	Name() string
}
