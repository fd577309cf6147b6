package app

import (
	"math"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// SegmenterConfig параметры выделения раны на фоне.
type SegmenterConfig struct {
	BorderRatio      float64 // ширина рамки, по которой оценивается фон, в долях короткой стороны
	MinContrast      float64 // минимальное ΔE между раной и фоном
	MaxContrast      float64 // верхняя граница гистограммы ΔE
	MinAreaRatio     float64 // компонента меньше этой доли кадра считается не найденной
	MorphRadiusRatio float64 // радиус морфологии в долях короткой стороны
}

func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		BorderRatio:      0.03,
		MinContrast:      8,
		MaxContrast:      128,
		MinAreaRatio:     0.01,
		MorphRadiusRatio: 0.01,
	}
}

const contrastBins = 256

// RegionSegmenter отделяет кожу с раной от фона по цветовому расстоянию в Lab.
type RegionSegmenter struct {
	cfg       SegmenterConfig
	converter port.ColorSpaceConverter
}

func NewRegionSegmenter(cfg SegmenterConfig, converter port.ColorSpaceConverter) *RegionSegmenter {
	return &RegionSegmenter{cfg: cfg, converter: converter}
}

// Segment возвращает маску самой крупной области, отличной от фона.
// Если такой области нет, возвращается маска всего кадра с флагом degraded.
func (s *RegionSegmenter) Segment(img *entity.WoundImage) (*entity.RegionMask, error) {
	w, h := img.Width(), img.Height()
	short := min(w, h)

	lab := s.converter.ToLab(img)

	// Фон оцениваем медианой по рамке кадра.
	ring := max(1, int(math.Round(s.cfg.BorderRatio*float64(short))))
	var ls, as, bs []float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= ring && x < w-ring && y >= ring && y < h-ring {
				continue
			}
			i := y*w + x
			ls = append(ls, lab.L[i])
			as = append(as, lab.A[i])
			bs = append(bs, lab.B[i])
		}
	}
	refL, refA, refB := median(ls), median(as), median(bs)

	dist := make([]float64, w*h)
	hist := make([]int, contrastBins)
	binWidth := s.cfg.MaxContrast / contrastBins
	for i := range dist {
		dl, da, db := lab.L[i]-refL, lab.A[i]-refA, lab.B[i]-refB
		d := math.Sqrt(dl*dl + da*da + db*db)
		dist[i] = d
		bin := int(d / binWidth)
		if bin >= contrastBins {
			bin = contrastBins - 1
		}
		hist[bin]++
	}

	threshold := float64(otsuThreshold(hist)+1) * binWidth
	if threshold < s.cfg.MinContrast {
		threshold = s.cfg.MinContrast
	}

	fg := make([]bool, w*h)
	for i, d := range dist {
		fg[i] = d > threshold
	}

	r := max(1, int(math.Round(s.cfg.MorphRadiusRatio*float64(short))))
	fg = closeBits(fg, w, h, r)
	fg = openBits(fg, w, h, r)

	largest, area := largestComponent(fg, w, h)
	if area == 0 || float64(area) < s.cfg.MinAreaRatio*float64(w*h) {
		return entity.FullFrameMask(w, h), nil
	}

	return entity.NewRegionMask(w, h, fillHoles(largest, w, h)), nil
}

var _ port.Segmenter = (*RegionSegmenter)(nil)
