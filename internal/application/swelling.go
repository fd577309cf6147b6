package app

import (
	"image"
	"math"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

const DetectorSwelling = "swelling"

// SwellingConfig настройки оценки неровности контура.
type SwellingConfig struct {
	MinDefectDepthRatio float64 // дефекты мельче этой доли диагонали считаются ступеньками пикселей
	MinDefectDepth      float64 // абсолютный нижний порог глубины, в пикселях
	DepthAtFullScore    float64 // суммарная глубина в диагоналях, дающая 100
	DegradedConfidence  float64
}

func DefaultSwellingConfig() SwellingConfig {
	return SwellingConfig{
		MinDefectDepthRatio: 0.015,
		MinDefectDepth:      1.5,
		DepthAtFullScore:    1.0,
		DegradedConfidence:  0.4,
	}
}

// SwellingDetector оценивает отёк по дефектам выпуклости контура раны.
type SwellingDetector struct {
	cfg      SwellingConfig
	contours port.ContourExtractor
}

func NewSwellingDetector(cfg SwellingConfig, contours port.ContourExtractor) *SwellingDetector {
	return &SwellingDetector{cfg: cfg, contours: contours}
}

func (d *SwellingDetector) Analyze(_ *entity.WoundImage, region *entity.RegionMask) (entity.DetectorResult, error) {
	contour := d.contours.OuterContour(region)
	if len(contour) < 3 {
		return d.degenerate(nil), nil
	}

	perimeter := arcLength(contour)
	area := polygonArea(contour)
	hull := d.contours.ConvexHull(contour)

	hullPts := make([]image.Point, len(hull))
	for i, idx := range hull {
		hullPts[i] = contour[idx]
	}
	hullArea := polygonArea(hullPts)

	meta := map[string]float64{
		"perimeter": perimeter,
		"area":      area,
		"hull_area": hullArea,
	}
	if perimeter == 0 || len(hull) < 3 || hullArea == 0 {
		return d.degenerate(meta), nil
	}

	b := region.Bounds()
	diag := math.Hypot(float64(b.Dx()), float64(b.Dy()))
	minDepth := math.Max(d.cfg.MinDefectDepth, d.cfg.MinDefectDepthRatio*diag)

	var depth float64
	var count int
	for _, def := range d.contours.ConvexityDefects(contour, hull) {
		if def.Depth < minDepth {
			continue
		}
		depth += def.Depth
		count++
	}

	meta["diagonal"] = diag
	meta["defect_depth"] = depth
	meta["defect_count"] = float64(count)
	meta["solidity"] = area / hullArea
	meta["roundness"] = 4 * math.Pi * area / (perimeter * perimeter)

	return entity.DetectorResult{
		Detector:   DetectorSwelling,
		Score:      entity.ClampScore(100 * depth / (d.cfg.DepthAtFullScore * diag)),
		Confidence: 1,
		Metadata:   meta,
	}, nil
}

func (d *SwellingDetector) degenerate(meta map[string]float64) entity.DetectorResult {
	if meta == nil {
		meta = map[string]float64{}
	}
	return entity.DetectorResult{
		Detector:   DetectorSwelling,
		Score:      0,
		Confidence: d.cfg.DegradedConfidence,
		Degraded:   true,
		Condition:  entity.ConditionDegenerateContour,
		Metadata:   meta,
	}
}

// arcLength длина замкнутого контура.
func arcLength(pts []image.Point) float64 {
	var l float64
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		l += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return l
}

// polygonArea площадь многоугольника по формуле шнурования.
func polygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var s int
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(float64(s)) / 2
}

var _ port.RegionAnalyzer = (*SwellingDetector)(nil)
