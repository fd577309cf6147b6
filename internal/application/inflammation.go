package app

import (
	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

const DetectorInflammation = "inflammation"

// InflammationConfig пороги "красного" пикселя и шкалы покраснения.
// Полоса красного оборачивается через 0°: [0, LowBandMaxHue] ∪ [HighBandMinHue, 360).
type InflammationConfig struct {
	LowBandMaxHue        float64
	HighBandMinHue       float64
	MinSaturation        float64
	MinValue             float64
	ChromaSaturation     float64 // пиксель считается цветным, начиная с этой насыщенности
	MinChromaticFraction float64 // ниже этой доли цветных пикселей область считается серой
	RatioAtFullScore     float64 // доля красного, при которой балл достигает 100
	DegradedConfidence   float64
	ModelBlend           float64 // вес обученной модели в итоговом балле
}

func DefaultInflammationConfig() InflammationConfig {
	return InflammationConfig{
		LowBandMaxHue:        12,
		HighBandMinHue:       345,
		MinSaturation:        0.35,
		MinValue:             0.2,
		ChromaSaturation:     0.1,
		MinChromaticFraction: 0.05,
		RatioAtFullScore:     0.4,
		DegradedConfidence:   0.4,
		ModelBlend:           0.3,
	}
}

// IsRed сообщает, попадает ли пиксель в полосу красного.
func (c InflammationConfig) IsRed(p entity.HSV) bool {
	if p.S < c.MinSaturation || p.V < c.MinValue {
		return false
	}
	return p.H <= c.LowBandMaxHue || p.H >= c.HighBandMinHue
}

// InflammationDetector оценивает долю покрасневших пикселей внутри раны.
type InflammationDetector struct {
	cfg       InflammationConfig
	converter port.ColorSpaceConverter
	model     port.InflammationModel // может быть nil
}

func NewInflammationDetector(cfg InflammationConfig, converter port.ColorSpaceConverter, model port.InflammationModel) *InflammationDetector {
	return &InflammationDetector{cfg: cfg, converter: converter, model: model}
}

func (d *InflammationDetector) Analyze(img *entity.WoundImage, region *entity.RegionMask) (entity.DetectorResult, error) {
	hsv := d.converter.ToHSV(img)

	var regionPixels, redPixels, chromatic int
	b := region.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !region.Contains(x, y) {
				continue
			}
			regionPixels++
			p := hsv.At(x, y)
			if p.S >= d.cfg.ChromaSaturation && p.V >= d.cfg.MinValue {
				chromatic++
			}
			if d.cfg.IsRed(p) {
				redPixels++
			}
		}
	}

	meta := map[string]float64{
		"region_pixels": float64(regionPixels),
		"red_pixels":    float64(redPixels),
		"red_ratio":     0,
	}
	if regionPixels == 0 {
		return d.degraded(meta), nil
	}

	ratio := float64(redPixels) / float64(regionPixels)
	meta["red_ratio"] = ratio

	fraction := float64(chromatic) / float64(regionPixels)
	meta["chromatic_fraction"] = fraction
	if fraction < d.cfg.MinChromaticFraction {
		return d.degraded(meta), nil
	}

	score := entity.ClampScore(100 * ratio / d.cfg.RatioAtFullScore)

	if d.model != nil && d.cfg.ModelBlend > 0 {
		prob, err := d.model.PredictRedness(img, b)
		if err != nil {
			return entity.DetectorResult{}, &entity.ProcessingError{Stage: DetectorInflammation, Cause: err}
		}
		prob = entity.ClampUnit(prob)
		meta["model_probability"] = prob
		score = entity.ClampScore((1-d.cfg.ModelBlend)*score + d.cfg.ModelBlend*100*prob)
	}

	return entity.DetectorResult{
		Detector:   DetectorInflammation,
		Score:      score,
		Confidence: 1,
		Metadata:   meta,
	}, nil
}

func (d *InflammationDetector) degraded(meta map[string]float64) entity.DetectorResult {
	return entity.DetectorResult{
		Detector:   DetectorInflammation,
		Score:      0,
		Confidence: d.cfg.DegradedConfidence,
		Degraded:   true,
		Condition:  entity.ConditionAchromaticRegion,
		Metadata:   meta,
	}
}

var _ port.RegionAnalyzer = (*InflammationDetector)(nil)
