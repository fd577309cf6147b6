package entity

import "math"

// Условия деградации: анализ продолжается, но уверенность снижается.
const (
	ConditionSegmentationFallback = "segmentation_fallback"
	ConditionAchromaticRegion     = "achromatic_region"
	ConditionDegenerateContour    = "degenerate_contour"
	ConditionRegionTooSmall       = "region_too_small"
	ConditionOverexposed          = "overexposed"
	ConditionUnderexposed         = "underexposed"
	ConditionGlare                = "glare"
)

// DetectorResult итог одного детектора, живёт только до агрегации.
type DetectorResult struct {
	Detector   string
	Score      float64            // 0..100
	Confidence float64            // 0..1
	Degraded   bool               // детектор ушёл в вырожденный случай
	Condition  string             // причина деградации
	Metadata   map[string]float64 // сырые величины для объяснения и тестов
}

// Valid проверяет, что числа конечны и лежат в допустимых границах.
func (r DetectorResult) Valid() bool {
	if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) || math.IsNaN(r.Confidence) || math.IsInf(r.Confidence, 0) {
		return false
	}
	return r.Score >= 0 && r.Score <= 100 && r.Confidence >= 0 && r.Confidence <= 1
}

// ClampScore приводит значение к шкале 0..100, NaN превращается в 0.
func ClampScore(v float64) float64 {
	return clamp(v, 0, 100)
}

// ClampUnit приводит значение к отрезку 0..1, NaN превращается в 0.
func ClampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
