package app

import (
	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// QualityConfig пороги проверки экспозиции и бликов.
type QualityConfig struct {
	OverexposedLevel     uint8
	UnderexposedLevel    uint8
	MaxOverexposedRatio  float64
	MaxUnderexposedRatio float64
	GlareMaxSaturation   float64
	GlareMinValue        float64
	MaxGlareRatio        float64
	Penalty              float64 // множитель уверенности за каждую проваленную проверку
}

func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		OverexposedLevel:     250,
		UnderexposedLevel:    20,
		MaxOverexposedRatio:  0.35,
		MaxUnderexposedRatio: 0.45,
		GlareMaxSaturation:   40.0 / 255,
		GlareMinValue:        245.0 / 255,
		MaxGlareRatio:        0.08,
		Penalty:              0.85,
	}
}

// QualityReport итог проверки: кадр не отклоняется, только снижается уверенность.
type QualityReport struct {
	Conditions        []string
	Factor            float64
	OverexposedRatio  float64
	UnderexposedRatio float64
	GlareRatio        float64
}

// QualityGate проверяет экспозицию и блики кадра.
type QualityGate struct {
	cfg       QualityConfig
	converter port.ColorSpaceConverter
}

func NewQualityGate(cfg QualityConfig, converter port.ColorSpaceConverter) *QualityGate {
	return &QualityGate{cfg: cfg, converter: converter}
}

// Assess считает доли пересвеченных, тёмных и бликующих пикселей.
func (q *QualityGate) Assess(img *entity.WoundImage) QualityReport {
	report := QualityReport{Factor: 1}
	total := img.Pixels()
	if total == 0 {
		return report
	}

	gray := q.converter.ToGray(img)
	var bright, dark int
	for y := 0; y < img.Height(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+img.Width()]
		for _, v := range row {
			if v >= q.cfg.OverexposedLevel {
				bright++
			}
			if v <= q.cfg.UnderexposedLevel {
				dark++
			}
		}
	}

	hsv := q.converter.ToHSV(img)
	glare := 0
	for _, p := range hsv.Pix {
		if p.S < q.cfg.GlareMaxSaturation && p.V >= q.cfg.GlareMinValue {
			glare++
		}
	}

	report.OverexposedRatio = float64(bright) / float64(total)
	report.UnderexposedRatio = float64(dark) / float64(total)
	report.GlareRatio = float64(glare) / float64(total)

	if report.OverexposedRatio > q.cfg.MaxOverexposedRatio {
		report.fail(entity.ConditionOverexposed, q.cfg.Penalty)
	}
	if report.UnderexposedRatio > q.cfg.MaxUnderexposedRatio {
		report.fail(entity.ConditionUnderexposed, q.cfg.Penalty)
	}
	if report.GlareRatio > q.cfg.MaxGlareRatio {
		report.fail(entity.ConditionGlare, q.cfg.Penalty)
	}
	return report
}

func (r *QualityReport) fail(condition string, penalty float64) {
	r.Conditions = append(r.Conditions, condition)
	r.Factor *= penalty
}
