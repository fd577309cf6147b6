package app

import (
	"math"

	"healtrack/internal/domain/entity"
)

// AggregatorConfig пороги статусов и веса риска.
type AggregatorConfig struct {
	InflammationConcern float64
	SwellingConcern     float64
	ClosureConcern      float64 // закрытие не выше этого значения тревожно
	RiskConcern         float64

	InflammationMonitor float64
	SwellingMonitor     float64
	ClosureMonitor      float64 // закрытие ниже этого значения требует наблюдения
	RiskMonitor         float64

	InflammationWeight float64
	SwellingWeight     float64
	ClosureWeight      float64

	DegradedRegionPenalty float64
	SmallRegionRatio      float64
	SmallRegionFactor     float64
	ModerateRegionRatio   float64
	ModerateRegionFactor  float64
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		InflammationConcern: 70,
		SwellingConcern:     60,
		ClosureConcern:      25,
		RiskConcern:         60,

		InflammationMonitor: 50,
		SwellingMonitor:     40,
		ClosureMonitor:      50,
		RiskMonitor:         35,

		InflammationWeight: 0.45,
		SwellingWeight:     0.25,
		ClosureWeight:      0.30,

		DegradedRegionPenalty: 0.5,
		SmallRegionRatio:      0.01,
		SmallRegionFactor:     0.5,
		ModerateRegionRatio:   0.05,
		ModerateRegionFactor:  0.8,
	}
}

// AggregateInput всё, что нужно агрегатору. QualityFactor 0 означает,
// что проверка качества не проводилась.
type AggregateInput struct {
	Inflammation   entity.DetectorResult
	Swelling       entity.DetectorResult
	Closure        entity.DetectorResult
	RegionDegraded bool
	RegionCoverage float64
	QualityFactor  float64
	Conditions     []string
}

// Assessment итог агрегации.
type Assessment struct {
	Status          entity.Status
	Risk            float64
	Recommendations []string
	Confidence      float64
}

// Aggregator сводит баллы детекторов в статус, рекомендации и уверенность.
type Aggregator struct {
	cfg AggregatorConfig
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Risk взвешенная сумма: покраснение, отёк и незакрытость шва.
func (a *Aggregator) Risk(inflammation, swelling, closure float64) float64 {
	return entity.ClampScore(a.cfg.InflammationWeight*inflammation +
		a.cfg.SwellingWeight*swelling +
		a.cfg.ClosureWeight*(100-closure))
}

// Status определяет категорию. Тревожные пороги проверяются первыми.
func (a *Aggregator) Status(inflammation, swelling, closure float64) entity.Status {
	risk := a.Risk(inflammation, swelling, closure)
	c := a.cfg
	switch {
	case inflammation >= c.InflammationConcern, swelling >= c.SwellingConcern,
		closure <= c.ClosureConcern, risk >= c.RiskConcern:
		return entity.StatusConcern
	case inflammation >= c.InflammationMonitor, swelling >= c.SwellingMonitor,
		closure < c.ClosureMonitor, risk >= c.RiskMonitor:
		return entity.StatusMonitor
	default:
		return entity.StatusGood
	}
}

// Aggregate чистая функция от входа.
func (a *Aggregator) Aggregate(in AggregateInput) Assessment {
	i, s, c := in.Inflammation.Score, in.Swelling.Score, in.Closure.Score
	status := a.Status(i, s, c)

	return Assessment{
		Status:          status,
		Risk:            a.Risk(i, s, c),
		Recommendations: recommend(status, i, s, c, len(in.Conditions) > 0),
		Confidence:      a.confidence(in),
	}
}

func (a *Aggregator) confidence(in AggregateInput) float64 {
	conf := in.Inflammation.Confidence * in.Swelling.Confidence * in.Closure.Confidence

	if in.RegionDegraded {
		conf *= a.cfg.DegradedRegionPenalty
	} else {
		switch {
		case in.RegionCoverage < a.cfg.SmallRegionRatio:
			conf *= a.cfg.SmallRegionFactor
		case in.RegionCoverage < a.cfg.ModerateRegionRatio:
			conf *= a.cfg.ModerateRegionFactor
		}
	}

	if in.QualityFactor > 0 {
		conf *= in.QualityFactor
	}
	if math.IsNaN(conf) {
		return 0
	}
	return entity.ClampUnit(conf)
}
