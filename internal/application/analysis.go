package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// Названия этапов для ProcessingError и логов.
const (
	StageIngest    = "ingest"
	StageQuality   = "quality"
	StageSegment   = "segment"
	StageAggregate = "aggregate"
)

// AnalysisRequest один запрос на анализ. Image имеет приоритет над Payload.
type AnalysisRequest struct {
	Image     []byte // сырые байты файла
	Payload   string // base64 или data URL
	PatientID string
	Notes     string
}

// Detectors три независимых детектора над одной маской.
type Detectors struct {
	Inflammation port.RegionAnalyzer
	Swelling     port.RegionAnalyzer
	Closure      port.RegionAnalyzer
}

// AnalysisService конвейер: приём, проверка качества, сегментация, детекторы, агрегация.
// Состояния между запросами не хранит.
type AnalysisService struct {
	ingestor   *Ingestor
	quality    *QualityGate // может быть nil
	segmenter  port.Segmenter
	detectors  Detectors
	aggregator *Aggregator
	now        func() time.Time
}

func NewAnalysisService(ingestor *Ingestor, quality *QualityGate, segmenter port.Segmenter, detectors Detectors, aggregator *Aggregator) *AnalysisService {
	return &AnalysisService{
		ingestor:   ingestor,
		quality:    quality,
		segmenter:  segmenter,
		detectors:  detectors,
		aggregator: aggregator,
		now:        time.Now,
	}
}

// WithClock подменяет источник времени для отметки в отчёте.
func (s *AnalysisService) WithClock(now func() time.Time) *AnalysisService {
	s.now = now
	return s
}

// Ingestor возвращает приёмник, адаптеры используют его лимиты.
func (s *AnalysisService) Ingestor() *Ingestor {
	return s.ingestor
}

// Analyze выполняет все этапы один раз. При ошибке частичный отчёт не возвращается.
func (s *AnalysisService) Analyze(req AnalysisRequest) (*entity.AnalysisReport, error) {
	started := s.now()
	report, err := s.analyze(req)
	if err != nil {
		log.Printf("analysis failed: patient=%s kind=%s: %v", Pseudonym(req.PatientID), entity.ErrorKind(err), err)
		return nil, err
	}

	log.Printf("analysis done: patient=%s status=%s confidence=%.2f conditions=%v took=%s",
		Pseudonym(req.PatientID), report.OverallStatus, report.Confidence, report.Conditions, s.now().Sub(started))
	return report, nil
}

// AnalyzeContext ограничивает анализ временем контекста. По истечении
// результат отбрасывается, вычисление дорабатывает в фоне.
func (s *AnalysisService) AnalyzeContext(ctx context.Context, req AnalysisRequest) (*entity.AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		report *entity.AnalysisReport
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := s.Analyze(req)
		done <- outcome{report, err}
	}()

	select {
	case <-ctx.Done():
		log.Printf("analysis abandoned: patient=%s: %v", Pseudonym(req.PatientID), ctx.Err())
		return nil, ctx.Err()
	case out := <-done:
		return out.report, out.err
	}
}

func (s *AnalysisService) analyze(req AnalysisRequest) (*entity.AnalysisReport, error) {
	img, err := runStage(StageIngest, func() (*entity.WoundImage, error) {
		data := req.Image
		if len(data) == 0 {
			decoded, err := s.ingestor.Decode(req.Payload)
			if err != nil {
				return nil, err
			}
			data = decoded
		}
		return s.ingestor.Ingest(data)
	})
	if err != nil {
		return nil, err
	}

	var conditions []string

	quality := QualityReport{Factor: 1}
	if s.quality != nil {
		quality, err = runStage(StageQuality, func() (QualityReport, error) {
			return s.quality.Assess(img), nil
		})
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, quality.Conditions...)
	}

	region, err := runStage(StageSegment, func() (*entity.RegionMask, error) {
		return s.segmenter.Segment(img)
	})
	if err != nil {
		return nil, err
	}
	if region == nil || region.Width() != img.Width() || region.Height() != img.Height() {
		return nil, &entity.ProcessingError{Stage: StageSegment, Cause: errors.New("mask does not match image dimensions")}
	}
	if region.Degraded() {
		conditions = append(conditions, entity.ConditionSegmentationFallback)
	}

	results := make([]entity.DetectorResult, 0, 3)
	for _, d := range []struct {
		stage    string
		analyzer port.RegionAnalyzer
	}{
		{DetectorInflammation, s.detectors.Inflammation},
		{DetectorSwelling, s.detectors.Swelling},
		{DetectorClosure, s.detectors.Closure},
	} {
		res, err := runStage(d.stage, func() (entity.DetectorResult, error) {
			return d.analyzer.Analyze(img, region)
		})
		if err != nil {
			return nil, err
		}
		if !res.Valid() {
			return nil, &entity.ProcessingError{
				Stage: d.stage,
				Cause: fmt.Errorf("result out of range: score=%v confidence=%v", res.Score, res.Confidence),
			}
		}
		if res.Degraded && res.Condition != "" {
			conditions = append(conditions, res.Condition)
		}
		results = append(results, res)
	}

	assessment, err := runStage(StageAggregate, func() (Assessment, error) {
		return s.aggregator.Aggregate(AggregateInput{
			Inflammation:   results[0],
			Swelling:       results[1],
			Closure:        results[2],
			RegionDegraded: region.Degraded(),
			RegionCoverage: region.Coverage(),
			QualityFactor:  quality.Factor,
			Conditions:     conditions,
		}), nil
	})
	if err != nil {
		return nil, err
	}

	return &entity.AnalysisReport{
		Success:           true,
		InflammationScore: results[0].Score,
		SwellingScore:     results[1].Score,
		ClosureScore:      results[2].Score,
		OverallStatus:     assessment.Status,
		Recommendations:   assessment.Recommendations,
		Confidence:        assessment.Confidence,
		Timestamp:         s.now(),
		PatientID:         req.PatientID,
		Notes:             req.Notes,
		Region: entity.RegionStats{
			WoundArea:   region.Area(),
			TotalPixels: img.Pixels(),
		},
		Conditions: conditions,
	}, nil
}

// runStage выполняет этап и приводит панику и посторонние ошибки к ProcessingError.
func runStage[T any](stage string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = &entity.ProcessingError{Stage: stage, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = fn()
	if err == nil {
		return out, nil
	}

	var invalid *entity.InvalidImageError
	var processing *entity.ProcessingError
	if errors.As(err, &invalid) || errors.As(err, &processing) {
		return out, err
	}
	return out, &entity.ProcessingError{Stage: stage, Cause: err}
}
