package port

import "healtrack/internal/domain/entity"

// Segmenter выделяет область раны на кадре.
type Segmenter interface {
	// Segment никогда не возвращает пустую маску: при неудаче маска покрывает весь кадр.
	Segment(img *entity.WoundImage) (*entity.RegionMask, error)
}

// RegionAnalyzer детектор, который оценивает один признак заживления внутри маски.
type RegionAnalyzer interface {
	Analyze(img *entity.WoundImage, region *entity.RegionMask) (entity.DetectorResult, error)
}
