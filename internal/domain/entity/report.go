package entity

import "time"

// Status итоговая категория состояния раны.
type Status string

const (
	StatusGood    Status = "good"
	StatusMonitor Status = "monitor"
	StatusConcern Status = "concern"
)

// RegionStats площадь найденной области относительно кадра.
type RegionStats struct {
	WoundArea   int
	TotalPixels int
}

// AnalysisReport единственная сущность, которая покидает конвейер анализа.
type AnalysisReport struct {
	Success           bool
	InflammationScore float64
	SwellingScore     float64
	ClosureScore      float64
	OverallStatus     Status
	Recommendations   []string
	Confidence        float64
	Timestamp         time.Time
	PatientID         string
	Notes             string
	Region            RegionStats
	Conditions        []string // записанные условия деградации, по порядку этапов
}
