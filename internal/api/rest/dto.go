package rest

import (
	"math"
	"time"

	"healtrack/internal/domain/entity"
)

type analyzeRequest struct {
	ImageData string `json:"image_data"`
	Image     string `json:"image"`
	PatientID string `json:"patient_id"`
	Notes     string `json:"notes"`
}

// AnalysisResponse успешный ответ анализа.
type AnalysisResponse struct {
	Success           bool       `json:"success"`
	InflammationScore float64    `json:"inflammation_score"`
	SwellingScore     float64    `json:"swelling_score"`
	ClosureScore      float64    `json:"closure_score"`
	OverallStatus     string     `json:"overall_status"`
	Recommendations   []string   `json:"recommendations"`
	Confidence        float64    `json:"confidence"`
	Timestamp         string     `json:"timestamp"`
	PatientID         string     `json:"patient_id,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	ProcessedRegions  RegionsDTO `json:"processed_regions"`
	Conditions        []string   `json:"conditions,omitempty"`
}

type RegionsDTO struct {
	WoundArea   int `json:"wound_area"`
	TotalPixels int `json:"total_pixels"`
}

// ErrorResponse ответ при ошибке. Баллов в нём никогда нет.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Backend   string `json:"backend"`
}

// ModelInfo описание конфигурации анализа для /api/model-info.
type ModelInfo struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Backend       string   `json:"backend"`
	ModelLoaded   bool     `json:"model_loaded"`
	Detectors     []string `json:"detectors"`
	Statuses      []string `json:"statuses"`
	MaxImageBytes int      `json:"max_image_bytes"`
	MinImageSide  int      `json:"min_image_side"`
	MaxImageSide  int      `json:"max_image_side"`
}

func newAnalysisResponse(r *entity.AnalysisReport) AnalysisResponse {
	recs := r.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return AnalysisResponse{
		Success:           r.Success,
		InflammationScore: round(r.InflammationScore, 1),
		SwellingScore:     round(r.SwellingScore, 1),
		ClosureScore:      round(r.ClosureScore, 1),
		OverallStatus:     string(r.OverallStatus),
		Recommendations:   recs,
		Confidence:        round(r.Confidence, 2),
		Timestamp:         r.Timestamp.UTC().Format(time.RFC3339),
		PatientID:         r.PatientID,
		Notes:             r.Notes,
		ProcessedRegions: RegionsDTO{
			WoundArea:   r.Region.WoundArea,
			TotalPixels: r.Region.TotalPixels,
		},
		Conditions: r.Conditions,
	}
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
