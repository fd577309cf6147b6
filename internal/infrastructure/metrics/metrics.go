package metrics

import (
	"sync/atomic"
	"time"

	"healtrack/internal/domain/entity"
)

// Metrics счётчики обработанных запросов. Без идентификаторов пациентов.
type Metrics struct {
	totalRequests atomic.Int64
	invalidImages atomic.Int64
	failures      atomic.Int64
	timeouts      atomic.Int64
	totalLatency  atomic.Int64 // миллисекунды
	lastAnalysis  atomic.Int64 // unix

	good    atomic.Int64
	monitor atomic.Int64
	concern atomic.Int64
}

func New() *Metrics {
	return &Metrics{}
}

// RecordSuccess учитывает успешный анализ и его статус.
func (m *Metrics) RecordSuccess(status entity.Status, took time.Duration) {
	m.totalRequests.Add(1)
	m.totalLatency.Add(took.Milliseconds())
	m.lastAnalysis.Store(time.Now().Unix())

	switch status {
	case entity.StatusGood:
		m.good.Add(1)
	case entity.StatusMonitor:
		m.monitor.Add(1)
	case entity.StatusConcern:
		m.concern.Add(1)
	}
}

// RecordError учитывает отказ по виду ошибки.
func (m *Metrics) RecordError(kind string) {
	m.totalRequests.Add(1)
	switch kind {
	case entity.KindInvalidImage:
		m.invalidImages.Add(1)
	default:
		m.failures.Add(1)
	}
}

func (m *Metrics) RecordTimeout() {
	m.totalRequests.Add(1)
	m.timeouts.Add(1)
}

// Snapshot согласованный для отображения срез счётчиков.
type Snapshot struct {
	TotalRequests  int64            `json:"total_requests"`
	Successful     int64            `json:"successful"`
	InvalidImages  int64            `json:"invalid_images"`
	Failures       int64            `json:"failures"`
	Timeouts       int64            `json:"timeouts"`
	AvgLatencyMs   float64          `json:"avg_latency_ms"`
	LastAnalysisAt int64            `json:"last_analysis_at,omitempty"`
	ByStatus       map[string]int64 `json:"by_status"`
}

func (m *Metrics) Snapshot() Snapshot {
	good, monitor, concern := m.good.Load(), m.monitor.Load(), m.concern.Load()
	successful := good + monitor + concern

	s := Snapshot{
		TotalRequests:  m.totalRequests.Load(),
		Successful:     successful,
		InvalidImages:  m.invalidImages.Load(),
		Failures:       m.failures.Load(),
		Timeouts:       m.timeouts.Load(),
		LastAnalysisAt: m.lastAnalysis.Load(),
		ByStatus: map[string]int64{
			string(entity.StatusGood):    good,
			string(entity.StatusMonitor): monitor,
			string(entity.StatusConcern): concern,
		},
	}
	if successful > 0 {
		s.AvgLatencyMs = float64(m.totalLatency.Load()) / float64(successful)
	}
	return s
}
