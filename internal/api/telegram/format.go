package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healtrack/internal/domain/entity"
)

var statusLabels = map[entity.Status]string{
	entity.StatusGood:    "✅ заживление идёт нормально",
	entity.StatusMonitor: "🟡 требуется наблюдение",
	entity.StatusConcern: "🔴 нужна консультация врача",
}

var conditionLabels = map[string]string{
	entity.ConditionSegmentationFallback: "рана не выделена на фоне",
	entity.ConditionAchromaticRegion:     "в кадре почти нет цвета",
	entity.ConditionDegenerateContour:    "контур раны не определён",
	entity.ConditionRegionTooSmall:       "рана слишком мала в кадре",
	entity.ConditionOverexposed:          "кадр пересвечен",
	entity.ConditionUnderexposed:         "кадр слишком тёмный",
	entity.ConditionGlare:                "блики",
}

// FormatReport текст ответа бота по отчёту анализа.
func FormatReport(r *entity.AnalysisReport) string {
	var sb strings.Builder

	sb.WriteString("📋 Результат анализа\n")
	if r.PatientID != "" {
		fmt.Fprintf(&sb, "🏷 Пациент: %s\n", r.PatientID)
	}
	sb.WriteString("\n")

	label, ok := statusLabels[r.OverallStatus]
	if !ok {
		label = string(r.OverallStatus)
	}
	fmt.Fprintf(&sb, "Состояние: %s\n", label)
	fmt.Fprintf(&sb, "Воспаление: %.1f/100\n", r.InflammationScore)
	fmt.Fprintf(&sb, "Отёк: %.1f/100\n", r.SwellingScore)
	fmt.Fprintf(&sb, "Закрытие: %.1f/100\n", r.ClosureScore)
	fmt.Fprintf(&sb, "Уверенность: %.0f%%\n", r.Confidence*100)

	if len(r.Conditions) > 0 {
		names := make([]string, 0, len(r.Conditions))
		for _, c := range r.Conditions {
			if l, ok := conditionLabels[c]; ok {
				names = append(names, l)
			} else {
				names = append(names, c)
			}
		}
		fmt.Fprintf(&sb, "\n⚠️ Условия съёмки: %s\n", strings.Join(names, ", "))
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\nРекомендации:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "• %s\n", rec)
		}
	}

	sb.WriteString("\nОценка вспомогательная и не является диагнозом.")
	return sb.String()
}

// FormatError текст ответа бота на ошибку анализа.
func FormatError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "⌛ Анализ занял слишком много времени. Попробуйте фото меньшего размера."
	}

	var invalid *entity.InvalidImageError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("⚠️ Изображение не подходит для анализа: %s.", invalid.Reason)
	}
	return msgProcessingError
}
