package app

import "healtrack/internal/domain/entity"

// Таблицы рекомендаций. Порядок строк в ответе стабилен:
// сначала общий вывод по статусу, затем по каждому признаку.

var statusAdvice = map[entity.Status][]string{
	entity.StatusGood: {
		"Healing appears to be progressing normally.",
		"Continue regular follow-up and the recommended wound care.",
	},
	entity.StatusMonitor: {
		"Close follow-up is advised.",
		"Check your medication schedule and keep strict hygiene.",
	},
	entity.StatusConcern: {
		"Medical attention may be needed soon.",
		"Contact your surgeon or clinic.",
	},
}

type band struct {
	min  float64
	text string
}

// Полосы упорядочены по убыванию, срабатывает первая подходящая.
var inflammationBands = []band{
	{70, "Marked redness around the wound suggests a high infection risk."},
	{50, "Redness is increasing; look for warmth, pain or discharge over the next day."},
	{25, "Mild redness is present; keep the area clean and dry."},
}

var swellingBands = []band{
	{60, "The wound outline is markedly irregular, which may indicate swelling."},
	{40, "Some swelling is visible; rest and elevate the area if possible."},
}

// Для закрытия полосы задаются по недостатку: 100 - closure.
var openingBands = []band{
	{75, "The wound edges do not appear to be closed; do not remove dressings yourself."},
	{50, "Closure looks incomplete; avoid stretching the wound."},
}

const retakeAdvice = "Image conditions limited this analysis; retake the photo in even light against a plain background."

func recommend(status entity.Status, inflammation, swelling, closure float64, degraded bool) []string {
	out := append([]string(nil), statusAdvice[status]...)
	if text, ok := pickBand(inflammationBands, inflammation); ok {
		out = append(out, text)
	}
	if text, ok := pickBand(swellingBands, swelling); ok {
		out = append(out, text)
	}
	if text, ok := pickBand(openingBands, 100-closure); ok {
		out = append(out, text)
	}
	if degraded {
		out = append(out, retakeAdvice)
	}
	return out
}

func pickBand(bands []band, v float64) (string, bool) {
	for _, b := range bands {
		if v >= b.min {
			return b.text, true
		}
	}
	return "", false
}
