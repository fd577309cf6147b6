package port

import (
	"image"

	"healtrack/internal/domain/entity"
)

// InflammationModel обученная модель покраснения. Держится как ресурс
// с явным жизненным циклом: загрузка при старте, Close при остановке.
type InflammationModel interface {
	// PredictRedness возвращает вероятность воспаления в [0,1] для области кадра.
	PredictRedness(img *entity.WoundImage, region image.Rectangle) (float64, error)

	Close() error
}
