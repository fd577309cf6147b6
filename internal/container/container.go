package container

import (
	app "healtrack/internal/application"
	"healtrack/internal/domain/port"
	"healtrack/internal/infrastructure/metrics"
)

type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	Metrics         *metrics.Metrics
}

// New собирает конвейер анализа. model может быть nil.
func New(userRepo port.UserRepository, backend port.VisionBackend, model port.InflammationModel, ingest app.IngestConfig) *Container {
	userService := app.NewUserService(userRepo)

	analysisService := app.NewAnalysisService(
		app.NewIngestor(ingest),
		app.NewQualityGate(app.DefaultQualityConfig(), backend),
		app.NewRegionSegmenter(app.DefaultSegmenterConfig(), backend),
		app.Detectors{
			Inflammation: app.NewInflammationDetector(app.DefaultInflammationConfig(), backend, model),
			Swelling:     app.NewSwellingDetector(app.DefaultSwellingConfig(), backend),
			Closure:      app.NewClosureDetector(app.DefaultClosureConfig(), backend, backend, backend),
		},
		app.NewAggregator(app.DefaultAggregatorConfig()),
	)

	return &Container{
		UserService:     userService,
		AnalysisService: analysisService,
		Metrics:         metrics.New(),
	}
}
