package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"healtrack/config"
	"healtrack/internal/api/rest"
	"healtrack/internal/api/telegram"
	app "healtrack/internal/application"
	"healtrack/internal/container"
	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
	"healtrack/internal/infrastructure/model"
	"healtrack/internal/infrastructure/storage"
	"healtrack/internal/infrastructure/vision"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	backend, err := vision.New(cfg.VisionBackend)
	if err != nil {
		return fmt.Errorf("vision backend: %w", err)
	}
	log.Printf("Vision backend: %s", backend.Name())

	// Обученная модель необязательна: без неё работает чистая эвристика.
	var inflammationModel port.InflammationModel
	if cfg.ModelPath != "" {
		m, err := model.Load(model.DefaultConfig(cfg.ModelPath, cfg.OnnxLibPath))
		if err != nil {
			log.Printf("Inflammation model disabled: %v", err)
		} else {
			inflammationModel = m
			defer func() {
				if err := m.Close(); err != nil {
					log.Printf("Error closing model: %v", err)
				}
			}()
			log.Printf("Inflammation model loaded from %s", cfg.ModelPath)
		}
	}

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	// Собираем сервисы приложения
	appContainer := container.New(userRepo, backend, inflammationModel, app.IngestConfig{
		MaxBytes: cfg.MaxImageBytes,
		MinSide:  cfg.MinImageSide,
		MaxSide:  cfg.MaxImageSide,
	})

	api := rest.NewServer(appContainer.AnalysisService, appContainer.Metrics, rest.ModelInfo{
		Name:          "healtrack",
		Version:       version,
		Backend:       backend.Name(),
		ModelLoaded:   inflammationModel != nil,
		Detectors:     []string{app.DetectorInflammation, app.DetectorSwelling, app.DetectorClosure},
		Statuses:      []string{string(entity.StatusGood), string(entity.StatusMonitor), string(entity.StatusConcern)},
		MaxImageBytes: cfg.MaxImageBytes,
		MinImageSide:  cfg.MinImageSide,
		MaxImageSide:  cfg.MaxImageSide,
	}, cfg.AnalysisTimeout)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.AnalysisTimeout + 30*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Println("Shutting down...")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.AnalysisService, cfg.MaxImageBytes, cfg.AnalysisTimeout)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("create bot: %w", err)
		}
		g.Go(func() error {
			log.Println("Bot is running...")
			return bot.Run(gctx)
		})
	} else {
		log.Println("TELEGRAM_TOKEN is not set, bot is disabled")
	}

	return g.Wait()
}
