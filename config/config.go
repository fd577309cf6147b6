package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	TelegramToken string // пустой токен отключает бота

	MaxImageBytes int
	MinImageSide  int
	MaxImageSide  int

	VisionBackend string // native или gocv
	ModelPath     string // пустая строка: анализ без обученной модели
	OnnxLibPath   string

	AnalysisTimeout time.Duration
	Debug           bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		MaxImageBytes:   getEnvInt("MAX_IMAGE_BYTES", 5<<20),
		MinImageSide:    getEnvInt("MIN_IMAGE_SIDE", 32),
		MaxImageSide:    getEnvInt("MAX_IMAGE_SIDE", 1024),
		VisionBackend:   strings.ToLower(getEnv("VISION_BACKEND", "native")),
		ModelPath:       os.Getenv("MODEL_PATH"),
		OnnxLibPath:     os.Getenv("ONNX_LIB_PATH"),
		AnalysisTimeout: getEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second),
		Debug:           getEnvBool("DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность лимитов.
func (c *Config) Validate() error {
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive, got %d", c.MaxImageBytes)
	}
	if c.MinImageSide <= 0 || c.MaxImageSide < c.MinImageSide {
		return fmt.Errorf("image side limits are inconsistent: min %d, max %d", c.MinImageSide, c.MaxImageSide)
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive, got %s", c.AnalysisTimeout)
	}
	switch c.VisionBackend {
	case "native", "gocv":
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
