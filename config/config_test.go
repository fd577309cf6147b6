package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var keys = []string{
	"HTTP_ADDR", "TELEGRAM_TOKEN", "MAX_IMAGE_BYTES", "MIN_IMAGE_SIDE", "MAX_IMAGE_SIDE",
	"VISION_BACKEND", "MODEL_PATH", "ONNX_LIB_PATH", "ANALYSIS_TIMEOUT", "DEBUG",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8000", cfg.HTTPAddr)
	require.Empty(t, cfg.TelegramToken)
	require.Equal(t, 5<<20, cfg.MaxImageBytes)
	require.Equal(t, 32, cfg.MinImageSide)
	require.Equal(t, 1024, cfg.MaxImageSide)
	require.Equal(t, "native", cfg.VisionBackend)
	require.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
	require.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("MAX_IMAGE_BYTES", "1048576")
	t.Setenv("VISION_BACKEND", "GoCV")
	t.Setenv("ANALYSIS_TIMEOUT", "5s")
	t.Setenv("DEBUG", "true")
	t.Setenv("MIN_IMAGE_SIDE", "not a number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	require.Equal(t, 1<<20, cfg.MaxImageBytes)
	require.Equal(t, "gocv", cfg.VisionBackend)
	require.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	require.True(t, cfg.Debug)
	require.Equal(t, 32, cfg.MinImageSide)
}

func TestLoadRejectsInconsistentLimits(t *testing.T) {
	for name, env := range map[string][2]string{
		"backend": {"VISION_BACKEND", "opencl"},
		"bytes":   {"MAX_IMAGE_BYTES", "-1"},
		"sides":   {"MAX_IMAGE_SIDE", "16"},
		"timeout": {"ANALYSIS_TIMEOUT", "-3s"},
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(env[0], env[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}
