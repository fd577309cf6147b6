package model

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"healtrack/internal/domain/entity"
)

func TestPrepareInput(t *testing.T) {
	pix := make([]uint8, 0, 8*8*3)
	for i := 0; i < 8*8; i++ {
		pix = append(pix, 255, 0, 51)
	}
	img, err := entity.NewWoundImage(8, 8, pix)
	require.NoError(t, err)

	dst := make([]float32, 3*4*4)
	require.NoError(t, prepareInput(img, image.Rect(2, 2, 6, 6), 4, dst))
	require.InDelta(t, 1.0, dst[0], 1e-6)
	require.InDelta(t, 0.0, dst[16], 1e-6)
	require.InDelta(t, 0.2, dst[32], 1e-6)
}

func TestPrepareInputRejects(t *testing.T) {
	img, err := entity.NewWoundImage(4, 4, make([]uint8, 4*4*3))
	require.NoError(t, err)

	require.Error(t, prepareInput(img, image.Rect(10, 10, 20, 20), 2, make([]float32, 12)))
	require.Error(t, prepareInput(img, image.Rect(0, 0, 4, 4), 2, make([]float32, 5)))
}
