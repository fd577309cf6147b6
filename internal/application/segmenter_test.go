package app

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"healtrack/internal/infrastructure/vision"
)

func TestSegmenterFindsSkinRegion(t *testing.T) {
	seg := NewRegionSegmenter(DefaultSegmenterConfig(), vision.NewNativeBackend())

	img := canvas(200, 200, backgroundGray)
	fillWhere(img, skinTone, inDisk(100, 100, 60))

	mask, err := seg.Segment(toWound(t, img))
	require.NoError(t, err)
	require.False(t, mask.Degraded())
	require.Equal(t, 200, mask.Width())
	require.Equal(t, 200, mask.Height())
	require.InEpsilon(t, math.Pi*60*60, float64(mask.Area()), 0.03)
	require.True(t, mask.Contains(100, 100))
	require.False(t, mask.Contains(5, 5))
}

func TestSegmenterKeepsRednessAndSutureInside(t *testing.T) {
	seg := NewRegionSegmenter(DefaultSegmenterConfig(), vision.NewNativeBackend())

	mask, err := seg.Segment(toWound(t, woundScene(true, true)))
	require.NoError(t, err)
	require.False(t, mask.Degraded())
	require.True(t, mask.Contains(120, 75))
	require.True(t, mask.Contains(120, 150))
	require.InEpsilon(t, math.Pi*95*95, float64(mask.Area()), 0.03)
}

func TestSegmenterFallsBackOnUniformImage(t *testing.T) {
	seg := NewRegionSegmenter(DefaultSegmenterConfig(), vision.NewNativeBackend())

	mask, err := seg.Segment(toWound(t, canvas(64, 64, skinTone)))
	require.NoError(t, err)
	require.True(t, mask.Degraded())
	require.Equal(t, 64*64, mask.Area())
}

func TestSegmenterFallsBackOnTinySpot(t *testing.T) {
	seg := NewRegionSegmenter(DefaultSegmenterConfig(), vision.NewNativeBackend())

	img := canvas(200, 200, backgroundGray)
	fillWhere(img, skinTone, inDisk(100, 100, 5))

	mask, err := seg.Segment(toWound(t, img))
	require.NoError(t, err)
	require.True(t, mask.Degraded())
}
