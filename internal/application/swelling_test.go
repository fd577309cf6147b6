package app

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"healtrack/internal/domain/entity"
	"healtrack/internal/infrastructure/vision"
)

func TestSwellingDiskVersusStar(t *testing.T) {
	det := NewSwellingDetector(DefaultSwellingConfig(), vision.NewNativeBackend())
	img := toWound(t, canvas(240, 240, skinTone))

	disk, err := det.Analyze(img, maskWhere(240, 240, inDisk(120, 120, 90)))
	require.NoError(t, err)
	require.False(t, disk.Degraded)
	require.Less(t, disk.Score, 5.0)
	require.Greater(t, disk.Metadata["roundness"], 0.85)

	star, err := det.Analyze(img, maskWhere(240, 240, inPolygon(starPolygon(120, 125, 90, 35))))
	require.NoError(t, err)
	require.False(t, star.Degraded)
	require.Greater(t, star.Score, 50.0)
	require.Greater(t, star.Score, disk.Score+40)
	require.GreaterOrEqual(t, star.Metadata["defect_count"], 5.0)
	require.Less(t, star.Metadata["solidity"], disk.Metadata["solidity"])
}

func TestSwellingDegenerateContour(t *testing.T) {
	det := NewSwellingDetector(DefaultSwellingConfig(), vision.NewNativeBackend())
	img := toWound(t, canvas(40, 40, skinTone))

	for name, region := range map[string]*entity.RegionMask{
		"single pixel": maskWhere(40, 40, inRect(image.Rect(5, 5, 6, 6))),
		"thin line":    maskWhere(40, 40, inRect(image.Rect(5, 10, 30, 11))),
		"empty":        maskWhere(40, 40, func(int, int) bool { return false }),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := det.Analyze(img, region)
			require.NoError(t, err)
			require.True(t, res.Degraded)
			require.Equal(t, entity.ConditionDegenerateContour, res.Condition)
			require.Zero(t, res.Score)
			require.True(t, res.Valid())
		})
	}
}

func TestPolygonMeasures(t *testing.T) {
	square := []image.Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	require.Equal(t, 16.0, polygonArea(square))
	require.Equal(t, 16.0, arcLength(square))
	require.Zero(t, polygonArea(square[:2]))
}
