package entity

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineSegmentCenter(t *testing.T) {
	s := LineSegment{A: image.Pt(10, 20), B: image.Pt(18, 26)}
	x, y := s.Center()
	require.Equal(t, 14.0, x)
	require.Equal(t, 23.0, y)
	require.InDelta(t, 10.0, s.Length(), 1e-9)
}

func TestLineSegmentAngle_IgnoresDirection(t *testing.T) {
	forward := LineSegment{A: image.Pt(0, 0), B: image.Pt(10, 10)}
	backward := LineSegment{A: image.Pt(10, 10), B: image.Pt(0, 0)}
	require.InDelta(t, math.Pi/4, forward.Angle(), 1e-9)
	require.InDelta(t, forward.Angle(), backward.Angle(), 1e-9)

	horizontal := LineSegment{A: image.Pt(10, 5), B: image.Pt(0, 5)}
	require.InDelta(t, 0, horizontal.Angle(), 1e-9)
}
