package entity

import (
	"image"
	"math"
)

// ConvexityDefect участок контура, уходящий внутрь выпуклой оболочки.
type ConvexityDefect struct {
	Start    int     // индекс точки контура, где начинается дефект
	End      int     // индекс точки контура, где дефект заканчивается
	Farthest int     // индекс самой глубокой точки
	Depth    float64 // расстояние от самой глубокой точки до оболочки, в пикселях
}

// LineSegment отрезок, найденный детектором линий.
type LineSegment struct {
	A image.Point
	B image.Point
}

// Length возвращает длину отрезка в пикселях.
func (s LineSegment) Length() float64 {
	return math.Hypot(float64(s.B.X-s.A.X), float64(s.B.Y-s.A.Y))
}

// Center возвращает середину отрезка.
func (s LineSegment) Center() (x, y float64) {
	return float64(s.A.X+s.B.X) / 2, float64(s.A.Y+s.B.Y) / 2
}

// Angle направление отрезка в радианах, приведённое к [0, π).
func (s LineSegment) Angle() float64 {
	a := math.Atan2(float64(s.B.Y-s.A.Y), float64(s.B.X-s.A.X))
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a -= math.Pi
	}
	return a
}
