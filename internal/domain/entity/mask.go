package entity

import "image"

// RegionMask бинарная маска области раны поверх сетки пикселей кадра.
// Детекторы только читают маску.
type RegionMask struct {
	width    int
	height   int
	bits     []bool
	bounds   image.Rectangle
	area     int
	degraded bool
}

// NewRegionMask строит маску и вычисляет её площадь и ограничивающий прямоугольник.
func NewRegionMask(width, height int, bits []bool) *RegionMask {
	m := &RegionMask{width: width, height: height, bits: make([]bool, width*height)}
	copy(m.bits, bits)

	minX, minY, maxX, maxY := width, height, -1, -1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !m.bits[y*width+x] {
				continue
			}
			m.area++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if m.area > 0 {
		m.bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	}
	return m
}

// FullFrameMask маска "весь кадр", используется когда сегментация не нашла рану.
func FullFrameMask(width, height int) *RegionMask {
	bits := make([]bool, width*height)
	for i := range bits {
		bits[i] = true
	}
	m := NewRegionMask(width, height, bits)
	m.degraded = true
	return m
}

func (m *RegionMask) Width() int              { return m.width }
func (m *RegionMask) Height() int             { return m.height }
func (m *RegionMask) Area() int               { return m.area }
func (m *RegionMask) Bounds() image.Rectangle { return m.bounds }
func (m *RegionMask) Degraded() bool          { return m.degraded }

// Contains сообщает, входит ли пиксель в область. Точки за кадром не входят.
func (m *RegionMask) Contains(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Bits возвращает копию маски построчно.
func (m *RegionMask) Bits() []bool {
	out := make([]bool, len(m.bits))
	copy(out, m.bits)
	return out
}

// Coverage доля кадра, занятая областью.
func (m *RegionMask) Coverage() float64 {
	total := m.width * m.height
	if total == 0 {
		return 0
	}
	return float64(m.area) / float64(total)
}

// LongestSide длинная сторона ограничивающего прямоугольника.
func (m *RegionMask) LongestSide() int {
	if m.bounds.Dx() > m.bounds.Dy() {
		return m.bounds.Dx()
	}
	return m.bounds.Dy()
}
