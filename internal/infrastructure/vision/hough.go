package vision

import (
	"image"
	"math"
	"math/rand"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

const (
	houghAngles = 180
	houghShift  = 16
	// Фиксированное зерно: порядок голосования случайный, но результат воспроизводим.
	houghSeed = 0x5eed
)

var houghCos, houghSin = func() ([houghAngles]float64, [houghAngles]float64) {
	var c, s [houghAngles]float64
	for n := 0; n < houghAngles; n++ {
		theta := float64(n) * math.Pi / houghAngles
		c[n], s[n] = math.Cos(theta), math.Sin(theta)
	}
	return c, s
}()

// Segments прогрессивное вероятностное преобразование Хафа (шаг ρ = 1 px, θ = 1°).
// Точки голосуют в случайном порядке; как только накопитель набирает порог,
// вдоль найденного направления прослеживается отрезок и его точки снимаются с голосования.
func (NativeBackend) Segments(edges *image.Gray, p port.LineParams) []entity.LineSegment {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	numRho := 2*(w+h) + 1
	offset := (numRho - 1) / 2
	accum := make([]int, houghAngles*numRho)
	mask := make([]bool, w*h)

	var points []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0 {
				mask[y*w+x] = true
				points = append(points, image.Pt(x, y))
			}
		}
	}

	rng := rand.New(rand.NewSource(houghSeed))
	rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

	threshold := p.Threshold
	if threshold < 1 {
		threshold = 1
	}
	lineLength := int(math.Round(p.MinLineLength))
	lineGap := int(math.Round(p.MaxLineGap))

	rhoIndex := func(x, y, n int) int {
		return int(math.Round(float64(x)*houghCos[n]+float64(y)*houghSin[n])) + offset
	}

	var lines []entity.LineSegment
	for _, pt := range points {
		if !mask[pt.Y*w+pt.X] {
			continue
		}

		maxVal, maxN := threshold-1, 0
		for n := 0; n < houghAngles; n++ {
			k := n*numRho + rhoIndex(pt.X, pt.Y, n)
			accum[k]++
			if accum[k] > maxVal {
				maxVal, maxN = accum[k], n
			}
		}
		if maxVal < threshold {
			continue
		}

		// направление вдоль прямой с нормалью (cos θ, sin θ)
		a, bb := -houghSin[maxN], houghCos[maxN]
		x0, y0 := pt.X, pt.Y
		var dx0, dy0 int
		xMajor := math.Abs(a) > math.Abs(bb)
		if xMajor {
			dx0 = sign(a)
			dy0 = int(math.Round(bb * float64(int(1)<<houghShift) / math.Abs(a)))
			y0 = y0<<houghShift + 1<<(houghShift-1)
		} else {
			dy0 = sign(bb)
			dx0 = int(math.Round(a * float64(int(1)<<houghShift) / math.Abs(bb)))
			x0 = x0<<houghShift + 1<<(houghShift-1)
		}
		toPixel := func(x, y int) (int, int) {
			if xMajor {
				return x, y >> houghShift
			}
			return x >> houghShift, y
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			gap := 0
			for x, y := x0, y0; ; x, y = x+dx, y+dy {
				j, i := toPixel(x, y)
				if j < 0 || j >= w || i < 0 || i >= h {
					break
				}
				if mask[i*w+j] {
					gap = 0
					ends[k] = image.Pt(j, i)
				} else if gap++; gap > lineGap {
					break
				}
			}
		}

		good := absInt(ends[1].X-ends[0].X) >= lineLength || absInt(ends[1].Y-ends[0].Y) >= lineLength

		for k := 0; k < 2; k++ {
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for x, y := x0, y0; ; x, y = x+dx, y+dy {
				j, i := toPixel(x, y)
				if j < 0 || j >= w || i < 0 || i >= h {
					break
				}
				if mask[i*w+j] {
					if good {
						for n := 0; n < houghAngles; n++ {
							accum[n*numRho+rhoIndex(j, i, n)]--
						}
					}
					mask[i*w+j] = false
				}
				if j == ends[k].X && i == ends[k].Y {
					break
				}
			}
		}

		if good {
			lines = append(lines, entity.LineSegment{
				A: image.Pt(ends[0].X+b.Min.X, ends[0].Y+b.Min.Y),
				B: image.Pt(ends[1].X+b.Min.X, ends[1].Y+b.Min.Y),
			})
		}
	}

	return lines
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	return -1
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
