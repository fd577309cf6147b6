package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"healtrack/internal/domain/port"
)

const (
	tan22 = 0.41421356237 // tan(22.5°)
	tan67 = 2.41421356237 // tan(67.5°)
)

// Canny: размытие по Гауссу (imaging.Blur), градиент Собеля с L1-нормой,
// подавление немаксимумов и гистерезис по двум порогам.
func (NativeBackend) Canny(gray *image.Gray, p port.EdgeParams) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return out
	}

	lum := luminance(gray, p.BlurSigma)
	at := func(x, y int) float64 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return lum[y*w+x]
	}

	gx := make([]float64, w*h)
	gy := make([]float64, w*h)
	mag := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			gx[i] = at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy[i] = at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			mag[i] = math.Abs(gx[i]) + math.Abs(gy[i])
		}
	}

	// 0: не граница, 1: слабый кандидат, 2: сильная граница
	state := make([]uint8, w*h)
	stack := make([]int, 0, 256)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= p.LowThreshold {
				continue
			}

			ax, ay := math.Abs(gx[i]), math.Abs(gy[i])
			var n1, n2 float64
			switch {
			case ay <= ax*tan22:
				n1, n2 = mag[i-1], mag[i+1]
			case ay >= ax*tan67:
				n1, n2 = mag[i-w], mag[i+w]
			case gx[i]*gy[i] > 0:
				n1, n2 = mag[i-w-1], mag[i+w+1]
			default:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			}
			if !(m > n1 && m >= n2) {
				continue
			}

			if m > p.HighThreshold {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[(i/w)*out.Stride+i%w] = 255

		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}

	return out
}

func luminance(gray *image.Gray, sigma float64) []float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	lum := make([]float64, w*h)

	if sigma > 0 {
		blurred := imaging.Blur(gray, sigma)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				lum[y*w+x] = float64(blurred.Pix[y*blurred.Stride+x*4])
			}
		}
		return lum
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	return lum
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
