package app

import "sort"

// Бинарная морфология над построчными []bool масками.
// Эрозия считает пиксели за кадром передним планом, как OpenCV по умолчанию.

func dilateBits(bits []bool, w, h, r int) []bool {
	if r <= 0 {
		return append([]bool(nil), bits...)
	}
	// Разделимый квадратный элемент: сначала по строкам, потом по столбцам.
	tmp := make([]bool, len(bits))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for dx := -r; dx <= r; dx++ {
				nx := x + dx
				if nx >= 0 && nx < w && bits[y*w+nx] {
					tmp[y*w+x] = true
					break
				}
			}
		}
	}
	out := make([]bool, len(bits))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for dy := -r; dy <= r; dy++ {
				ny := y + dy
				if ny >= 0 && ny < h && tmp[ny*w+x] {
					out[y*w+x] = true
					break
				}
			}
		}
	}
	return out
}

func erodeBits(bits []bool, w, h, r int) []bool {
	if r <= 0 {
		return append([]bool(nil), bits...)
	}
	tmp := make([]bool, len(bits))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := true
			for dx := -r; dx <= r; dx++ {
				nx := x + dx
				if nx >= 0 && nx < w && !bits[y*w+nx] {
					keep = false
					break
				}
			}
			tmp[y*w+x] = keep
		}
	}
	out := make([]bool, len(bits))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := true
			for dy := -r; dy <= r; dy++ {
				ny := y + dy
				if ny >= 0 && ny < h && !tmp[ny*w+x] {
					keep = false
					break
				}
			}
			out[y*w+x] = keep
		}
	}
	return out
}

func closeBits(bits []bool, w, h, r int) []bool {
	return erodeBits(dilateBits(bits, w, h, r), w, h, r)
}

func openBits(bits []bool, w, h, r int) []bool {
	return dilateBits(erodeBits(bits, w, h, r), w, h, r)
}

// largestComponent оставляет самую большую 8-связную компоненту.
func largestComponent(bits []bool, w, h int) ([]bool, int) {
	labels := make([]int32, len(bits))
	var (
		best, bestSize int32
		next           int32
		stack          []int
	)
	for i, on := range bits {
		if !on || labels[i] != 0 {
			continue
		}
		next++
		size := int32(0)
		labels[i] = next
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					q := ny*w + nx
					if bits[q] && labels[q] == 0 {
						labels[q] = next
						stack = append(stack, q)
					}
				}
			}
		}
		if size > bestSize {
			best, bestSize = next, size
		}
	}

	out := make([]bool, len(bits))
	if best == 0 {
		return out, 0
	}
	for i, l := range labels {
		out[i] = l == best
	}
	return out, int(bestSize)
}

// fillHoles заливает фон, не связанный с краем кадра (4-связность).
func fillHoles(bits []bool, w, h int) []bool {
	outside := make([]bool, len(bits))
	var stack []int
	push := func(x, y int) {
		i := y*w + x
		if !bits[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := p%w, p/w
		if px > 0 {
			push(px-1, py)
		}
		if px < w-1 {
			push(px+1, py)
		}
		if py > 0 {
			push(px, py-1)
		}
		if py < h-1 {
			push(px, py+1)
		}
	}

	out := make([]bool, len(bits))
	for i := range bits {
		out[i] = !outside[i]
	}
	return out
}

// otsuThreshold возвращает индекс корзины, максимизирующий межклассовую дисперсию.
// Класс фона включает корзины 0..t.
func otsuThreshold(hist []int) int {
	total := 0
	sum := 0.0
	for i, c := range hist {
		total += c
		sum += float64(i * c)
	}
	if total == 0 {
		return 0
	}

	var (
		best     int
		bestVar  float64
		weightBg int
		sumBg    float64
	)
	for t, c := range hist {
		weightBg += c
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * c)
		meanBg := sumBg / float64(weightBg)
		meanFg := (sum - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > bestVar {
			best, bestVar = t, between
		}
	}
	return best
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func countBits(bits []bool) int {
	n := 0
	for _, b := range bits {
		if b {
			n++
		}
	}
	return n
}
