package vision

import (
	"image"
	"math"
	"sort"

	"healtrack/internal/domain/entity"
)

// Соседи по Муру по часовой стрелке (ось Y направлена вниз), начиная с запада.
var mooreRing = [8]image.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

func ringIndex(d image.Point) int {
	for i, p := range mooreRing {
		if p == d {
			return i
		}
	}
	return 0
}

// OuterContour обходит внешнюю границу маски по соседям Мура.
// Обход начинается с верхней левой точки области.
func (NativeBackend) OuterContour(mask *entity.RegionMask) []image.Point {
	start, ok := firstPixel(mask)
	if !ok {
		return nil
	}

	contour := []image.Point{start}
	cur := start
	back := 0 // западный сосед стартовой точки заведомо фон
	limit := 4*mask.Area() + 16

	for step := 0; step < limit; step++ {
		found := -1
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			n := cur.Add(mooreRing[d])
			if mask.Contains(n.X, n.Y) {
				found = d
				break
			}
		}
		if found < 0 {
			// одиночный пиксель
			return contour
		}

		next := cur.Add(mooreRing[found])
		if cur == start && len(contour) > 1 && next == contour[1] {
			break
		}

		prev := cur.Add(mooreRing[(found+7)%8])
		cur = next
		back = ringIndex(prev.Sub(cur))
		contour = append(contour, cur)
	}

	// последняя точка совпадает со стартом, когда обход замкнулся
	if len(contour) > 1 && contour[len(contour)-1] == start {
		contour = contour[:len(contour)-1]
	}
	return contour
}

func firstPixel(mask *entity.RegionMask) (image.Point, bool) {
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.Contains(x, y) {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// ConvexHull строит оболочку методом монотонной цепочки.
// Возвращает индексы точек контура по возрастанию.
func (NativeBackend) ConvexHull(contour []image.Point) []int {
	n := len(contour)
	if n < 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := contour[order[a]], contour[order[b]]
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return pa.Y < pb.Y
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]int, 0, 2*n)
	for _, i := range order {
		for len(hull) >= 2 && cross(contour[hull[len(hull)-2]], contour[hull[len(hull)-1]], contour[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	lower := len(hull) + 1
	for k := n - 2; k >= 0; k-- {
		i := order[k]
		for len(hull) >= lower && cross(contour[hull[len(hull)-2]], contour[hull[len(hull)-1]], contour[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	hull = hull[:len(hull)-1]

	sort.Ints(hull)
	return dedupInts(hull)
}

func dedupInts(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// ConvexityDefects для каждой пары соседних вершин оболочки ищет
// самую удалённую от хорды точку контура между ними.
func (NativeBackend) ConvexityDefects(contour []image.Point, hull []int) []entity.ConvexityDefect {
	n := len(contour)
	if len(hull) < 3 || n < 4 {
		return nil
	}

	h := append([]int(nil), hull...)
	sort.Ints(h)

	var defects []entity.ConvexityDefect
	for k := range h {
		s, e := h[k], h[(k+1)%len(h)]
		span := (e - s + n) % n
		if span < 2 {
			continue
		}

		sp, ep := contour[s], contour[e]
		dx, dy := float64(ep.X-sp.X), float64(ep.Y-sp.Y)
		norm := math.Hypot(dx, dy)
		if norm == 0 {
			continue
		}

		best, bestIdx := 0.0, -1
		for step := 1; step < span; step++ {
			i := (s + step) % n
			p := contour[i]
			d := math.Abs(dx*float64(p.Y-sp.Y)-dy*float64(p.X-sp.X)) / norm
			if d > best {
				best, bestIdx = d, i
			}
		}
		if bestIdx >= 0 {
			defects = append(defects, entity.ConvexityDefect{Start: s, End: e, Farthest: bestIdx, Depth: best})
		}
	}
	return defects
}
