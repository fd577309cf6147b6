package app

import (
	"image"
	"math"
	"sort"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

const DetectorClosure = "closure"

// ClosureConfig настройки поиска линии шва. Длины задаются в долях
// длинной стороны области, чтобы результат не зависел от масштаба кадра.
type ClosureConfig struct {
	LowThreshold        float64
	HighThreshold       float64
	BlurSigmaRatio      float64
	MinBlurSigma        float64
	BoundaryMarginRatio float64 // полоса у края области, где границы игнорируются
	VoteRatio           float64
	MinLineLengthRatio  float64
	MaxLineGapRatio     float64
	IncisionSpanRatio   float64 // ожидаемая длина шва
	ParallelAngleTol    float64 // радианы
	IncisionBandRatio   float64 // наибольшая ширина одной линии шва поперёк направления
	EndToleranceRatio   float64
	DegradedConfidence  float64
}

func DefaultClosureConfig() ClosureConfig {
	return ClosureConfig{
		LowThreshold:        50,
		HighThreshold:       150,
		BlurSigmaRatio:      0.004,
		MinBlurSigma:        0.8,
		BoundaryMarginRatio: 0.03,
		VoteRatio:           0.1,
		MinLineLengthRatio:  0.1,
		MaxLineGapRatio:     0.02,
		IncisionSpanRatio:   0.8,
		ParallelAngleTol:    5 * math.Pi / 180,
		IncisionBandRatio:   0.2,
		EndToleranceRatio:   0.03,
		DegradedConfidence:  0.5,
	}
}

// ClosureDetector оценивает сомкнутость краёв по длине прямых отрезков внутри раны.
type ClosureDetector struct {
	cfg       ClosureConfig
	converter port.ColorSpaceConverter
	edges     port.EdgeDetector
	lines     port.LineDetector
}

func NewClosureDetector(cfg ClosureConfig, converter port.ColorSpaceConverter, edges port.EdgeDetector, lines port.LineDetector) *ClosureDetector {
	return &ClosureDetector{cfg: cfg, converter: converter, edges: edges, lines: lines}
}

func (d *ClosureDetector) Analyze(img *entity.WoundImage, region *entity.RegionMask) (entity.DetectorResult, error) {
	longest := float64(region.LongestSide())
	if longest < 1 {
		return d.tooSmall(map[string]float64{}), nil
	}

	w, h := region.Width(), region.Height()
	margin := max(1, int(math.Round(d.cfg.BoundaryMarginRatio*longest)))
	inner := erodeBits(region.Bits(), w, h, margin)
	innerArea := countBits(inner)
	meta := map[string]float64{"inner_area": float64(innerArea)}
	if innerArea == 0 {
		return d.tooSmall(meta), nil
	}

	gray := d.converter.ToGray(img)
	edges := d.edges.Canny(gray, port.EdgeParams{
		LowThreshold:  d.cfg.LowThreshold,
		HighThreshold: d.cfg.HighThreshold,
		BlurSigma:     math.Max(d.cfg.MinBlurSigma, d.cfg.BlurSigmaRatio*longest),
	})

	// Контур самой области не должен считаться швом.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !inner[y*w+x] {
				edges.Pix[y*edges.Stride+x] = 0
			}
		}
	}

	segments := d.lines.Segments(edges, port.LineParams{
		Threshold:     max(1, int(math.Round(d.cfg.VoteRatio*longest))),
		MinLineLength: d.cfg.MinLineLengthRatio * longest,
		MaxLineGap:    math.Max(1, d.cfg.MaxLineGapRatio*longest),
	})
	incisions := mergeIncisions(segments, d.cfg.ParallelAngleTol,
		d.cfg.IncisionBandRatio*longest, math.Max(3, d.cfg.EndToleranceRatio*longest))

	var total float64
	for _, in := range incisions {
		total += in.length()
	}
	expected := d.cfg.IncisionSpanRatio * longest

	meta["total_length"] = total
	meta["segment_count"] = float64(len(incisions))
	meta["raw_segment_count"] = float64(len(segments))
	meta["expected_length"] = expected

	return entity.DetectorResult{
		Detector:   DetectorClosure,
		Score:      entity.ClampScore(100 * total / expected),
		Confidence: 1,
		Metadata:   meta,
	}, nil
}

func (d *ClosureDetector) tooSmall(meta map[string]float64) entity.DetectorResult {
	return entity.DetectorResult{
		Detector:   DetectorClosure,
		Score:      0,
		Confidence: d.cfg.DegradedConfidence,
		Degraded:   true,
		Condition:  entity.ConditionRegionTooSmall,
		Metadata:   meta,
	}
}

// incision одна линия шва: параллельные отрезки в полосе вокруг опорного.
// Длина считается по объединению их проекций на направление опорного отрезка,
// поэтому обе стороны толстой линии и её обрывки засчитываются один раз.
type incision struct {
	ox, oy    float64 // начало опорного отрезка
	ux, uy    float64 // единичное направление
	angle     float64
	intervals [][2]float64
	acrossLo  float64
	acrossHi  float64
}

func newIncision(seed entity.LineSegment) *incision {
	l := seed.Length()
	in := &incision{
		ox:    float64(seed.A.X),
		oy:    float64(seed.A.Y),
		ux:    float64(seed.B.X-seed.A.X) / l,
		uy:    float64(seed.B.Y-seed.A.Y) / l,
		angle: seed.Angle(),
	}
	in.add(seed)
	return in
}

// project возвращает координаты точки вдоль линии и поперёк неё.
func (in *incision) project(p image.Point) (along, across float64) {
	rx, ry := float64(p.X)-in.ox, float64(p.Y)-in.oy
	return rx*in.ux + ry*in.uy, rx*in.uy - ry*in.ux
}

func (in *incision) add(s entity.LineSegment) {
	a1, c1 := in.project(s.A)
	a2, c2 := in.project(s.B)
	in.intervals = append(in.intervals, [2]float64{math.Min(a1, a2), math.Max(a1, a2)})
	if len(in.intervals) == 1 {
		in.acrossLo, in.acrossHi = math.Min(c1, c2), math.Max(c1, c2)
		return
	}
	in.acrossLo = math.Min(in.acrossLo, math.Min(c1, c2))
	in.acrossHi = math.Max(in.acrossHi, math.Max(c1, c2))
}

// accepts: отрезок параллелен линии и целиком лежит в полосе шириной band.
func (in *incision) accepts(s entity.LineSegment, angleTol, band float64) bool {
	da := math.Abs(in.angle - s.Angle())
	da = math.Min(da, math.Pi-da)
	if da > angleTol {
		return false
	}
	_, c1 := in.project(s.A)
	_, c2 := in.project(s.B)
	lo := math.Min(in.acrossLo, math.Min(c1, c2))
	hi := math.Max(in.acrossHi, math.Max(c1, c2))
	return hi-lo <= band
}

// covers: отрезок лежит внутри прямоугольника линии с допуском tol.
// Так отбрасываются торцы толстой линии.
func (in *incision) covers(s entity.LineSegment, tol float64) bool {
	lo, hi := in.span()
	for _, p := range []image.Point{s.A, s.B} {
		along, across := in.project(p)
		if along < lo-tol || along > hi+tol || across < in.acrossLo-tol || across > in.acrossHi+tol {
			return false
		}
	}
	return true
}

func (in *incision) span() (lo, hi float64) {
	lo, hi = in.intervals[0][0], in.intervals[0][1]
	for _, iv := range in.intervals[1:] {
		lo, hi = math.Min(lo, iv[0]), math.Max(hi, iv[1])
	}
	return lo, hi
}

// length длина объединения проекций.
func (in *incision) length() float64 {
	ivs := append([][2]float64(nil), in.intervals...)
	sort.Slice(ivs, func(i, j int) bool { return ivs[i][0] < ivs[j][0] })

	var total float64
	cur := ivs[0]
	for _, iv := range ivs[1:] {
		if iv[0] <= cur[1] {
			cur[1] = math.Max(cur[1], iv[1])
			continue
		}
		total += cur[1] - cur[0]
		cur = iv
	}
	return total + cur[1] - cur[0]
}

// mergeIncisions группирует отрезки в линии шва, начиная с самых длинных.
// Отрезок, целиком лежащий в уже найденной линии, в длину не входит.
func mergeIncisions(segments []entity.LineSegment, angleTol, band, tol float64) []*incision {
	sorted := make([]entity.LineSegment, 0, len(segments))
	for _, s := range segments {
		if s.Length() > 0 {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Length() > sorted[j].Length()
	})

	var lines []*incision
next:
	for _, s := range sorted {
		for _, in := range lines {
			if in.accepts(s, angleTol, band) {
				in.add(s)
				continue next
			}
		}
		for _, in := range lines {
			if in.covers(s, tol) {
				continue next
			}
		}
		lines = append(lines, newIncision(s))
	}
	return lines
}

var _ port.RegionAnalyzer = (*ClosureDetector)(nil)
