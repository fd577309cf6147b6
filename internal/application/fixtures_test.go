package app

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"healtrack/internal/domain/entity"
	"healtrack/internal/infrastructure/vision"
)

var (
	backgroundGray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	skinTone       = color.NRGBA{R: 224, G: 178, B: 150, A: 255}
	inflamedRed    = color.NRGBA{R: 210, G: 30, B: 40, A: 255}
	sutureDark     = color.NRGBA{R: 45, G: 40, B: 40, A: 255}
)

func canvas(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func fillWhere(img *image.NRGBA, c color.NRGBA, inside func(x, y int) bool) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if inside(x, y) {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func inDisk(cx, cy, r int) func(x, y int) bool {
	return func(x, y int) bool {
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= r*r
	}
}

func inRect(r image.Rectangle) func(x, y int) bool {
	return func(x, y int) bool {
		return image.Pt(x, y).In(r)
	}
}

// starPolygon вершины пятиконечной звезды, начиная с верхнего луча.
func starPolygon(cx, cy, outer, inner float64) [][2]float64 {
	pts := make([][2]float64, 0, 10)
	for k := 0; k < 10; k++ {
		r := outer
		if k%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(k)*math.Pi/5
		pts = append(pts, [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

func inPolygon(poly [][2]float64) func(x, y int) bool {
	return func(x, y int) bool {
		px, py := float64(x), float64(y)
		in := false
		for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
			xi, yi := poly[i][0], poly[i][1]
			xj, yj := poly[j][0], poly[j][1]
			if (yi > py) != (yj > py) && px < (xj-xi)*(py-yi)/(yj-yi)+xi {
				in = !in
			}
		}
		return in
	}
}

func maskWhere(w, h int, inside func(x, y int) bool) *entity.RegionMask {
	bits := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bits[y*w+x] = inside(x, y)
		}
	}
	return entity.NewRegionMask(w, h, bits)
}

func toWound(t *testing.T, img image.Image) *entity.WoundImage {
	t.Helper()
	wi, err := entity.NewWoundImageFrom(img)
	require.NoError(t, err)
	return wi
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// woundScene кожа на сером фоне, пятно покраснения около 10% области
// и тёмная линия шва через всю рану.
func woundScene(withRedness, withSuture bool) *image.NRGBA {
	img := canvas(240, 240, backgroundGray)
	fillWhere(img, skinTone, inDisk(120, 120, 95))
	if withRedness {
		fillWhere(img, inflamedRed, inDisk(120, 75, 30))
	}
	if withSuture {
		fillWhere(img, sutureDark, inRect(image.Rect(35, 149, 206, 152)))
	}
	return img
}

func newTestService() *AnalysisService {
	backend := vision.NewNativeBackend()
	return NewAnalysisService(
		NewIngestor(DefaultIngestConfig()),
		NewQualityGate(DefaultQualityConfig(), backend),
		NewRegionSegmenter(DefaultSegmenterConfig(), backend),
		Detectors{
			Inflammation: NewInflammationDetector(DefaultInflammationConfig(), backend, nil),
			Swelling:     NewSwellingDetector(DefaultSwellingConfig(), backend),
			Closure:      NewClosureDetector(DefaultClosureConfig(), backend, backend, backend),
		},
		NewAggregator(DefaultAggregatorConfig()),
	)
}
