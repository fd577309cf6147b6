//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"

	"healtrack/internal/domain/entity"
	"healtrack/internal/domain/port"
)

// GoCVBackend реализация примитивов зрения поверх OpenCV.
// Порты не возвращают ошибок, поэтому сбой OpenCV поднимается паникой,
// а конвейер анализа превращает её в ProcessingError.
type GoCVBackend struct{}

// NewGoCVBackend создаёт бэкенд на OpenCV.
func NewGoCVBackend() (port.VisionBackend, error) {
	return &GoCVBackend{}, nil
}

// Name возвращает имя реализации.
func (GoCVBackend) Name() string { return "gocv" }

func imageToMat(img *entity.WoundImage) gocv.Mat {
	mat, err := gocv.NewMatFromBytes(img.Height(), img.Width(), gocv.MatTypeCV8UC3, img.Bytes())
	if err != nil {
		panic(fmt.Errorf("gocv: build mat: %w", err))
	}
	return mat
}

func convert(img *entity.WoundImage, code gocv.ColorConversionCode) []byte {
	src := imageToMat(img)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(src, &dst, code)
	return dst.ToBytes()
}

// ToHSV в OpenCV H хранится в полуградусах, S и V в 0..255.
func (GoCVBackend) ToHSV(img *entity.WoundImage) *entity.HSVImage {
	data := convert(img, gocv.ColorRGBToHSV)
	w, h := img.Width(), img.Height()
	out := &entity.HSVImage{Width: w, Height: h, Pix: make([]entity.HSV, w*h)}
	for i := range out.Pix {
		out.Pix[i] = entity.HSV{
			H: float64(data[i*3]) * 2,
			S: float64(data[i*3+1]) / 255,
			V: float64(data[i*3+2]) / 255,
		}
	}
	return out
}

// ToLab для 8-битных кадров OpenCV хранит L*255/100 и a, b со смещением 128.
func (GoCVBackend) ToLab(img *entity.WoundImage) *entity.LabImage {
	data := convert(img, gocv.ColorRGBToLab)
	w, h := img.Width(), img.Height()
	n := w * h
	out := &entity.LabImage{Width: w, Height: h, L: make([]float64, n), A: make([]float64, n), B: make([]float64, n)}
	for i := 0; i < n; i++ {
		out.L[i] = float64(data[i*3]) * 100 / 255
		out.A[i] = float64(data[i*3+1]) - 128
		out.B[i] = float64(data[i*3+2]) - 128
	}
	return out
}

func (GoCVBackend) ToGray(img *entity.WoundImage) *image.Gray {
	data := convert(img, gocv.ColorRGBToGray)
	out := image.NewGray(image.Rect(0, 0, img.Width(), img.Height()))
	copy(out.Pix, data)
	return out
}

func maskToMat(mask *entity.RegionMask) gocv.Mat {
	gray := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.Contains(x, y) {
				gray.Pix[y*gray.Stride+x] = 255
			}
		}
	}
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		panic(fmt.Errorf("gocv: mask to mat: %w", err))
	}
	return mat
}

// OuterContour возвращает самый большой внешний контур маски без аппроксимации.
func (GoCVBackend) OuterContour(mask *entity.RegionMask) []image.Point {
	mat := maskToMat(mask)
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	best, bestArea := -1, -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return nil
	}
	return contours.At(best).ToPoints()
}

// ConvexHull возвращает индексы вершин оболочки по возрастанию.
func (GoCVBackend) ConvexHull(contour []image.Point) []int {
	if len(contour) < 3 {
		idx := make([]int, len(contour))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	pv := gocv.NewPointVectorFromPoints(contour)
	defer pv.Close()

	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(pv, &hull, false, false)

	idx := make([]int, 0, hull.Rows())
	for i := 0; i < hull.Rows(); i++ {
		idx = append(idx, int(hull.GetIntAt(i, 0)))
	}
	sort.Ints(idx)
	return idx
}

// ConvexityDefects глубина в OpenCV хранится в фиксированной точке (×256).
func (GoCVBackend) ConvexityDefects(contour []image.Point, hull []int) []entity.ConvexityDefect {
	if len(hull) < 3 || len(contour) < 4 {
		return nil
	}

	pv := gocv.NewPointVectorFromPoints(contour)
	defer pv.Close()

	hullMat := gocv.NewMatWithSize(len(hull), 1, gocv.MatTypeCV32S)
	defer hullMat.Close()
	for i, v := range hull {
		hullMat.SetIntAt(i, 0, int32(v))
	}

	result := gocv.NewMat()
	defer result.Close()
	gocv.ConvexityDefects(pv, hullMat, &result)

	defects := make([]entity.ConvexityDefect, 0, result.Rows())
	for i := 0; i < result.Rows(); i++ {
		v := result.GetVeciAt(i, 0)
		defects = append(defects, entity.ConvexityDefect{
			Start:    int(v[0]),
			End:      int(v[1]),
			Farthest: int(v[2]),
			Depth:    float64(v[3]) / 256,
		})
	}
	return defects
}

func (GoCVBackend) Canny(gray *image.Gray, p port.EdgeParams) *image.Gray {
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		panic(fmt.Errorf("gocv: gray to mat: %w", err))
	}
	defer src.Close()

	blur := gocv.NewMat()
	defer blur.Close()
	if p.BlurSigma > 0 {
		gocv.GaussianBlur(src, &blur, image.Pt(0, 0), p.BlurSigma, p.BlurSigma, gocv.BorderDefault)
	} else {
		src.CopyTo(&blur)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, float32(p.LowThreshold), float32(p.HighThreshold))

	out := image.NewGray(image.Rect(0, 0, edges.Cols(), edges.Rows()))
	copy(out.Pix, edges.ToBytes())
	return out
}

func (GoCVBackend) Segments(edges *image.Gray, p port.LineParams) []entity.LineSegment {
	src, err := gocv.ImageGrayToMatGray(edges)
	if err != nil {
		panic(fmt.Errorf("gocv: edges to mat: %w", err))
	}
	defer src.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(src, &lines, 1, math.Pi/180, p.Threshold, float32(p.MinLineLength), float32(p.MaxLineGap))

	segments := make([]entity.LineSegment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, entity.LineSegment{
			A: image.Pt(int(v[0]), int(v[1])),
			B: image.Pt(int(v[2]), int(v[3])),
		})
	}
	return segments
}

var _ port.VisionBackend = (*GoCVBackend)(nil)
