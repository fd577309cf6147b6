package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"healtrack/internal/domain/entity"
)

// Белая точка D65.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

var srgbToLinear = func() [256]float64 {
	var t [256]float64
	for i := range t {
		c := float64(i) / 255
		if c <= 0.04045 {
			t[i] = c / 12.92
		} else {
			t[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
	return t
}()

// ToHSV переводит кадр в HSV: H в градусах, S и V в долях единицы.
func (NativeBackend) ToHSV(img *entity.WoundImage) *entity.HSVImage {
	w, h := img.Width(), img.Height()
	out := &entity.HSVImage{Width: w, Height: h, Pix: make([]entity.HSV, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := img.RGB(x, y)
			out.Pix[y*w+x] = rgbToHSV(r, g, b)
		}
	}
	return out
}

func rgbToHSV(r8, g8, b8 uint8) entity.HSV {
	r, g, b := float64(r8), float64(g8), float64(b8)
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	var hsv entity.HSV
	hsv.V = maxC / 255
	if maxC > 0 {
		hsv.S = delta / maxC
	}
	if delta == 0 {
		return hsv
	}

	switch maxC {
	case r:
		hsv.H = 60 * ((g - b) / delta)
	case g:
		hsv.H = 60 * ((b-r)/delta + 2)
	default:
		hsv.H = 60 * ((r-g)/delta + 4)
	}
	if hsv.H < 0 {
		hsv.H += 360
	}
	if hsv.H >= 360 {
		hsv.H -= 360
	}
	return hsv
}

// ToLab переводит кадр в CIE L*a*b*.
func (NativeBackend) ToLab(img *entity.WoundImage) *entity.LabImage {
	w, h := img.Width(), img.Height()
	n := w * h
	out := &entity.LabImage{
		Width:  w,
		Height: h,
		L:      make([]float64, n),
		A:      make([]float64, n),
		B:      make([]float64, n),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			out.L[i], out.A[i], out.B[i] = rgbToLab(img.RGB(x, y))
		}
	}
	return out
}

func rgbToLab(r8, g8, b8 uint8) (l, a, b float64) {
	r, g, bl := srgbToLinear[r8], srgbToLinear[g8], srgbToLinear[b8]

	x := (0.4124564*r + 0.3575761*g + 0.1804375*bl) / whiteX
	y := (0.2126729*r + 0.7151522*g + 0.0721750*bl) / whiteY
	z := (0.0193339*r + 0.1191920*g + 0.9503041*bl) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	return 116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)
}

func labF(t float64) float64 {
	const eps = 216.0 / 24389.0
	const kappa = 24389.0 / 27.0
	if t > eps {
		return math.Cbrt(t)
	}
	return (kappa*t + 16) / 116
}

// ToGray строит яркостную плоскость через imaging.Grayscale.
func (NativeBackend) ToGray(img *entity.WoundImage) *image.Gray {
	nrgba := imaging.Grayscale(img)
	return nrgbaChannel(nrgba)
}

// nrgbaChannel берёт красный канал серого NRGBA как яркость.
func nrgbaChannel(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}
