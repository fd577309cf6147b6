package entity

import (
	"image"
	"image/color"
)

// WoundImage каноничный RGB-буфер (8 бит на канал), создаётся один раз на запрос.
// Буфер не изменяется после создания и нигде не сохраняется.
type WoundImage struct {
	width  int
	height int
	pix    []uint8 // RGBRGB..., построчно
}

// NewWoundImage копирует пиксели, чтобы вызывающий код не мог изменить буфер.
func NewWoundImage(width, height int, pix []uint8) (*WoundImage, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidImageError{Reason: "empty image"}
	}
	if len(pix) != width*height*3 {
		return nil, &InvalidImageError{Reason: "pixel buffer does not match dimensions"}
	}
	buf := make([]uint8, len(pix))
	copy(buf, pix)
	return &WoundImage{width: width, height: height, pix: buf}, nil
}

// NewWoundImageFrom переводит произвольное image.Image в каноничный RGB.
func NewWoundImageFrom(src image.Image) (*WoundImage, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, &InvalidImageError{Reason: "empty image"}
	}

	pix := make([]uint8, w*h*3)
	if nrgba, ok := src.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
			for x := 0; x < w; x++ {
				i := (y*w + x) * 3
				pix[i] = row[x*4]
				pix[i+1] = row[x*4+1]
				pix[i+2] = row[x*4+2]
			}
		}
	} else {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				i := (y*w + x) * 3
				pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
			}
		}
	}

	return &WoundImage{width: w, height: h, pix: pix}, nil
}

func (img *WoundImage) Width() int  { return img.width }
func (img *WoundImage) Height() int { return img.height }

// Pixels возвращает общее число пикселей кадра.
func (img *WoundImage) Pixels() int { return img.width * img.height }

// RGB возвращает цвет пикселя.
func (img *WoundImage) RGB(x, y int) (r, g, b uint8) {
	i := (y*img.width + x) * 3
	return img.pix[i], img.pix[i+1], img.pix[i+2]
}

// Bytes возвращает копию буфера RGB.
func (img *WoundImage) Bytes() []uint8 {
	out := make([]uint8, len(img.pix))
	copy(out, img.pix)
	return out
}

// ColorModel, Bounds и At позволяют читать WoundImage как image.Image.
func (img *WoundImage) ColorModel() color.Model { return color.RGBAModel }

func (img *WoundImage) Bounds() image.Rectangle { return image.Rect(0, 0, img.width, img.height) }

func (img *WoundImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return color.RGBA{}
	}
	r, g, b := img.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

var _ image.Image = (*WoundImage)(nil)
