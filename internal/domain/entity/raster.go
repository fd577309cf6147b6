package entity

// HSV пиксель в цилиндрическом пространстве: H в градусах [0,360), S и V в [0,1].
type HSV struct {
	H float64
	S float64
	V float64
}

// HSVImage плоскость HSV того же размера, что и исходный кадр.
type HSVImage struct {
	Width  int
	Height int
	Pix    []HSV
}

// At возвращает HSV пикселя.
func (p *HSVImage) At(x, y int) HSV {
	return p.Pix[y*p.Width+x]
}

// LabImage CIE L*a*b* (D65), каналы хранятся раздельно.
type LabImage struct {
	Width  int
	Height int
	L      []float64
	A      []float64
	B      []float64
}
