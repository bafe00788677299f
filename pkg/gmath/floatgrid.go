package gmath

import(
	"fmt"
	"image"
	"image/color"
	"math"
)

// A FloatGrid is a 2D grid of float64 samples, stored row-major. It is
// the working representation for every image inside the registration
// pipeline; integer-valued sources are promoted on the way in.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g1 *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(g1.Dx(), g1.Dy()) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int                 { return len(fg.values) / fg.stride }
func (fg *FloatGrid)Empty() bool             { return fg.stride == 0 || len(fg.values) == 0 }

func (g1 *FloatGrid)Copy() FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values: make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return g2
}

func (fg *FloatGrid)MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0 * min
	for i:=0; i<len(fg.values); i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	return min, max
}

// IsConstant reports whether every sample has the same value - i.e. the
// grid carries no signal to correlate against.
func (fg *FloatGrid)IsConstant() bool {
	if len(fg.values) == 0 {
		return true
	}
	v := fg.values[0]
	for i:=1; i<len(fg.values); i++ {
		if fg.values[i] != v { return false }
	}
	return true
}

func (fg *FloatGrid)Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// NewFloatGridFromImage promotes any image to a single-channel float
// grid. Gray sources keep their sample values; color sources use the
// channel average. 8/16-bit integer samples come out in [0,65535].
func NewFloatGridFromImage(img image.Image) FloatGrid {
	b := img.Bounds()
	fg := NewFloatGrid(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y:=0; y<b.Dy(); y++ {
			for x:=0; x<b.Dx(); x++ {
				fg.Set(x, y, float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) * 257.0)
			}
		}
	case *image.Gray16:
		for y:=0; y<b.Dy(); y++ {
			for x:=0; x<b.Dx(); x++ {
				fg.Set(x, y, float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	default:
		for y:=0; y<b.Dy(); y++ {
			for x:=0; x<b.Dx(); x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				fg.Set(x, y, float64(r+g+bl) / 3.0)
			}
		}
	}
	return fg
}

// ToGray renders the grid as an 8-bit grayscale image, scaling the value
// range onto [0,255].
func (fg *FloatGrid)ToGray() *image.Gray {
	min, max := fg.MinMax()
	span := max - min
	if span <= 0 { span = 1 }

	img := image.NewGray(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for y:=0; y<fg.Dy(); y++ {
		for x:=0; x<fg.Dx(); x++ {
			img.SetGray(x, y, color.Gray{uint8(255.0 * (fg.Get(x,y) - min) / span)})
		}
	}
	return img
}
