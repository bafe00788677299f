package gmath

import(
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// Debug renderings of intermediate buffers. These only run when a caller
// hooks the OnIntermediate callback, never from the numeric pipeline.

// GammaExpand_F64 is the sRGB "linear to display" curve, so debug dumps of
// linear-light buffers look normal to human vision.
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// ToImg saves a simple grayscale of the grid, scaled to its value range
// and gamma expanded, with a title drawn in the corner.
func (fg *FloatGrid)ToImg(title, filename string) error {
	min, max := fg.MinMax()
	span := max - min
	if span <= 0 { span = 1 }

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			gray := GammaExpand_F64((fg.Get(x,y) - min) / span)
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 20, 20)
	return dc.SavePNG(filename)
}

// ToHeatImg saves a heatmap of the grid - blue for the minimum value
// through red for the maximum. Correlation surfaces are much easier to
// read this way than as grayscale.
func (fg *FloatGrid)ToHeatImg(title, filename string) error {
	min, max := fg.MinMax()
	span := max - min
	if span <= 0 { span = 1 }

	img := image.NewRGBA(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			t := (fg.Get(x,y) - min) / span
			img.Set(x, y, colorful.Hsv(240.0*(1.0-t), 1.0, 1.0))
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 20, 20)
	return dc.SavePNG(filename)
}
