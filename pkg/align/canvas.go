package align

import(
	"image"

	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// A Canvas is an image embedded in a square power-of-two grid, centered,
// windowed and mean-corrected, with zeros everywhere else. Insert
// records where the image landed, which the normalizer needs to know
// which reference pixels a shifted target footprint actually covers.
type Canvas struct {
	Grid   gmath.FloatGrid
	Insert image.Rectangle
}

// NextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// newCanvas centers src in a maxN x maxN grid, subtracting the
// window-weighted mean of the source and then applying the separable
// taper. Subtracting the mean first keeps the windowed image integrating
// to (near) zero, so the DC term cannot dominate the correlation.
//
// When the image already fills the canvas, needs no taper and has zero
// mean, the source values are used as-is.
func newCanvas(src *gmath.FloatGrid, maxN int, kind WindowKind) Canvas {
	w := src.Dx()
	h := src.Dy()

	wx := kind.Weights(w)
	wy := kind.Weights(h)

	// Window-weighted mean of the source.
	sumWV := 0.0
	sumW := 0.0
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			wgt := wx[x] * wy[y]
			sumWV += wgt * src.Get(x, y)
			sumW += wgt
		}
	}
	mean := 0.0
	if sumW > 0 { mean = sumWV / sumW }

	if w == maxN && h == maxN && kind == WindowNone && mean == 0 {
		return Canvas{
			Grid:   src.Copy(),
			Insert: image.Rect(0, 0, maxN, maxN),
		}
	}

	offX := (maxN - w) / 2
	offY := (maxN - h) / 2

	grid := gmath.NewFloatGrid(maxN, maxN)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			grid.Set(offX+x, offY+y, (src.Get(x,y)-mean)*wx[x]*wy[y])
		}
	}

	return Canvas{
		Grid:   grid,
		Insert: image.Rect(offX, offY, offX+w, offY+h),
	}
}

// energy is the sum of squared canvas values. The canvas is
// mean-corrected, so this is also its residual about the mean.
func (c *Canvas)energy() float64 {
	e := 0.0
	for y:=0; y<c.Grid.Dy(); y++ {
		for x:=0; x<c.Grid.Dx(); x++ {
			v := c.Grid.Get(x, y)
			e += v * v
		}
	}
	return e
}
