package align

import(
	"github.com/aherbert/gdsc-align/pkg/gfft"
	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// correlationSurface computes the raw cross-correlation of the cached
// reference transform against a fresh target transform. The reference
// side carries the conjugate, so after the quadrant swap the peak
// position minus the canvas center reads out directly as the amount the
// target must be translated to line up with the reference.
func correlationSurface(refT, tgtT *gfft.Transform) (gmath.FloatGrid, error) {
	prod, err := refT.ConjMultiply(tgtT)
	if err != nil {
		return gmath.FloatGrid{}, err
	}
	surf := prod.Inverse()
	swapQuadrants(&surf)
	return surf, nil
}

// swapQuadrants exchanges diagonal quadrants in place, moving the
// zero-shift cell from (0,0) to (n/2, n/2).
func swapQuadrants(fg *gmath.FloatGrid) {
	n := fg.Dx()
	h := n / 2
	for y:=0; y<h; y++ {
		for x:=0; x<h; x++ {
			a := fg.Get(x, y)
			fg.Set(x, y, fg.Get(x+h, y+h))
			fg.Set(x+h, y+h, a)

			b := fg.Get(x+h, y)
			fg.Set(x+h, y, fg.Get(x, y+h))
			fg.Set(x, y+h, b)
		}
	}
}
