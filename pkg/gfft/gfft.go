package gfft

// 2D complex FFTs over square canvases, built from gonum's 1D transforms
// applied along rows and then columns. This stands in for the usual
// FFTW binding so the library builds without a C toolchain.
//
// Only what the correlation theorem needs is exposed: a forward
// transform of a real grid, pointwise conjugate multiplication, and an
// inverse back to a real grid.

import(
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// A Transform is the frequency-domain representation of an n x n real
// grid. The coefficient slice is row-major and immutable once built, so
// a cached reference transform can be shared across goroutines.
type Transform struct {
	n    int
	coef []complex128
}

func (t *Transform)N() int { return t.n }

// Forward computes the 2D DFT of a square grid. The side length must be
// a power of two, which is what the padder always produces.
func Forward(fg *gmath.FloatGrid) (*Transform, error) {
	n := fg.Dx()
	if n != fg.Dy() {
		return nil, fmt.Errorf("gfft: grid is %dx%d, want square", fg.Dx(), fg.Dy())
	}
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("gfft: side %d is not a power of two", n)
	}

	coef := make([]complex128, n*n)
	for y:=0; y<n; y++ {
		for x:=0; x<n; x++ {
			coef[y*n+x] = complex(fg.Get(x, y), 0)
		}
	}

	fft := fourier.NewCmplxFFT(n)
	row := make([]complex128, n)

	// Rows in place.
	for y:=0; y<n; y++ {
		fft.Coefficients(row, coef[y*n:(y+1)*n])
		copy(coef[y*n:(y+1)*n], row)
	}

	// Then columns.
	col := make([]complex128, n)
	for x:=0; x<n; x++ {
		for y:=0; y<n; y++ {
			col[y] = coef[y*n+x]
		}
		fft.Coefficients(row, col)
		for y:=0; y<n; y++ {
			coef[y*n+x] = row[y]
		}
	}

	return &Transform{n: n, coef: coef}, nil
}

// ConjMultiply returns conj(t) * g pointwise. By the correlation
// theorem the inverse of this product is the spatial cross-correlation
// of the two source grids, with t's source as the stationary one.
func (t *Transform)ConjMultiply(g *Transform) (*Transform, error) {
	if t.n != g.n {
		return nil, fmt.Errorf("gfft: transform sizes differ, %d vs %d", t.n, g.n)
	}
	out := make([]complex128, len(t.coef))
	for i:=0; i<len(out); i++ {
		a := t.coef[i]
		out[i] = complex(real(a), -imag(a)) * g.coef[i]
	}
	return &Transform{n: t.n, coef: out}, nil
}

// Inverse transforms back to a real grid, applying the 1/N^2 rescale the
// unnormalized transform pair requires. The imaginary residue of a
// real-input correlation is numerical noise and is dropped.
func (t *Transform)Inverse() gmath.FloatGrid {
	n := t.n
	work := make([]complex128, len(t.coef))
	copy(work, t.coef)

	fft := fourier.NewCmplxFFT(n)
	row := make([]complex128, n)

	for y:=0; y<n; y++ {
		fft.Sequence(row, work[y*n:(y+1)*n])
		copy(work[y*n:(y+1)*n], row)
	}

	col := make([]complex128, n)
	for x:=0; x<n; x++ {
		for y:=0; y<n; y++ {
			col[y] = work[y*n+x]
		}
		fft.Sequence(row, col)
		for y:=0; y<n; y++ {
			work[y*n+x] = row[y]
		}
	}

	scale := 1.0 / float64(n*n)
	fg := gmath.NewFloatGrid(n, n)
	for y:=0; y<n; y++ {
		for x:=0; x<n; x++ {
			fg.Set(x, y, real(work[y*n+x])*scale)
		}
	}
	return fg
}
