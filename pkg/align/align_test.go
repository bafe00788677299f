package align

import(
	"errors"
	"math"
	"testing"

	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// blobImage builds a synthetic image with a localized Gaussian feature,
// the standard fixture for shift-recovery tests.
func blobImage(w, h int, cx, cy, sigma float64) gmath.FloatGrid {
	fg := gmath.NewFloatGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			d2 := (float64(x)-cx)*(float64(x)-cx) + (float64(y)-cy)*(float64(y)-cy)
			fg.Set(x, y, 100.0*math.Exp(-d2/(2*sigma*sigma)))
		}
	}
	return fg
}

// shiftContent moves the image content by (sx, sy) with zero fill:
// out(x,y) = src(x-sx, y-sy). Align on the result should report exactly
// (sx, sy).
func shiftContent(src *gmath.FloatGrid, sx, sy int) gmath.FloatGrid {
	out := src.NewFromThis()
	for y:=0; y<out.Dy(); y++ {
		for x:=0; x<out.Dx(); x++ {
			u := x - sx
			v := y - sy
			if u >= 0 && v >= 0 && u < src.Dx() && v < src.Dy() {
				out.Set(x, y, src.Get(u, v))
			}
		}
	}
	return out
}

func TestSelfAlignmentIdentity(t *testing.T) {
	ref := blobImage(128, 128, 64, 64, 4)

	rc, err := NewRefContext(ref, WindowNone, true)
	if err != nil {
		t.Fatalf("NewRefContext: %v", err)
	}

	res, err := rc.Align(ref, AlignOptions{})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if res.DX != 0 || res.DY != 0 {
		t.Errorf("offset = (%v, %v), want (0, 0)", res.DX, res.DY)
	}
	if res.Score < 0.95 || res.Score > 1.1 {
		t.Errorf("score = %v, want ~1", res.Score)
	}
}

func TestKnownIntegerShiftRecovery(t *testing.T) {
	ref := blobImage(128, 128, 60, 70, 3)
	tgt := shiftContent(&ref, 3, -2)

	tests := []struct {
		name   string
		sub    SubPixelMethod
		tol    float64
	}{
		{name: "integer", sub: SubPixelNone, tol: 0},
		{name: "cubic", sub: SubPixelCubic, tol: 0.2},
		{name: "gaussian", sub: SubPixelGaussian, tol: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := NewRefContext(ref, WindowNone, true)
			if err != nil {
				t.Fatalf("NewRefContext: %v", err)
			}
			res, err := rc.Align(tgt, AlignOptions{SubPixel: tt.sub})
			if err != nil {
				t.Fatalf("Align: %v", err)
			}
			if math.Abs(res.DX-3) > tt.tol || math.Abs(res.DY+2) > tt.tol {
				t.Errorf("offset = (%v, %v), want (3, -2) within %v", res.DX, res.DY, tt.tol)
			}
		})
	}
}

func TestTranslatingByReportUndoesShift(t *testing.T) {
	// The sign convention, pinned down: translating the target by the
	// reported offset must reproduce the reference.
	ref := blobImage(64, 64, 30, 28, 3)
	tgt := shiftContent(&ref, 5, 4)

	rc, err := NewRefContext(ref, WindowNone, true)
	if err != nil {
		t.Fatalf("NewRefContext: %v", err)
	}
	res, err := rc.Align(tgt, AlignOptions{})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if res.DX != 5 || res.DY != 4 {
		t.Fatalf("offset = (%v, %v), want (5, 4)", res.DX, res.DY)
	}

	// Compare away from the zero-filled border.
	for y:=10; y<54; y++ {
		for x:=10; x<54; x++ {
			if d := math.Abs(res.Translated.Get(x,y) - ref.Get(x,y)); d > 1e-9 {
				t.Fatalf("translated(%d,%d) differs from reference by %v", x, y, d)
			}
		}
	}
}

func TestWindowedShiftRecovery(t *testing.T) {
	// The tapers must not break recovery for a feature away from the
	// image edge.
	for _, kind := range []WindowKind{WindowHanning, WindowCosine, WindowTukey} {
		t.Run(kind.String(), func(t *testing.T) {
			ref := blobImage(100, 90, 50, 45, 4)
			tgt := shiftContent(&ref, -4, 3)

			rc, err := NewRefContext(ref, kind, true)
			if err != nil {
				t.Fatalf("NewRefContext: %v", err)
			}
			res, err := rc.Align(tgt, AlignOptions{})
			if err != nil {
				t.Fatalf("Align: %v", err)
			}
			if res.DX != -4 || res.DY != 3 {
				t.Errorf("offset = (%v, %v), want (-4, 3)", res.DX, res.DY)
			}
		})
	}
}

func TestBoundsEnforcement(t *testing.T) {
	ref := blobImage(64, 64, 32, 32, 3)
	tgt := shiftContent(&ref, 9, 0) // true peak outside the bounds below

	rc, err := NewRefContext(ref, WindowNone, true)
	if err != nil {
		t.Fatalf("NewRefContext: %v", err)
	}

	b := Bounds{MinX: -2, MaxX: 2, MinY: -2, MaxY: 2}
	for _, sub := range []SubPixelMethod{SubPixelNone, SubPixelCubic, SubPixelGaussian} {
		res, err := rc.Align(tgt, AlignOptions{Bounds: &b, SubPixel: sub})
		if err != nil {
			t.Fatalf("Align(%v): %v", sub, err)
		}
		if !b.contains(res.DX, res.DY) {
			t.Errorf("sub %v: offset (%v, %v) outside bounds %+v", sub, res.DX, res.DY, b)
		}
	}
}

func TestDefaultBoundsFormula(t *testing.T) {
	tests := []struct {
		w1, h1, w2, h2 int
		want           Bounds
	}{
		{128, 128, 128, 128, Bounds{MinX: -64, MaxX: 64, MinY: -64, MaxY: 64}},
		{100, 60, 100, 60, Bounds{MinX: -50, MaxX: 50, MinY: -30, MaxY: 30}},
		{64, 64, 100, 40, Bounds{MinX: -50, MaxX: 50, MinY: -32, MaxY: 32}},
	}
	for _, tt := range tests {
		if got := DefaultBounds(tt.w1, tt.h1, tt.w2, tt.h2); got != tt.want {
			t.Errorf("DefaultBounds(%d,%d,%d,%d) = %+v, want %+v",
				tt.w1, tt.h1, tt.w2, tt.h2, got, tt.want)
		}
	}
}

func TestDegenerateTarget(t *testing.T) {
	ref := blobImage(32, 32, 16, 16, 2)
	rc, err := NewRefContext(ref, WindowHanning, true)
	if err != nil {
		t.Fatalf("NewRefContext: %v", err)
	}

	for _, fill := range []float64{0, 7.5} {
		tgt := gmath.NewFloatGrid(32, 32)
		for y:=0; y<32; y++ {
			for x:=0; x<32; x++ {
				tgt.Set(x, y, fill)
			}
		}

		res, err := rc.Align(tgt, AlignOptions{})
		if err != nil {
			t.Fatalf("Align(flat %v): %v", fill, err)
		}
		if res.DX != 0 || res.DY != 0 || res.Score != 0 {
			t.Errorf("flat %v: got (%v, %v) score %v, want zeros", fill, res.DX, res.DY, res.Score)
		}
		if res.Translated.Dx() != 32 || res.Translated.Dy() != 32 {
			t.Errorf("flat %v: translated dims %dx%d", fill, res.Translated.Dx(), res.Translated.Dy())
		}
	}
}

func TestInputValidation(t *testing.T) {
	ref := blobImage(32, 32, 16, 16, 2)

	if _, err := NewRefContext(gmath.FloatGrid{}, WindowNone, false); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty reference: err = %v, want ErrInvalidInput", err)
	}

	flat := gmath.NewFloatGrid(16, 16)
	if _, err := NewRefContext(flat, WindowNone, false); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("flat reference: err = %v, want ErrInvalidInput", err)
	}

	if _, err := NewRefContext(ref, WindowKind(99), false); !errors.Is(err, ErrConfiguration) {
		t.Errorf("bad window: err = %v, want ErrConfiguration", err)
	}

	rc, err := NewRefContext(ref, WindowNone, true)
	if err != nil {
		t.Fatalf("NewRefContext: %v", err)
	}

	if _, err := rc.Align(gmath.FloatGrid{}, AlignOptions{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty target: err = %v, want ErrInvalidInput", err)
	}

	big := gmath.NewFloatGrid(100, 100)
	big.Set(0, 0, 1)
	if _, err := rc.Align(big, AlignOptions{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("oversize target: err = %v, want ErrInvalidInput", err)
	}

	bad := Bounds{MinX: 5, MaxX: -5, MinY: 0, MaxY: 0}
	if _, err := rc.Align(ref, AlignOptions{Bounds: &bad}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("inverted bounds: err = %v, want ErrConfiguration", err)
	}

	if _, err := rc.Align(ref, AlignOptions{SubPixel: SubPixelMethod(42)}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("bad subpixel: err = %v, want ErrConfiguration", err)
	}
	if _, err := rc.Align(ref, AlignOptions{Interpolation: Interpolation(42)}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("bad interpolation: err = %v, want ErrConfiguration", err)
	}
}

func TestNoSurfaceValueIsNaN(t *testing.T) {
	// Degeneracies must resolve to zeros, never NaN or Inf.
	ref := blobImage(48, 48, 10, 10, 2)
	tgt := shiftContent(&ref, 20, 20) // mostly zero overlap at the edges

	rc, err := NewRefContext(ref, WindowNone, true)
	if err != nil {
		t.Fatalf("NewRefContext: %v", err)
	}
	var surfaces []gmath.FloatGrid
	res, err := rc.Align(tgt, AlignOptions{
		OnIntermediate: func(name string, fg gmath.FloatGrid) { surfaces = append(surfaces, fg) },
	})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		t.Errorf("score = %v", res.Score)
	}
	for _, fg := range surfaces {
		for y:=0; y<fg.Dy(); y++ {
			for x:=0; x<fg.Dx(); x++ {
				if v := fg.Get(x,y); math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("surface cell (%d,%d) = %v", x, y, v)
				}
			}
		}
	}
}
