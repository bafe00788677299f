package align

import(
	"fmt"
	"image"
	"math"

	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// Bounds restrict the translation search to an inclusive rectangle in
// shift space, [MinX,MaxX] x [MinY,MaxY] about zero shift.
type Bounds struct {
	MinX, MaxX int
	MinY, MaxY int
}

func (b Bounds)validate() error {
	if b.MaxX < b.MinX || b.MaxY < b.MinY {
		return fmt.Errorf("%w: bounds max < min (%+v)", ErrConfiguration, b)
	}
	return nil
}

func (b Bounds)contains(dx, dy float64) bool {
	return dx >= float64(b.MinX) && dx <= float64(b.MaxX) &&
		dy >= float64(b.MinY) && dy <= float64(b.MaxY)
}

// DefaultBounds is the half-max-translation rule: allow shifts up to
// half the larger width/height, which guarantees at least half of the
// smaller image stays overlapped and keeps the search away from the
// nearly disjoint region where the normalization denominator turns
// unstable.
func DefaultBounds(w1, h1, w2, h2 int) Bounds {
	mx := intmax(w1, w2) / 2
	my := intmax(h1, h2) / 2
	return Bounds{MinX: -mx, MaxX: mx, MinY: -my, MaxY: my}
}

func intmax(a, b int) int {
	if a > b { return a }
	return b
}

// SubPixelMethod selects how the integer correlation peak is refined.
type SubPixelMethod int

const (
	SubPixelNone SubPixelMethod = iota
	SubPixelCubic
	SubPixelGaussian
)

func (m SubPixelMethod)String() string {
	switch m {
	case SubPixelNone:     return "none"
	case SubPixelCubic:    return "cubic"
	case SubPixelGaussian: return "gaussian"
	}
	return fmt.Sprintf("subpixel(%d)", int(m))
}

func ParseSubPixelMethod(s string) (SubPixelMethod, error) {
	switch s {
	case "", "none":  return SubPixelNone, nil
	case "cubic":     return SubPixelCubic, nil
	case "gaussian":  return SubPixelGaussian, nil
	}
	return SubPixelNone, fmt.Errorf("%w: subpixel method %q", ErrConfiguration, s)
}

func (m SubPixelMethod)valid() bool { return m >= SubPixelNone && m <= SubPixelGaussian }

// peak is the outcome of the bounded scan over the correlation surface,
// in surface coordinates.
type peak struct {
	x, y  int
	score float64
	found bool
}

// searchPeak scans the (optionally normalized) correlation surface
// row-major inside the bounds and returns the maximum cell. Ties go to
// the first cell in scan order, so the result is deterministic.
//
// When normalizing, each candidate's raw score is divided by the local
// energy of the reference under the shifted target footprint - fetched
// in O(1) from the rolling sums - times the total energy of the windowed
// target. Degenerate cells (no overlap, or zero residual) stay at zero.
// The normalized values land in [-1,1] up to floating point summation
// error; the band is clamped at +/-1.1 rather than 1 to tolerate that
// error near full overlap without masking real scores.
func searchPeak(rc *RefContext, tgt *Canvas, surf, norm *gmath.FloatGrid, b Bounds, tgtEnergy float64) peak {
	n := surf.Dx()
	half := n / 2

	minX := clampInt(half+b.MinX, 0, n-1)
	maxX := clampInt(half+b.MaxX, 0, n-1)
	minY := clampInt(half+b.MinY, 0, n-1)
	maxY := clampInt(half+b.MaxY, 0, n-1)

	tgtRootEnergy := math.Sqrt(tgtEnergy)

	best := peak{score: math.Inf(-1)}
	for yyy:=minY; yyy<=maxY; yyy++ {
		for xxx:=minX; xxx<=maxX; xxx++ {
			score := surf.Get(xxx, yyy)

			if rc.normalized {
				score = normalizedScore(rc, tgt, score, xxx-half, yyy-half, tgtRootEnergy)
				if norm != nil {
					norm.Set(xxx, yyy, score)
				}
			}

			if score > best.score {
				best = peak{x: xxx, y: yyy, score: score, found: true}
			}
		}
	}
	return best
}

// normalizedScore converts a raw correlation value at shift (sx,sy) into
// a normalized one. The pixels contributing to the raw value are the
// reference canvas cells covered by the target footprint translated by
// -(sx,sy); their sum and sum of squares come from the rolling sums.
func normalizedScore(rc *RefContext, tgt *Canvas, raw float64, sx, sy int, tgtRootEnergy float64) float64 {
	// Reference pixels under the shifted target footprint.
	r := rc.canvas.Insert.Intersect(tgt.Insert.Sub(image.Pt(sx, sy)))
	if r.Empty() {
		return 0
	}

	sum, sumSq, n := rc.sums.RectSum(r.Min.X, r.Max.X-1, r.Min.Y, r.Max.Y-1)
	if n < 1 {
		return 0
	}

	residual := sumSq - sum*sum/float64(n)
	if residual <= 0 {
		return 0
	}

	normalization := math.Sqrt(residual) * tgtRootEnergy
	if normalization <= 0 {
		return 0
	}

	score := raw / normalization
	if score > 1.1 { score = 1.1 }
	if score < -1.1 { score = -1.1 }
	return score
}

func clampInt(v, lo, hi int) int {
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}

// refineGaussian fits a 1D Gaussian through the peak and its neighbours
// along each axis: for positive samples f(-1), f(0), f(+1) the fitted
// center is 0.5*(ln f(-1) - ln f(+1)) / (ln f(-1) - 2 ln f(0) + ln f(+1)).
// The fit is rejected - falling back to the integer peak - when any
// sample is non-positive, the denominator vanishes, or the center lands
// half the search extent or more from the integer peak.
func refineGaussian(surf *gmath.FloatGrid, p peak, b Bounds) (float64, float64, bool) {
	fit1D := func(fm, f0, fp float64) (float64, bool) {
		if fm <= 0 || f0 <= 0 || fp <= 0 {
			return 0, false
		}
		lm := math.Log(fm)
		l0 := math.Log(f0)
		lp := math.Log(fp)
		den := lm - 2*l0 + lp
		if den == 0 {
			return 0, false
		}
		return 0.5 * (lm - lp) / den, true
	}

	if p.x <= 0 || p.y <= 0 || p.x >= surf.Dx()-1 || p.y >= surf.Dy()-1 {
		return 0, 0, false
	}

	dx, okx := fit1D(surf.Get(p.x-1, p.y), surf.Get(p.x, p.y), surf.Get(p.x+1, p.y))
	dy, oky := fit1D(surf.Get(p.x, p.y-1), surf.Get(p.x, p.y), surf.Get(p.x, p.y+1))
	if !okx || !oky {
		return 0, 0, false
	}

	halfExtX := float64(b.MaxX-b.MinX) / 2.0
	halfExtY := float64(b.MaxY-b.MinY) / 2.0
	if math.Abs(dx) >= halfExtX || math.Abs(dy) >= halfExtY {
		return 0, 0, false
	}
	return dx, dy, true
}

// refineCubic walks a coarse-to-fine ladder over the bicubic-interpolated
// surface around the integer peak, halving the step each pass. The
// continuous maximum of the local cubic patch is within half a pixel of
// the integer peak, so the walk never needs to range further than that.
func refineCubic(surf *gmath.FloatGrid, p peak) (float64, float64) {
	fx := float64(p.x)
	fy := float64(p.y)
	bestV := surf.BicubicAt(fx, fy)

	for step:=0.5; step>1e-4; step /= 2.0 {
		bx, by := fx, fy
		for j:=-1; j<=1; j++ {
			for i:=-1; i<=1; i++ {
				if i == 0 && j == 0 {
					continue
				}
				x := fx + float64(i)*step
				y := fy + float64(j)*step
				if v := surf.BicubicAt(x, y); v > bestV {
					bestV = v
					bx, by = x, y
				}
			}
		}
		fx, fy = bx, by
	}
	return fx - float64(p.x), fy - float64(p.y)
}
