// Package align finds the 2D translation that best registers a target
// image against a reference, by locating the peak of their (optionally
// normalized) cross-correlation in the frequency domain.
//
// The reference-side work - windowing, padding, forward transform and
// the rolling sums used for normalization - happens once, in
// NewRefContext. The resulting context is immutable and may be shared
// across any number of concurrent Align calls; each call owns all of
// its scratch state.
package align

import(
	"errors"
	"fmt"

	"github.com/aherbert/gdsc-align/pkg/gfft"
	"github.com/aherbert/gdsc-align/pkg/gmath"
)

var(
	// ErrInvalidInput marks nil, empty or signal-free images.
	ErrInvalidInput = errors.New("align: invalid input")
	// ErrConfiguration marks unusable options: inverted bounds or
	// unknown enum values.
	ErrConfiguration = errors.New("align: bad configuration")
)

// RefContext is the cached reference side of an alignment: the padded
// windowed canvas, its forward transform and the rolling sums over it.
// Built once, read-only thereafter.
type RefContext struct {
	kind       WindowKind
	normalized bool
	w, h       int // original reference dimensions
	maxN       int

	canvas    Canvas
	transform *gfft.Transform
	sums      *RollingSums
}

func (rc *RefContext)MaxN() int             { return rc.maxN }
func (rc *RefContext)WindowKind() WindowKind { return rc.kind }
func (rc *RefContext)Normalized() bool      { return rc.normalized }

// AlignOptions configure a single Align call. The zero value asks for
// default (half-max) bounds, no sub-pixel refinement, nearest-neighbour
// translation and no output clipping.
type AlignOptions struct {
	Bounds         *Bounds // nil means the half-max-translation default
	SubPixel       SubPixelMethod
	Interpolation  Interpolation
	ClipOutput     bool

	// OnIntermediate, when set, receives copies of the intermediate
	// buffers (windowed target, raw and normalized correlation
	// surfaces) as they are produced. Purely diagnostic.
	OnIntermediate func(name string, fg gmath.FloatGrid)
}

// Result reports the discovered translation. Translating the target by
// (DX, DY) with Translate lines it up with the reference.
type Result struct {
	DX, DY      float64
	Score       float64 // surface value at the integer peak
	InterpScore float64 // bicubic value at the fractional peak, when refined
	Translated  gmath.FloatGrid
}

// NewRefContext does the reference-side work once: window + mean
// correction, centering into a power-of-two canvas, forward transform,
// and the rolling sums the normalizer queries. The canvas side is the
// next power of two covering the reference; targets must fit within it.
func NewRefContext(ref gmath.FloatGrid, kind WindowKind, normalized bool) (*RefContext, error) {
	if ref.Empty() {
		return nil, fmt.Errorf("%w: empty reference image", ErrInvalidInput)
	}
	if ref.IsConstant() {
		return nil, fmt.Errorf("%w: reference image has no signal", ErrInvalidInput)
	}
	if !kind.valid() {
		return nil, fmt.Errorf("%w: window kind %d", ErrConfiguration, int(kind))
	}

	maxN := NextPowerOfTwo(intmax(ref.Dx(), ref.Dy()))
	canvas := newCanvas(&ref, maxN, kind)

	transform, err := gfft.Forward(&canvas.Grid)
	if err != nil {
		return nil, fmt.Errorf("reference transform: %v", err)
	}

	rc := &RefContext{
		kind:       kind,
		normalized: normalized,
		w:          ref.Dx(),
		h:          ref.Dy(),
		maxN:       maxN,
		canvas:     canvas,
		transform:  transform,
	}
	if normalized {
		rc.sums = newRollingSums(&canvas.Grid)
	}
	return rc, nil
}

// Align registers one target against the cached reference and produces
// the translated copy. It is pure with respect to the context and safe
// to call concurrently.
func (rc *RefContext)Align(target gmath.FloatGrid, opt AlignOptions) (Result, error) {
	if target.Empty() {
		return Result{}, fmt.Errorf("%w: empty target image", ErrInvalidInput)
	}
	if !opt.SubPixel.valid() {
		return Result{}, fmt.Errorf("%w: subpixel method %d", ErrConfiguration, int(opt.SubPixel))
	}
	if !opt.Interpolation.valid() {
		return Result{}, fmt.Errorf("%w: interpolation %d", ErrConfiguration, int(opt.Interpolation))
	}
	if target.Dx() > rc.maxN || target.Dy() > rc.maxN {
		return Result{}, fmt.Errorf("%w: target %dx%d exceeds reference canvas %d",
			ErrInvalidInput, target.Dx(), target.Dy(), rc.maxN)
	}

	bounds := DefaultBounds(rc.w, rc.h, target.Dx(), target.Dy())
	if opt.Bounds != nil {
		bounds = *opt.Bounds
	}
	if err := bounds.validate(); err != nil {
		return Result{}, err
	}

	// A flat target carries no signal to correlate; the defined result
	// is a zero offset with a zero score.
	if target.IsConstant() {
		return Result{Translated: target.Copy()}, nil
	}

	tgtCanvas := newCanvas(&target, rc.maxN, rc.kind)
	if opt.OnIntermediate != nil {
		opt.OnIntermediate("windowed-target", tgtCanvas.Grid.Copy())
	}

	tgtTransform, err := gfft.Forward(&tgtCanvas.Grid)
	if err != nil {
		return Result{}, fmt.Errorf("target transform: %v", err)
	}

	surf, err := correlationSurface(rc.transform, tgtTransform)
	if err != nil {
		return Result{}, fmt.Errorf("correlate: %v", err)
	}
	if opt.OnIntermediate != nil {
		opt.OnIntermediate("correlation", surf.Copy())
	}

	var norm *gmath.FloatGrid
	if rc.normalized {
		g := gmath.NewFloatGrid(rc.maxN, rc.maxN)
		norm = &g
	}

	p := searchPeak(rc, &tgtCanvas, &surf, norm, bounds, tgtCanvas.energy())
	if !p.found {
		// Bounds fell entirely outside the surface; nothing usable.
		return Result{Translated: target.Copy()}, nil
	}
	if norm != nil && opt.OnIntermediate != nil {
		opt.OnIntermediate("normalized-correlation", norm.Copy())
	}

	// The surface the refiners read is the one the peak was scored on.
	scored := &surf
	if norm != nil {
		scored = norm
	}

	half := rc.maxN / 2
	dx := float64(p.x - half)
	dy := float64(p.y - half)
	interpScore := 0.0

	switch opt.SubPixel {
	case SubPixelGaussian:
		if fx, fy, ok := refineGaussian(scored, p, bounds); ok {
			dx += fx
			dy += fy
		}
	case SubPixelCubic:
		fx, fy := refineCubic(scored, p)
		dx += fx
		dy += fy
	}

	if opt.SubPixel != SubPixelNone {
		if !bounds.contains(dx, dy) {
			// Refinement drifted outside the search bounds; keep the
			// integer peak.
			dx = float64(p.x - half)
			dy = float64(p.y - half)
		}
		interpScore = scored.BicubicAt(float64(half)+dx, float64(half)+dy)
	}

	return Result{
		DX:          dx,
		DY:          dy,
		Score:       p.score,
		InterpScore: interpScore,
		Translated:  Translate(&target, dx, dy, opt.Interpolation, opt.ClipOutput),
	}, nil
}
