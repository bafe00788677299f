package align

import(
	"fmt"
	"math"
)

// WindowKind selects the edge taper applied to an image before it is
// transformed. Tapering suppresses the spectral leakage a hard image
// edge would otherwise smear across the correlation surface.
type WindowKind int

const (
	WindowNone WindowKind = iota
	WindowHanning
	WindowCosine
	WindowTukey // alpha = 0.5
)

const tukeyAlpha = 0.5

func (k WindowKind)String() string {
	switch k {
	case WindowNone:    return "none"
	case WindowHanning: return "hanning"
	case WindowCosine:  return "cosine"
	case WindowTukey:   return "tukey"
	}
	return fmt.Sprintf("window(%d)", int(k))
}

func ParseWindowKind(s string) (WindowKind, error) {
	switch s {
	case "", "none":  return WindowNone, nil
	case "hanning":   return WindowHanning, nil
	case "cosine":    return WindowCosine, nil
	case "tukey":     return WindowTukey, nil
	}
	return WindowNone, fmt.Errorf("%w: window %q", ErrConfiguration, s)
}

func (k WindowKind)valid() bool { return k >= WindowNone && k <= WindowTukey }

// Weights returns the n per-axis taper weights, each in [0,1]. The 2D
// window is separable: w(x,y) = wx[x] * wy[y]. For n <= 1, or for
// WindowNone, the weights are all one.
func (k WindowKind)Weights(n int) []float64 {
	w := make([]float64, n)
	for i:=0; i<n; i++ {
		w[i] = 1.0
	}
	if n <= 1 || k == WindowNone {
		return w
	}

	switch k {
	case WindowHanning:
		for i:=0; i<n; i++ {
			t := float64(i) / float64(n-1)
			w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*t))
		}
	case WindowCosine:
		for i:=0; i<n; i++ {
			t := float64(i) / float64(n-1)
			w[i] = math.Sin(math.Pi * t)
		}
	case WindowTukey:
		// Flat plateau over the middle (1-alpha) fraction, cosine
		// tapered over alpha/2 at each edge.
		edge := tukeyAlpha * float64(n-1) / 2.0
		for i:=0; i<n; i++ {
			t := float64(i)
			switch {
			case t < edge:
				w[i] = 0.5 * (1.0 + math.Cos(math.Pi*(t/edge-1.0)))
			case t > float64(n-1)-edge:
				w[i] = 0.5 * (1.0 + math.Cos(math.Pi*((t-(float64(n-1)-edge))/edge)))
			}
		}
	}
	return w
}
