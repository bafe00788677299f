package align

import "github.com/aherbert/gdsc-align/pkg/gmath"

// RollingSums are integral images of value and value-squared over the
// padded reference canvas, answering arbitrary rectangle sum queries in
// O(1). s(x,y) holds the sum of all canvas values in the inclusive
// rectangle [0,x] x [0,y]; ss the same for squared values.
type RollingSums struct {
	n     int
	s, ss gmath.FloatGrid
}

// newRollingSums builds both tables in one pass using the 2D prefix-sum
// recurrence: each cell is its value plus the sums to the left and
// above, minus the doubly counted diagonal.
func newRollingSums(fg *gmath.FloatGrid) *RollingSums {
	n := fg.Dx()
	rs := &RollingSums{
		n:  n,
		s:  gmath.NewFloatGrid(n, fg.Dy()),
		ss: gmath.NewFloatGrid(n, fg.Dy()),
	}

	for y:=0; y<fg.Dy(); y++ {
		for x:=0; x<n; x++ {
			v := fg.Get(x, y)
			s := v
			sq := v * v
			if x > 0 {
				s += rs.s.Get(x-1, y)
				sq += rs.ss.Get(x-1, y)
			}
			if y > 0 {
				s += rs.s.Get(x, y-1)
				sq += rs.ss.Get(x, y-1)
			}
			if x > 0 && y > 0 {
				s -= rs.s.Get(x-1, y-1)
				sq -= rs.ss.Get(x-1, y-1)
			}
			rs.s.Set(x, y, s)
			rs.ss.Set(x, y, sq)
		}
	}
	return rs
}

// RectSum returns the sum and sum-of-squares over the inclusive
// rectangle [minU,maxU] x [minV,maxV], plus the number of in-range
// cells. Out-of-range corners clamp to the table edge, so indices below
// zero contribute nothing and indices past the end read the final
// cumulative value.
func (rs *RollingSums)RectSum(minU, maxU, minV, maxV int) (float64, float64, int) {
	h := rs.s.Dy()

	if minU < 0 { minU = 0 }
	if minV < 0 { minV = 0 }
	if maxU > rs.n-1 { maxU = rs.n - 1 }
	if maxV > h-1 { maxV = h - 1 }
	if maxU < minU || maxV < minV {
		return 0, 0, 0
	}

	sum := rs.s.Get(maxU, maxV)
	sq := rs.ss.Get(maxU, maxV)
	if minU > 0 {
		sum -= rs.s.Get(minU-1, maxV)
		sq -= rs.ss.Get(minU-1, maxV)
	}
	if minV > 0 {
		sum -= rs.s.Get(maxU, minV-1)
		sq -= rs.ss.Get(maxU, minV-1)
	}
	if minU > 0 && minV > 0 {
		sum += rs.s.Get(minU-1, minV-1)
		sq += rs.ss.Get(minU-1, minV-1)
	}

	return sum, sq, (maxU - minU + 1) * (maxV - minV + 1)
}
