package gmath

import "math"

// Point samplers over a FloatGrid at fractional coordinates. Samples
// whose support falls outside the grid read as zero, which is the
// background policy for translated images.

func (fg *FloatGrid)at(x, y int) float64 {
	if x < 0 || y < 0 || x >= fg.Dx() || y >= fg.Dy() {
		return 0
	}
	return fg.Get(x, y)
}

func (fg *FloatGrid)NearestAt(x, y float64) float64 {
	return fg.at(int(math.Round(x)), int(math.Round(y)))
}

func (fg *FloatGrid)BilinearAt(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx := x - x0
	fy := y - y0
	ix := int(x0)
	iy := int(y0)

	v00 := fg.at(ix,   iy)
	v10 := fg.at(ix+1, iy)
	v01 := fg.at(ix,   iy+1)
	v11 := fg.at(ix+1, iy+1)

	return v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
}

// catrom is the Catmull-Rom kernel, the same cubic x/image/draw uses for
// its CatmullRom interpolator.
func catrom(t float64) float64 {
	t = math.Abs(t)
	if t < 1 {
		return (1.5*t-2.5)*t*t + 1
	}
	if t < 2 {
		return ((-0.5*t+2.5)*t-4)*t + 2
	}
	return 0
}

// BicubicAt samples the grid at a fractional position using Catmull-Rom
// cubic interpolation over the surrounding 4x4 neighbourhood.
func (fg *FloatGrid)BicubicAt(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx := x - x0
	fy := y - y0
	ix := int(x0)
	iy := int(y0)

	var wx, wy [4]float64
	for i:=0; i<4; i++ {
		wx[i] = catrom(float64(i-1) - fx)
		wy[i] = catrom(float64(i-1) - fy)
	}

	sum := 0.0
	for j:=0; j<4; j++ {
		row := 0.0
		for i:=0; i<4; i++ {
			row += wx[i] * fg.at(ix+i-1, iy+j-1)
		}
		sum += wy[j] * row
	}
	return sum
}
