package gmath

import(
	"image"
	"image/color"
	"math"
	"testing"
)

func TestFloatGridBasics(t *testing.T) {
	fg := NewFloatGrid(4, 3)
	if fg.Dx() != 4 || fg.Dy() != 3 {
		t.Fatalf("dims = %dx%d, want 4x3", fg.Dx(), fg.Dy())
	}

	fg.Set(2, 1, 7.5)
	if fg.Get(2, 1) != 7.5 {
		t.Errorf("Get(2,1) = %v, want 7.5", fg.Get(2,1))
	}

	cp := fg.Copy()
	cp.Set(2, 1, -1.0)
	if fg.Get(2, 1) != 7.5 {
		t.Errorf("Copy aliases the source")
	}

	min, max := fg.MinMax()
	if min != 0 || max != 7.5 {
		t.Errorf("MinMax = %v, %v, want 0, 7.5", min, max)
	}
}

func TestIsConstant(t *testing.T) {
	fg := NewFloatGrid(5, 5)
	if !fg.IsConstant() {
		t.Errorf("zero grid should be constant")
	}
	for y:=0; y<5; y++ {
		for x:=0; x<5; x++ {
			fg.Set(x, y, 3.3)
		}
	}
	if !fg.IsConstant() {
		t.Errorf("uniform grid should be constant")
	}
	fg.Set(4, 4, 3.4)
	if fg.IsConstant() {
		t.Errorf("grid with a bump should not be constant")
	}

	empty := FloatGrid{}
	if !empty.Empty() || !empty.IsConstant() {
		t.Errorf("empty grid: Empty=%v IsConstant=%v", empty.Empty(), empty.IsConstant())
	}
}

func TestNewFloatGridFromImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(1, 0, color.Gray{200})
	fg := NewFloatGridFromImage(gray)
	if fg.Dx() != 3 || fg.Dy() != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", fg.Dx(), fg.Dy())
	}
	if fg.Get(1, 0) != 200*257.0 {
		t.Errorf("8-bit promotion = %v, want %v", fg.Get(1,0), 200*257.0)
	}

	g16 := image.NewGray16(image.Rect(0, 0, 2, 2))
	g16.SetGray16(0, 1, color.Gray16{54321})
	fg16 := NewFloatGridFromImage(g16)
	if fg16.Get(0, 1) != 54321 {
		t.Errorf("16-bit promotion = %v, want 54321", fg16.Get(0,1))
	}

	rgb := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgb.Set(0, 0, color.RGBA{R: 30, G: 60, B: 90, A: 255})
	fgc := NewFloatGridFromImage(rgb)
	want := float64(30*257+60*257+90*257) / 3.0
	if math.Abs(fgc.Get(0,0)-want) > 1e-9 {
		t.Errorf("color promotion = %v, want %v", fgc.Get(0,0), want)
	}
}

func TestBicubicAtGridPoints(t *testing.T) {
	fg := NewFloatGrid(8, 8)
	for y:=0; y<8; y++ {
		for x:=0; x<8; x++ {
			fg.Set(x, y, float64(x)*1.5+float64(y)*0.25)
		}
	}

	// At exact grid points every sampler reproduces the sample.
	for y:=2; y<6; y++ {
		for x:=2; x<6; x++ {
			want := fg.Get(x, y)
			if got := fg.BicubicAt(float64(x), float64(y)); math.Abs(got-want) > 1e-12 {
				t.Errorf("BicubicAt(%d,%d) = %v, want %v", x, y, got, want)
			}
			if got := fg.BilinearAt(float64(x), float64(y)); math.Abs(got-want) > 1e-12 {
				t.Errorf("BilinearAt(%d,%d) = %v, want %v", x, y, got, want)
			}
			if got := fg.NearestAt(float64(x), float64(y)); got != want {
				t.Errorf("NearestAt(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}

	// Catmull-Rom reproduces linear ramps exactly at fractional points.
	if got := fg.BicubicAt(3.5, 4.25); math.Abs(got-(3.5*1.5+4.25*0.25)) > 1e-9 {
		t.Errorf("BicubicAt(3.5,4.25) = %v on a linear ramp", got)
	}

	// Outside the grid everything reads zero.
	if got := fg.BicubicAt(-10, -10); got != 0 {
		t.Errorf("BicubicAt outside = %v, want 0", got)
	}
}
