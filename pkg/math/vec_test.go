package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 4, 0}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	got := (Vec3{}).Normalize()
	if got != (Vec3{}) {
		t.Errorf("Normalize of zero vector = %v, want zero", got)
	}
}

func TestVec3NormalizeOrFallback(t *testing.T) {
	fallback := Vec3{0, 0, 1}
	got := (Vec3{}).NormalizeOrFallback(fallback)
	if got != fallback {
		t.Errorf("NormalizeOrFallback(zero) = %v, want %v", got, fallback)
	}

	got = (Vec3{2, 0, 0}).NormalizeOrFallback(fallback)
	want := Vec3{1, 0, 0}
	if got != want {
		t.Errorf("NormalizeOrFallback(non-zero) = %v, want %v", got, want)
	}
}

func TestVec3MulAdd(t *testing.T) {
	v := Vec3{1, 1, 1}
	got := v.MulAdd(Vec3{1, 2, 3}, 2)
	want := Vec3{3, 5, 7}
	if got != want {
		t.Errorf("Vec3.MulAdd() = %v, want %v", got, want)
	}
}

func TestAcosClamped(t *testing.T) {
	if got := Acos(1.5); got != 0 {
		t.Errorf("Acos(1.5) = %v, want 0", got)
	}
	if got := Acos(-1.5); got != Pi {
		t.Errorf("Acos(-1.5) = %v, want pi", got)
	}
	got := Acos(0)
	want := Pi / 2
	if Abs(got-want) > 1e-6 {
		t.Errorf("Acos(0) = %v, want %v", got, want)
	}
}

func TestNewellTermTriangle(t *testing.T) {
	// Newell sum over a CCW unit triangle in the XY plane points +Z.
	pts := []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	var sum Vec3
	prev := pts[len(pts)-1]
	for _, p := range pts {
		sum = sum.Add(NewellTerm(prev, p))
		prev = p
	}
	n := sum.Normalize()
	if !n.Equals(Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("Newell normal = %v, want (0,0,1)", n)
	}
}
