package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := RotateX(0.3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestRotateXThenY(t *testing.T) {
	// Mesh Y-up to display Z-up: +90 about X, then -90 about Y.
	m := RotateX(math.Pi / 2).Mul(RotateY(-math.Pi / 2))
	got := m.TransformDirection(Vec3{0, 1, 0})

	if absf(got.X) > 1e-5 || absf(got.Y) > 1e-5 || absf(got.Z-1) > 1e-5 {
		t.Errorf("up axis: got %v, want (0, 0, 1)", got)
	}
}

func TestLookAtForward(t *testing.T) {
	view := LookAt(Vec3{}, Vec3{0, 0, -1}, Vec3{0, 1, 0})
	// Looking down -Z from the origin is the identity view.
	id := Identity()
	for i := 0; i < 16; i++ {
		if absf(view[i]-id[i]) > 1e-6 {
			t.Fatalf("LookAt element %d: got %f, want %f", i, view[i], id[i])
		}
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math.Pi/2, 2, 0.1, 100)
	if absf(m[5]-1) > 1e-6 {
		t.Errorf("Perspective m[5] = %f, want 1 for 90 degree fov", m[5])
	}
	if absf(m[0]-0.5) > 1e-6 {
		t.Errorf("Perspective m[0] = %f, want 0.5 for aspect 2", m[0])
	}
	if m[11] != -1 {
		t.Errorf("Perspective m[11] = %f, want -1", m[11])
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
