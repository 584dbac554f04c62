package imu

import (
	"math"
	"testing"
)

func near(a, b Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestQuatRotate(t *testing.T) {
	tests := []struct {
		name string
		q    Quat
		v    Vec3
		want Vec3
	}{
		{"identity", Identity, Vec3{1, 2, 3}, Vec3{1, 2, 3}},
		{"yaw 90", AxisAngle(Vec3{Z: 1}, math.Pi/2), Vec3{X: 1}, Vec3{Y: 1}},
		{"roll 90", AxisAngle(Vec3{X: 1}, math.Pi/2), Vec3{Y: 1}, Vec3{Z: 1}},
		{"pitch 180", AxisAngle(Vec3{Y: 1}, math.Pi), Vec3{X: 1, Z: 1}, Vec3{X: -1, Z: -1}},
		{"unnormalized axis", AxisAngle(Vec3{Z: 5}, math.Pi/2), Vec3{Y: 1}, Vec3{X: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Rotate(tt.v); !near(got, tt.want) {
				t.Errorf("Rotate(%+v) = %+v, want %+v", tt.v, got, tt.want)
			}
			if back := tt.q.Conj().Rotate(tt.q.Rotate(tt.v)); !near(back, tt.v) {
				t.Errorf("Conj() does not undo Rotate: %+v", back)
			}
		})
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{W: 2}.Normalize()
	if q != Identity {
		t.Errorf("Normalize() = %+v, want identity", q)
	}
	if got := (Quat{}).Normalize(); got != Identity {
		t.Errorf("zero Normalize() = %+v, want identity", got)
	}
	if n := AxisAngle(Vec3{1, 2, 3}, 1).Norm(); math.Abs(n-1) > 1e-12 {
		t.Errorf("AxisAngle norm = %v", n)
	}
}

func TestVec3(t *testing.T) {
	a, b := Vec3{1, 0, 0}, Vec3{0, 1, 0}
	if got := a.Cross(b); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross() = %+v", got)
	}
	if got := a.Add(b).Sub(Vec3{1, 1, 1}).Scale(2); got != (Vec3{0, 0, -2}) {
		t.Errorf("Add/Sub/Scale = %+v", got)
	}
	if got := (Vec3{3, 4, 0}).Norm(); got != 5 {
		t.Errorf("Norm() = %v, want 5", got)
	}
}
