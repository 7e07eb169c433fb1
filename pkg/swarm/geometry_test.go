package swarm

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func vecApproxEqual(a, b Vector3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestVector3Saturate(t *testing.T) {
	tests := []struct {
		name string
		v    Vector3
		max  float64
		want Vector3
	}{
		{
			name: "within limit unchanged",
			v:    Vector3{X: 3, Y: 4},
			max:  10,
			want: Vector3{X: 3, Y: 4},
		},
		{
			name: "scaled down preserving direction",
			v:    Vector3{X: 6, Y: 8},
			max:  5,
			want: Vector3{X: 3, Y: 4},
		},
		{
			name: "zero vector unchanged",
			v:    Vector3{},
			max:  5,
			want: Vector3{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Saturate(tt.max)
			if !vecApproxEqual(got, tt.want, epsilon) {
				t.Errorf("Saturate(%v) = %v, want %v", tt.max, got, tt.want)
			}
		})
	}
}

func TestVector3Normalize(t *testing.T) {
	v := Vector3{X: 0, Y: 3, Z: 4}
	n := v.Normalize()
	if math.Abs(n.Norm()-1.0) > epsilon {
		t.Errorf("normalized magnitude = %v, want 1", n.Norm())
	}

	zero := Vector3{}.Normalize()
	if !vecApproxEqual(zero, Vector3{}, epsilon) {
		t.Errorf("normalizing zero vector = %v, want zero", zero)
	}
}

func TestQuaternionRotateIdentity(t *testing.T) {
	v := Vector3{X: 1, Y: 2, Z: 3}
	got := IdentityQuaternion().Rotate(v)
	if !vecApproxEqual(got, v, epsilon) {
		t.Errorf("identity rotation changed vector: %v", got)
	}
}

func TestQuaternionRotateYaw90(t *testing.T) {
	// 90 degree yaw about +Z maps +X to +Y
	q := Quaternion{W: math.Cos(math.Pi / 4), Z: math.Sin(math.Pi / 4)}
	got := q.Rotate(Vector3{X: 1})
	if !vecApproxEqual(got, Vector3{Y: 1}, 1e-9) {
		t.Errorf("yaw rotation = %v, want (0,1,0)", got)
	}
}

func TestQuaternionFromBasisIdentity(t *testing.T) {
	q := quaternionFromBasis(Vector3{X: 1}, Vector3{Y: 1}, Vector3{Z: 1})
	if math.Abs(q.W-1) > epsilon || math.Abs(q.X) > epsilon || math.Abs(q.Y) > epsilon || math.Abs(q.Z) > epsilon {
		t.Errorf("identity basis quaternion = %+v, want identity", q)
	}
}

func TestQuaternionFromBasisUnitNorm(t *testing.T) {
	headings := []Vector3{
		{X: 1},
		{Y: 1},
		{X: 1, Y: 1},
		{X: -2, Y: 3, Z: 0.5},
	}

	for _, h := range headings {
		forward := h.Normalize()
		right := forward.Cross(Vector3{Z: 1}).Normalize()
		up := right.Cross(forward).Normalize()

		q := quaternionFromBasis(forward, right, up)
		norm := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
		if math.Abs(norm-1.0) > 1e-9 {
			t.Errorf("heading %v: quaternion norm = %v, want 1", h, norm)
		}
	}
}
