package swarm

import "math"

// Vector3 represents a 3D vector (meters for positions, m/s for velocities)
type Vector3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum of two vectors
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the component-wise difference of two vectors
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns the vector multiplied by a scalar
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors
func (v Vector3) Dot(other Vector3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product of two vectors
func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns the Euclidean magnitude of the vector
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector in the same direction, or the zero
// vector unchanged
func (v Vector3) Normalize() Vector3 {
	mag := v.Norm()
	if mag == 0 {
		return v
	}
	return v.Scale(1.0 / mag)
}

// DistanceTo returns the Euclidean distance between two points
func (v Vector3) DistanceTo(other Vector3) float64 {
	return v.Sub(other).Norm()
}

// Saturate scales the vector down so its magnitude does not exceed max.
// Direction is preserved; vectors already within the limit are returned
// unchanged.
func (v Vector3) Saturate(max float64) Vector3 {
	mag := v.Norm()
	if mag > max && mag > 1e-3 {
		return v.Scale(max / mag)
	}
	return v
}

// Quaternion represents an orientation as w + xi + yj + zk
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion returns the no-rotation quaternion
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// Rotate applies the rotation to a vector using the expanded form of
// q * v * q⁻¹
func (q Quaternion) Rotate(v Vector3) Vector3 {
	qv := Vector3{X: q.X, Y: q.Y, Z: q.Z}
	t := qv.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(qv.Cross(t))
}

// Normalize returns a unit quaternion; identity when the input is degenerate
func (q Quaternion) Normalize() Quaternion {
	mag := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if mag == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{W: q.W / mag, X: q.X / mag, Y: q.Y / mag, Z: q.Z / mag}
}

// quaternionFromBasis builds the orientation whose rotation matrix has the
// given orthonormal column vectors (forward, right, up).
func quaternionFromBasis(forward, right, up Vector3) Quaternion {
	m00, m01, m02 := forward.X, right.X, up.X
	m10, m11, m12 := forward.Y, right.Y, up.Y
	m20, m21, m22 := forward.Z, right.Z, up.Z

	trace := m00 + m11 + m22
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		q = Quaternion{
			W: 0.25 / s,
			X: (m21 - m12) * s,
			Y: (m02 - m20) * s,
			Z: (m10 - m01) * s,
		}
	case m00 > m11 && m00 > m22:
		s := 2.0 * math.Sqrt(1.0+m00-m11-m22)
		q = Quaternion{
			W: (m21 - m12) / s,
			X: 0.25 * s,
			Y: (m01 + m10) / s,
			Z: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2.0 * math.Sqrt(1.0+m11-m00-m22)
		q = Quaternion{
			W: (m02 - m20) / s,
			X: (m01 + m10) / s,
			Y: 0.25 * s,
			Z: (m12 + m21) / s,
		}
	default:
		s := 2.0 * math.Sqrt(1.0+m22-m00-m11)
		q = Quaternion{
			W: (m10 - m01) / s,
			X: (m02 + m20) / s,
			Y: (m12 + m21) / s,
			Z: 0.25 * s,
		}
	}
	return q.Normalize()
}
