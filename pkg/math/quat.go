package math

import "math"

// slerpLinearThreshold is the cosine above which Slerp falls back to
// normalized linear interpolation.
const slerpLinearThreshold = 0.9995

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatFromParts builds a quaternion from its scalar and vector parts.
func QuatFromParts(scalar float32, vector Vec3) Quat {
	return Quat{X: vector.X, Y: vector.Y, Z: vector.Z, W: scalar}
}

// Scalar returns the scalar (W) part.
func (q Quat) Scalar() float32 {
	return q.W
}

// Vector returns the vector (X, Y, Z) part.
func (q Quat) Vector() Vec3 {
	return Vec3{q.X, q.Y, q.Z}
}

// Normalize returns a normalized quaternion.
// Degenerate (near zero length) quaternions collapse to identity.
func (q Quat) Normalize() Quat {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Neg returns the component-wise negation. It represents the same rotation.
func (q Quat) Neg() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// Conjugate returns the conjugate, which is the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Slerp performs spherical linear interpolation between two quaternions
// along the shortest arc. t should be in range [0, 1]; the result is unit length.
func (q Quat) Slerp(other Quat, t float32) Quat {
	dot := q.Dot(other)

	// q and -q are the same rotation; pick the closer hemisphere
	if dot < 0 {
		other = other.Neg()
		dot = -dot
	}

	if dot > slerpLinearThreshold {
		return q.Lerp(other, t)
	}

	theta0 := float32(math.Acos(float64(dot)))
	theta := theta0 * t
	sinTheta := float32(math.Sin(float64(theta)))
	sinTheta0 := float32(math.Sin(float64(theta0)))

	s0 := float32(math.Cos(float64(theta))) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}.Normalize()
}

// Lerp performs normalized linear interpolation between two quaternions.
// Use Slerp for rotation interpolation; this is the near-identical fallback.
func (q Quat) Lerp(other Quat, t float32) Quat {
	return Quat{
		X: q.X + t*(other.X-q.X),
		Y: q.Y + t*(other.Y-q.Y),
		Z: q.Z + t*(other.Z-q.Z),
		W: q.W + t*(other.W-q.W),
	}.Normalize()
}

// Mul multiplies two quaternions (combines rotations). The result applies
// other first, then q.
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Rotate rotates v by q. q must be unit length.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2w(u x v) + 2(u x (u x v))
	u := q.Vector()
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Scale(2 * q.W)).Add(uuv.Scale(2))
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Array returns the components as [x, y, z, w].
func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

// QuatFromArray builds a quaternion from an [x, y, z, w] array.
func QuatFromArray(a [4]float32) Quat {
	return Quat{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}
