package math

// Transform is a rigid transform: a rotation followed by a translation.
// Rotation is kept unit length by every operation that produces a Transform.
type Transform struct {
	Position Vec3
	Rotation Quat
}

// TransformIdentity returns the transform that maps every point to itself.
func TransformIdentity() Transform {
	return Transform{Rotation: QuatIdentity()}
}

// NewTransform builds a transform from a translation and a rotation.
// The rotation is normalized.
func NewTransform(position Vec3, rotation Quat) Transform {
	return Transform{Position: position, Rotation: rotation.Normalize()}
}

// TransformFromPosition builds a pure translation.
func TransformFromPosition(position Vec3) Transform {
	return Transform{Position: position, Rotation: QuatIdentity()}
}

// Mul composes t with child, returning t * child. If child is expressed
// relative to t, the result is child expressed in t's parent space.
func (t Transform) Mul(child Transform) Transform {
	return Transform{
		Position: t.Position.Add(t.Rotation.Rotate(child.Position)),
		Rotation: t.Rotation.Mul(child.Rotation).Normalize(),
	}
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	return Transform{
		Position: inv.Rotate(t.Position).Neg(),
		Rotation: inv,
	}
}

// Lerp interpolates translation linearly and rotation spherically.
func (t Transform) Lerp(other Transform, alpha float32) Transform {
	return Transform{
		Position: t.Position.Lerp(other.Position, alpha),
		Rotation: t.Rotation.Slerp(other.Rotation, alpha),
	}
}

// Apply transforms a point.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Position.Add(t.Rotation.Rotate(p))
}

// Mat4 returns the column-major matrix form of t.
func (t Transform) Mat4() Mat4 {
	m := t.Rotation.ToMat4()
	m[12] = t.Position.X
	m[13] = t.Position.Y
	m[14] = t.Position.Z
	return m
}
