// Package formats decodes the YAML documents that describe rigs and keyframe
// sequences, and turns them into rigs and animation assets.
package formats

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/crunchyroll/pkg/math"
)

// Document errors.
var (
	ErrInvalidRotation = errors.New("invalid rotation")
	ErrDuplicatePose   = errors.New("duplicate pose for limb in keyframe")
	ErrEmptyDocument   = errors.New("document is empty")
)

// TransformDoc is a rigid transform as written in documents. Rotation is an
// [x, y, z, w] quaternion; alternatively Axis and Angle (degrees) may be
// given. With neither, the rotation is the identity.
type TransformDoc struct {
	Position [3]float32 `yaml:"position,flow"`
	Rotation []float32  `yaml:"rotation,omitempty,flow"`
	Axis     []float32  `yaml:"axis,omitempty,flow"`
	Angle    float32    `yaml:"angle,omitempty"`
}

// Transform converts the document form into a normalized transform.
func (d TransformDoc) Transform() (math.Transform, error) {
	rot := math.QuatIdentity()
	switch {
	case len(d.Rotation) == 4:
		rot = math.Quat{X: d.Rotation[0], Y: d.Rotation[1], Z: d.Rotation[2], W: d.Rotation[3]}
		if rot.Dot(rot) < 1e-8 {
			return math.Transform{}, fmt.Errorf("%w: zero quaternion", ErrInvalidRotation)
		}
	case len(d.Rotation) != 0:
		return math.Transform{}, fmt.Errorf("%w: quaternion needs 4 components, got %d", ErrInvalidRotation, len(d.Rotation))
	case len(d.Axis) == 3:
		axis := math.Vec3{X: d.Axis[0], Y: d.Axis[1], Z: d.Axis[2]}.Normalize()
		if axis == (math.Vec3{}) {
			return math.Transform{}, fmt.Errorf("%w: zero rotation axis", ErrInvalidRotation)
		}
		rot = math.QuatFromAxisAngle(axis, d.Angle*gomath.Pi/180)
	case len(d.Axis) != 0:
		return math.Transform{}, fmt.Errorf("%w: axis needs 3 components, got %d", ErrInvalidRotation, len(d.Axis))
	}
	return math.NewTransform(math.Vec3FromArray(d.Position), rot), nil
}

// TransformToDoc converts a transform into its quaternion document form.
func TransformToDoc(t math.Transform) TransformDoc {
	r := t.Rotation.Array()
	return TransformDoc{
		Position: t.Position.Array(),
		Rotation: r[:],
	}
}
