package rig

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/crunchyroll/pkg/math"
)

func offset(x, y, z float32) math.Transform {
	return math.TransformFromPosition(math.Vec3{X: x, Y: y, Z: z})
}

func humanoid() LimbInfo {
	return LimbInfo{
		Name: "Root",
		C0:   math.TransformIdentity(),
		C1:   math.TransformIdentity(),
		Children: []LimbInfo{
			{
				Name: "Torso",
				C0:   offset(0, 1, 0),
				C1:   offset(0, -0.5, 0),
				Children: []LimbInfo{
					{Name: "Head", C0: offset(0, 1, 0), C1: offset(0, -0.5, 0)},
					{
						Name: "RightArm",
						C0:   math.NewTransform(math.Vec3{X: 1, Y: 0.5}, math.QuatFromAxisAngle(math.Vec3{Y: 1}, float32(gomath.Pi/2))),
						C1:   math.NewTransform(math.Vec3{X: -0.5, Y: 0.5}, math.QuatFromAxisAngle(math.Vec3{Y: 1}, float32(gomath.Pi/2))),
					},
				},
			},
			{Name: "LeftLeg", C0: offset(-0.5, -1, 0), C1: offset(0, 1, 0)},
		},
	}
}

func TestBuildOrdersParentsFirst(t *testing.T) {
	r, err := Build(humanoid())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if r.LimbCount() != 5 {
		t.Fatalf("LimbCount() = %d, want 5", r.LimbCount())
	}
	for i, limb := range r.Limbs() {
		if limb.DependsOn == "" {
			if r.Parent(i) != -1 {
				t.Errorf("root %q has parent %d", limb.Name, r.Parent(i))
			}
			continue
		}
		p, ok := r.LimbIndex(limb.DependsOn)
		if !ok {
			t.Fatalf("%q depends on missing %q", limb.Name, limb.DependsOn)
		}
		if p >= i {
			t.Errorf("%q (index %d) depends on %q at index %d", limb.Name, i, limb.DependsOn, p)
		}
		if r.Parent(i) != p {
			t.Errorf("Parent(%d) = %d, want %d", i, r.Parent(i), p)
		}
	}

	if r.Limb(0).Name != "Root" {
		t.Errorf("first limb = %q, want Root", r.Limb(0).Name)
	}
	if r.Limb(2).DependsOn != "Root" {
		t.Errorf("LeftLeg should follow Torso at depth one, got %+v", r.Limb(2))
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		limbs []Limb
		want  error
	}{
		{"empty", nil, ErrEmptyRig},
		{"empty name", []Limb{{Name: ""}}, ErrEmptyLimbName},
		{"duplicate", []Limb{{Name: "A"}, {Name: "A"}}, ErrDuplicateLimb},
		{"unknown parent", []Limb{{Name: "A"}, {Name: "B", DependsOn: "Z"}}, ErrUnknownParent},
		{"parent after child", []Limb{{Name: "A"}, {Name: "B", DependsOn: "C"}, {Name: "C", DependsOn: "A"}}, ErrUnsortedLimbs},
		{"self dependency", []Limb{{Name: "A", DependsOn: "A"}}, ErrUnsortedLimbs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.limbs)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewInitialState(t *testing.T) {
	r, err := New([]Limb{{Name: "A", C0: math.TransformIdentity(), C1: math.TransformIdentity()}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	local := r.Local(0)
	if local.Priority != NoPriority || local.Rotation != math.QuatIdentity() {
		t.Errorf("fresh local = %+v, want identity with NoPriority", *local)
	}
	if w, ok := r.World("A"); !ok || w != math.TransformIdentity() {
		t.Errorf("World(A) = %v, %v; want identity", w, ok)
	}
	if _, ok := r.World("missing"); ok {
		t.Error("World should not report limbs outside the rig")
	}
}

func TestSetLocalAndReset(t *testing.T) {
	r, err := Build(humanoid())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r.SetLocal(1, offset(1, 2, 3), 4)
	if got := r.Local(1); got.Priority != 4 || got.Position != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Local(1) = %+v", *got)
	}

	r.ResetLocals()
	if got := r.Local(1); got.Priority != NoPriority || got.Position != (math.Vec3{}) {
		t.Errorf("after reset Local(1) = %+v", *got)
	}
}
