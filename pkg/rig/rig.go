// Package rig provides the skeleton topology consumed by the solver and the
// per-frame buffers it writes into.
package rig

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/crunchyroll/internal/logger"
	"github.com/Faultbox/crunchyroll/pkg/math"
)

// Rig construction errors.
var (
	ErrEmptyRig      = errors.New("rig has no limbs")
	ErrEmptyLimbName = errors.New("limb name is empty")
	ErrDuplicateLimb = errors.New("duplicate limb name")
	ErrUnknownParent = errors.New("limb depends on unknown limb")
	ErrUnsortedLimbs = errors.New("limb depends on a later limb")
)

// NoPriority marks a limb that no track animated during the last solve.
const NoPriority = gomath.MinInt

// Limb is one joint of the rig. C0 places the joint in the parent limb's
// space, C1 places it in this limb's space.
type Limb struct {
	Name      string
	C0        math.Transform
	C1        math.Transform
	DependsOn string // empty for a root limb
}

// LimbInfo describes a limb and its children as a tree.
type LimbInfo struct {
	Name     string
	C0       math.Transform
	C1       math.Transform
	Children []LimbInfo
}

// LimbTransform is a limb's blended local joint transform for the current
// solve, and the priority of the tracks that produced it.
type LimbTransform struct {
	Position math.Vec3
	Rotation math.Quat
	Priority int
}

// Transform returns the rigid transform part.
func (lt *LimbTransform) Transform() math.Transform {
	return math.Transform{Position: lt.Position, Rotation: lt.Rotation}
}

// Rig is an immutable limb topology plus reusable per-frame buffers.
//
// The buffers are overwritten by every solve. A Rig must not be solved into
// from two goroutines at once.
type Rig struct {
	limbNameToIndex map[string]int
	limbs           []Limb
	parents         []int
	c1Inverse       []math.Transform

	locals  []LimbTransform
	world   []math.Transform
	results map[string]math.Transform
}

// New builds a rig from limbs already in topological order: every limb's
// DependsOn must name a limb at a lower index.
func New(limbs []Limb) (*Rig, error) {
	if len(limbs) == 0 {
		return nil, ErrEmptyRig
	}

	r := &Rig{
		limbNameToIndex: make(map[string]int, len(limbs)),
		limbs:           limbs,
		parents:         make([]int, len(limbs)),
		c1Inverse:       make([]math.Transform, len(limbs)),
		locals:          make([]LimbTransform, len(limbs)),
		world:           make([]math.Transform, len(limbs)),
		results:         make(map[string]math.Transform, len(limbs)),
	}

	for i, limb := range limbs {
		if limb.Name == "" {
			return nil, fmt.Errorf("%w: limb %d", ErrEmptyLimbName, i)
		}
		if _, dup := r.limbNameToIndex[limb.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLimb, limb.Name)
		}

		r.parents[i] = -1
		if limb.DependsOn != "" {
			parent, ok := r.limbNameToIndex[limb.DependsOn]
			if !ok {
				if limbIndex(limbs, limb.DependsOn) >= 0 {
					return nil, fmt.Errorf("%w: %q depends on %q", ErrUnsortedLimbs, limb.Name, limb.DependsOn)
				}
				return nil, fmt.Errorf("%w: %q depends on %q", ErrUnknownParent, limb.Name, limb.DependsOn)
			}
			r.parents[i] = parent
		}

		r.limbNameToIndex[limb.Name] = i
		r.c1Inverse[i] = limb.C1.Inverse()
	}

	r.ResetLocals()
	for i := range r.world {
		r.world[i] = math.TransformIdentity()
		r.results[limbs[i].Name] = r.world[i]
	}

	logger.Debug("rig created", zap.Int("limbs", len(limbs)))
	return r, nil
}

// Build flattens a limb hierarchy into topological order, parents before
// children and siblings in declaration order, and builds the rig.
func Build(root LimbInfo) (*Rig, error) {
	type queued struct {
		info   *LimbInfo
		parent string
	}

	var limbs []Limb
	queue := []queued{{info: &root}}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]

		limbs = append(limbs, Limb{
			Name:      q.info.Name,
			C0:        q.info.C0,
			C1:        q.info.C1,
			DependsOn: q.parent,
		})
		for i := range q.info.Children {
			queue = append(queue, queued{info: &q.info.Children[i], parent: q.info.Name})
		}
	}

	return New(limbs)
}

func limbIndex(limbs []Limb, name string) int {
	for i := range limbs {
		if limbs[i].Name == name {
			return i
		}
	}
	return -1
}

// LimbCount returns the number of limbs.
func (r *Rig) LimbCount() int { return len(r.limbs) }

// Limb returns limb i.
func (r *Rig) Limb(i int) Limb { return r.limbs[i] }

// Limbs returns the limbs in topological order. The slice must not be modified.
func (r *Rig) Limbs() []Limb { return r.limbs }

// LimbIndex returns the index of the named limb.
func (r *Rig) LimbIndex(name string) (int, bool) {
	i, ok := r.limbNameToIndex[name]
	return i, ok
}

// Parent returns the index of limb i's parent, or -1 for a root limb.
func (r *Rig) Parent(i int) int { return r.parents[i] }

// Local returns limb i's slot in the local transform buffer.
func (r *Rig) Local(i int) *LimbTransform { return &r.locals[i] }

// SetLocal writes limb i's blended local transform and winning priority.
func (r *Rig) SetLocal(i int, t math.Transform, priority int) {
	r.locals[i] = LimbTransform{Position: t.Position, Rotation: t.Rotation, Priority: priority}
}

// ResetLocals sets every local transform to identity with NoPriority.
func (r *Rig) ResetLocals() {
	for i := range r.locals {
		r.locals[i] = LimbTransform{Rotation: math.QuatIdentity(), Priority: NoPriority}
	}
}

// World returns the world transform of the named limb from the last solve.
func (r *Rig) World(name string) (math.Transform, bool) {
	t, ok := r.results[name]
	return t, ok
}

// WorldAt returns the world transform of limb i from the last solve.
func (r *Rig) WorldAt(i int) math.Transform { return r.world[i] }

// Results returns the limb name to world transform map of the last solve.
// It is reused by the next solve.
func (r *Rig) Results() map[string]math.Transform { return r.results }
