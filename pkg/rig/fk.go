package rig

import "github.com/Faultbox/crunchyroll/pkg/math"

// ForwardKinematics resolves every limb's world transform from the local
// transform buffer:
//
//	world = parentWorld * C0 * local * C1^-1
//
// Root limbs use root as their parent. Limbs are stored parents first, so a
// single pass in index order sees every parent resolved before its children.
func (r *Rig) ForwardKinematics(root math.Transform) {
	for i := range r.limbs {
		limb := &r.limbs[i]

		parent := root
		if p := r.parents[i]; p >= 0 {
			parent = r.world[p]
		}

		w := parent.Mul(limb.C0).Mul(r.locals[i].Transform()).Mul(r.c1Inverse[i])
		r.world[i] = w
		r.results[limb.Name] = w
	}
}
