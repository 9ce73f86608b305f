// Package solver blends concurrently playing animations into a rig's local
// joint transforms and resolves them into world transforms.
//
// A solve runs in two phases. First every limb is blended from the tracks
// that drive it, writing the rig's local transform buffer. Then forward
// kinematics turns the whole buffer into world transforms. Assets are only
// read and may be shared between rigs and goroutines; a rig's buffers are
// not synchronized, so solves into one rig must be serialized by the caller.
package solver

import (
	"sort"

	"github.com/Faultbox/crunchyroll/pkg/animation"
	"github.com/Faultbox/crunchyroll/pkg/math"
	"github.com/Faultbox/crunchyroll/pkg/rig"
)

// Playing pairs an asset with its playback state.
type Playing struct {
	Asset *animation.Asset
	Track Track
}

// active is a playing track with its per-solve values precomputed.
type active struct {
	asset    *animation.Asset
	time     float32
	weight   float32
	priority int
}

// Solver keeps scratch space between solves so steady-state frames do not
// allocate. The zero value is ready to use. A Solver is not safe for
// concurrent use.
type Solver struct {
	active     []active
	candidates []Candidate
}

// Solve blends tracks into r and resolves world transforms relative to root.
// Results are read back with r.World or r.Results.
func Solve(r *rig.Rig, tracks map[*animation.Asset]Track, root math.Transform) {
	var s Solver
	s.Solve(r, tracks, root)
}

// Solve blends tracks into r and resolves world transforms relative to root.
func (s *Solver) Solve(r *rig.Rig, tracks map[*animation.Asset]Track, root math.Transform) {
	s.active = s.active[:0]
	for asset, track := range tracks {
		s.add(asset, track)
	}
	s.solve(r, root)
}

// SolvePlaying is Solve for callers that keep their tracks in a slice.
func (s *Solver) SolvePlaying(r *rig.Rig, playing []Playing, root math.Transform) {
	s.active = s.active[:0]
	for _, p := range playing {
		s.add(p.Asset, p.Track)
	}
	s.solve(r, root)
}

func (s *Solver) add(asset *animation.Asset, track Track) {
	if asset == nil {
		return
	}
	w := track.EffectiveWeight()
	if !(w > 0) {
		return
	}
	s.active = append(s.active, active{
		asset:    asset,
		time:     track.Alpha * asset.Length(),
		weight:   w,
		priority: track.Priority,
	})
}

func (s *Solver) solve(r *rig.Rig, root math.Transform) {
	// Fixed order so blending does not depend on map iteration.
	sort.SliceStable(s.active, func(i, j int) bool {
		a, b := &s.active[i], &s.active[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		if na, nb := a.asset.Name(), b.asset.Name(); na != nb {
			return na < nb
		}
		return a.asset.ID() < b.asset.ID()
	})

	for limb := 0; limb < r.LimbCount(); limb++ {
		s.candidates = s.candidates[:0]
		for i := range s.active {
			a := &s.active[i]
			t, ok := a.asset.Sample(limb, a.time)
			if !ok {
				continue
			}
			s.candidates = append(s.candidates, Candidate{Transform: t, Weight: a.weight, Priority: a.priority})
		}

		t, priority, _ := Blend(s.candidates)
		r.SetLocal(limb, t, priority)
	}

	r.ForwardKinematics(root)
}
