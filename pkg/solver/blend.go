package solver

import (
	"github.com/Faultbox/crunchyroll/pkg/math"
	"github.com/Faultbox/crunchyroll/pkg/rig"
)

// Candidate is one track's sampled local transform for a limb.
type Candidate struct {
	Transform math.Transform
	Weight    float32
	Priority  int
}

// Blend reduces a limb's candidates to one local transform.
//
// Only candidates with positive weight count. The highest priority among
// them wins outright; lower priorities are discarded. The winners are
// combined by weight: translation is the weighted mean, rotation is a
// running slerp in descending weight order where each step moves towards the
// next rotation by w / (sum so far + w).
//
// ok is false when no candidate has positive weight; the identity transform
// and rig.NoPriority are returned. Blend reorders candidates.
func Blend(candidates []Candidate) (t math.Transform, priority int, ok bool) {
	priority, ok = winningPriority(candidates)
	if !ok {
		return math.TransformIdentity(), rig.NoPriority, false
	}

	winners := partitionWinners(candidates, priority)
	sortByWeight(winners)

	if len(winners) == 1 {
		return winners[0].Transform, priority, true
	}

	var (
		sum      math.Vec3
		total    float32
		rotation math.Quat
	)
	for i, c := range winners {
		sum = sum.Add(c.Transform.Position.Scale(c.Weight))
		total += c.Weight
		if i == 0 {
			rotation = c.Transform.Rotation
			continue
		}
		rotation = rotation.Slerp(c.Transform.Rotation, c.Weight/total)
	}
	if !(total > 0) {
		return math.TransformIdentity(), rig.NoPriority, false
	}

	return math.Transform{
		Position: sum.Scale(1 / total),
		Rotation: rotation.Normalize(),
	}, priority, true
}

// winningPriority returns the highest priority among positively weighted
// candidates.
func winningPriority(candidates []Candidate) (int, bool) {
	best, found := rig.NoPriority, false
	for i := range candidates {
		c := &candidates[i]
		if !(c.Weight > 0) {
			continue
		}
		if !found || c.Priority > best {
			best, found = c.Priority, true
		}
	}
	return best, found
}

// partitionWinners moves positively weighted candidates at priority to the
// front, keeping their relative order, and returns them.
func partitionWinners(candidates []Candidate, priority int) []Candidate {
	n := 0
	for i := range candidates {
		c := candidates[i]
		if c.Priority != priority || !(c.Weight > 0) {
			continue
		}
		copy(candidates[n+1:i+1], candidates[n:i])
		candidates[n] = c
		n++
	}
	return candidates[:n]
}

// sortByWeight orders candidates by descending weight, keeping equal weights
// in input order.
func sortByWeight(candidates []Candidate) {
	for i := 1; i < len(candidates); i++ {
		c := candidates[i]
		j := i
		for j > 0 && candidates[j-1].Weight < c.Weight {
			candidates[j] = candidates[j-1]
			j--
		}
		candidates[j] = c
	}
}
