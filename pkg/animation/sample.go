package animation

import (
	"sort"

	"github.com/Faultbox/crunchyroll/pkg/math"
)

// Sample returns limb's local transform at time t, in seconds. t is clamped
// to [0, Length]. ok is false when the asset records no pose for limb at
// all; the returned transform is then the identity.
//
// When the bracketing keyframes fall inside one of the limb's holes, the
// bracket widens to the nearest posed keyframes on either side, so the pose
// is carried smoothly across the gap. A hole at the start holds the first
// recorded pose; a hole at the end holds the last.
func (a *Asset) Sample(limb int, t float32) (math.Transform, bool) {
	if !a.Drives(limb) {
		return math.TransformIdentity(), false
	}

	lo, hi := a.bracket(t)
	from := a.posedAtOrBefore(limb, lo)
	to := a.posedAtOrAfter(limb, hi)

	switch {
	case from < 0:
		return a.poses[to][limb].Transform(), true
	case to < 0 || from == to:
		return a.poses[from][limb].Transform(), true
	}

	start := &a.poses[from][limb]
	end := &a.poses[to][limb]

	u := float32(1)
	if span := a.times[to] - a.times[from]; span > 0 {
		u = clamp01((t - a.times[from]) / span)
	}
	u = start.ease(u)

	return math.Transform{
		Position: start.Position.Lerp(end.Position, u),
		Rotation: start.Rotation.Slerp(end.Rotation, u),
	}, true
}

// SampleAlpha samples limb at a normalized playback position, where 0 is
// the first keyframe and 1 the last.
func (a *Asset) SampleAlpha(limb int, alpha float32) (math.Transform, bool) {
	return a.Sample(limb, alpha*a.length)
}

// bracket returns keyframe indices lo <= hi with times[lo] <= t <= times[hi].
// lo == hi when t is clamped or lands exactly on a keyframe.
func (a *Asset) bracket(t float32) (int, int) {
	last := len(a.times) - 1
	// !(t > 0) also catches NaN
	if !(t > 0) {
		return 0, 0
	}
	if t >= a.length {
		return last, last
	}

	// last keyframe at or before t
	i := sort.Search(len(a.times), func(k int) bool { return a.times[k] > t }) - 1
	if a.times[i] == t {
		return i, i
	}
	return i, i + 1
}

func clamp01(x float32) float32 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
