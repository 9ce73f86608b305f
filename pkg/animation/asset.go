// Package animation holds immutable keyframe assets and samples them.
//
// An Asset stores, for every keyframe, one PoseNode per rig limb. A limb with
// no recorded pose over a run of keyframes has a KeyframeHole covering that
// run; pose slots inside a hole are never read. Sampling resolves holes into
// an effective bracket, so callers always receive a dense local transform.
package animation

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/Faultbox/crunchyroll/pkg/easing"
	"github.com/Faultbox/crunchyroll/pkg/math"
)

// Asset construction errors.
var (
	ErrNoKeyframes          = errors.New("animation has no keyframes")
	ErrFirstKeyframeNotZero = errors.New("first keyframe time must be 0")
	ErrUnsortedKeyframes    = errors.New("keyframe times must be strictly ascending")
	ErrPoseCountMismatch    = errors.New("keyframe pose count mismatch")
	ErrInvalidHole          = errors.New("invalid keyframe hole")
	ErrInvalidEasing        = errors.New("invalid easing style")
)

// PoseNode is one limb's local pose at one keyframe, plus the easing curve
// used when interpolating from this keyframe to the limb's next pose.
type PoseNode struct {
	Position math.Vec3
	Rotation math.Quat
	Easing   easing.Style

	ease easing.Func
}

// NewPoseNode builds a pose node with its easing curve resolved.
func NewPoseNode(position math.Vec3, rotation math.Quat, style easing.Style) PoseNode {
	return PoseNode{
		Position: position,
		Rotation: rotation.Normalize(),
		Easing:   style,
		ease:     style.Func(),
	}
}

// Transform returns the node's local transform.
func (p *PoseNode) Transform() math.Transform {
	return math.Transform{Position: p.Position, Rotation: p.Rotation}
}

// Poses holds one PoseNode per rig limb, indexed by limb index.
type Poses []PoseNode

// KeyframeHole is the half-open keyframe index range [Start, End) over which
// a limb has no recorded pose.
type KeyframeHole struct {
	Start int
	End   int
}

// Contains reports whether keyframe index i falls inside the hole.
func (h KeyframeHole) Contains(i int) bool {
	return i >= h.Start && i < h.End
}

// Asset is an immutable, pre-parsed keyframe track. It is safe to sample
// from any number of goroutines at once.
type Asset struct {
	id        uint64
	name      string
	times     []float32
	poses     []Poses
	holes     map[int][]KeyframeHole
	limbCount int
	length    float32
	driven    []bool
}

// NewAsset validates keyframe data and builds an Asset. The slices and map
// are retained; callers must not modify them afterwards.
//
// times must start at 0 and be strictly ascending, poses must hold one
// Poses entry per time, each of the same width, and holes (keyed by limb
// index) must be sorted, non-overlapping and within [0, len(times)].
func NewAsset(name string, times []float32, poses []Poses, holes map[int][]KeyframeHole) (*Asset, error) {
	if len(times) == 0 {
		return nil, ErrNoKeyframes
	}
	if times[0] != 0 {
		return nil, fmt.Errorf("%w: got %v", ErrFirstKeyframeNotZero, times[0])
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w: keyframe %d at %v follows %v", ErrUnsortedKeyframes, i, times[i], times[i-1])
		}
	}
	if len(poses) != len(times) {
		return nil, fmt.Errorf("%w: %d times, %d pose sets", ErrPoseCountMismatch, len(times), len(poses))
	}

	limbCount := len(poses[0])
	for i, p := range poses {
		if len(p) != limbCount {
			return nil, fmt.Errorf("%w: keyframe %d has %d limbs, want %d", ErrPoseCountMismatch, i, len(p), limbCount)
		}
	}

	if holes == nil {
		holes = make(map[int][]KeyframeHole)
	}
	for limb, list := range holes {
		if err := validateHoles(limb, list, limbCount, len(times)); err != nil {
			return nil, err
		}
	}

	for i := range poses {
		for limb := range poses[i] {
			node := &poses[i][limb]
			if !node.Easing.Valid() {
				return nil, fmt.Errorf("%w: keyframe %d limb %d: %v", ErrInvalidEasing, i, limb, node.Easing)
			}
			node.Rotation = node.Rotation.Normalize()
			node.ease = node.Easing.Func()
		}
	}

	a := &Asset{
		id:        nextAssetID.Add(1),
		name:      name,
		times:     times,
		poses:     poses,
		holes:     holes,
		limbCount: limbCount,
		length:    times[len(times)-1],
		driven:    make([]bool, limbCount),
	}
	for limb := range a.driven {
		a.driven[limb] = a.firstPosed(limb) >= 0
	}
	return a, nil
}

// nextAssetID numbers assets in creation order.
var nextAssetID atomic.Uint64

func validateHoles(limb int, list []KeyframeHole, limbCount, keyframes int) error {
	if limb < 0 || limb >= limbCount {
		return fmt.Errorf("%w: limb %d out of range [0, %d)", ErrInvalidHole, limb, limbCount)
	}
	prevEnd := 0
	for i, h := range list {
		if h.Start < 0 || h.End > keyframes || h.Start >= h.End {
			return fmt.Errorf("%w: limb %d hole %d [%d, %d) outside [0, %d]", ErrInvalidHole, limb, i, h.Start, h.End, keyframes)
		}
		if h.Start < prevEnd {
			return fmt.Errorf("%w: limb %d hole %d [%d, %d) overlaps or is out of order", ErrInvalidHole, limb, i, h.Start, h.End)
		}
		prevEnd = h.End
	}
	return nil
}

// ID returns a number unique to this asset within the process. IDs grow in
// creation order; names need not be unique, IDs always are.
func (a *Asset) ID() uint64 { return a.id }

// Name returns the asset name.
func (a *Asset) Name() string { return a.name }

// Length returns the total length in seconds (the last keyframe time).
func (a *Asset) Length() float32 { return a.length }

// KeyframeCount returns the number of keyframes.
func (a *Asset) KeyframeCount() int { return len(a.times) }

// KeyframeTime returns the time of keyframe i.
func (a *Asset) KeyframeTime(i int) float32 { return a.times[i] }

// LimbCount returns the number of limb slots per keyframe.
func (a *Asset) LimbCount() int { return a.limbCount }

// Holes returns the holes recorded for a limb. The slice must not be modified.
func (a *Asset) Holes(limb int) []KeyframeHole { return a.holes[limb] }

// Drives reports whether the asset has at least one recorded pose for limb.
// Limbs outside the asset's width are not driven.
func (a *Asset) Drives(limb int) bool {
	return limb >= 0 && limb < a.limbCount && a.driven[limb]
}

// HasPose reports whether limb has a recorded pose at keyframe i.
func (a *Asset) HasPose(limb, i int) bool {
	_, inHole := a.holeAt(limb, i)
	return !inHole
}

// Pose returns the recorded pose of limb at keyframe i. The result is
// meaningless when HasPose(limb, i) is false.
func (a *Asset) Pose(limb, i int) PoseNode {
	return a.poses[i][limb]
}

// holeAt returns the hole of limb that contains keyframe i, if any.
func (a *Asset) holeAt(limb, i int) (KeyframeHole, bool) {
	list := a.holes[limb]
	if len(list) == 0 {
		return KeyframeHole{}, false
	}
	// first hole ending after i
	n := sort.Search(len(list), func(k int) bool { return list[k].End > i })
	if n < len(list) && list[n].Contains(i) {
		return list[n], true
	}
	return KeyframeHole{}, false
}

// firstPosed returns the first keyframe index with a pose for limb, or -1.
func (a *Asset) firstPosed(limb int) int {
	return a.posedAtOrAfter(limb, 0)
}

// posedAtOrBefore walks backwards from i across holes to the nearest posed
// keyframe, returning -1 when none exists.
func (a *Asset) posedAtOrBefore(limb, i int) int {
	for i >= 0 {
		h, ok := a.holeAt(limb, i)
		if !ok {
			return i
		}
		i = h.Start - 1
	}
	return -1
}

// posedAtOrAfter walks forwards from i across holes to the nearest posed
// keyframe, returning -1 when none exists.
func (a *Asset) posedAtOrAfter(limb, i int) int {
	for i < len(a.times) {
		h, ok := a.holeAt(limb, i)
		if !ok {
			return i
		}
		i = h.End
	}
	return -1
}
