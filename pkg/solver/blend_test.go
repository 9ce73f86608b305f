package solver

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/crunchyroll/pkg/math"
	"github.com/Faultbox/crunchyroll/pkg/rig"
)

const eps = 0.0001

func transformsMatch(a, b math.Transform) bool {
	if a.Position.Sub(b.Position).Length() > eps {
		return false
	}
	return gomath.Abs(float64(a.Rotation.Dot(b.Rotation))) >= 1-eps
}

func pose(x float32, angle float32) math.Transform {
	return math.NewTransform(math.Vec3{X: x}, math.QuatFromAxisAngle(math.Vec3{Y: 1}, angle))
}

func TestBlendEmpty(t *testing.T) {
	got, priority, ok := Blend(nil)
	if ok {
		t.Error("empty candidates should not blend")
	}
	if got != math.TransformIdentity() || priority != rig.NoPriority {
		t.Errorf("Blend(nil) = %v, %d", got, priority)
	}
}

func TestBlendZeroWeights(t *testing.T) {
	cands := []Candidate{
		{Transform: pose(1, 0.2), Weight: 0, Priority: 5},
		{Transform: pose(2, 0.4), Weight: 0, Priority: 1},
	}
	got, _, ok := Blend(cands)
	if ok || got != math.TransformIdentity() {
		t.Errorf("zero weights should leave the identity, got %v, %v", got, ok)
	}
}

func TestBlendPriorityOverride(t *testing.T) {
	high := pose(3, 0.9)
	cands := []Candidate{
		{Transform: pose(-7, -1.2), Weight: 1, Priority: 1},
		{Transform: high, Weight: 1, Priority: 2},
		{Transform: pose(100, 2), Weight: 50, Priority: 1},
	}

	got, priority, ok := Blend(cands)
	if !ok || priority != 2 {
		t.Fatalf("Blend priority = %d, ok = %v", priority, ok)
	}
	if got != high {
		t.Errorf("higher priority track should win exactly: got %v, want %v", got, high)
	}
}

func TestBlendZeroWeightDoesNotClaimPriority(t *testing.T) {
	low := pose(4, 0.1)
	cands := []Candidate{
		{Transform: pose(9, 1), Weight: 0, Priority: 10},
		{Transform: low, Weight: 0.5, Priority: 1},
	}
	got, priority, ok := Blend(cands)
	if !ok || priority != 1 || got != low {
		t.Errorf("Blend = %v, %d, %v; want the weighted low priority pose", got, priority, ok)
	}
}

func TestBlendWeightedWithinTier(t *testing.T) {
	t1, t2 := pose(2, 0), pose(8, float32(gomath.Pi/2))
	w1, w2 := float32(1), float32(3)

	forward := []Candidate{{Transform: t1, Weight: w1, Priority: 0}, {Transform: t2, Weight: w2, Priority: 0}}
	backward := []Candidate{{Transform: t2, Weight: w2, Priority: 0}, {Transform: t1, Weight: w1, Priority: 0}}

	a, _, ok := Blend(forward)
	if !ok {
		t.Fatal("Blend reported nothing to blend")
	}
	b, _, _ := Blend(backward)

	wantX := (w1*2 + w2*8) / (w1 + w2)
	if gomath.Abs(float64(a.Position.X-wantX)) > eps {
		t.Errorf("translation = %v, want %v", a.Position.X, wantX)
	}

	wantRot := t1.Rotation.Slerp(t2.Rotation, w2/(w1+w2))
	if gomath.Abs(float64(a.Rotation.Dot(wantRot))) < 1-eps {
		t.Errorf("rotation = %v, want %v", a.Rotation, wantRot)
	}
	if l := a.Rotation.Dot(a.Rotation); gomath.Abs(float64(l-1)) > eps {
		t.Errorf("blended rotation not unit length: %v", l)
	}
	if !transformsMatch(a, b) {
		t.Errorf("blend depends on input order: %v vs %v", a, b)
	}
}

func TestBlendEqualWeightsOrderIndependent(t *testing.T) {
	t1, t2 := pose(0, -0.6), pose(4, 1.4)

	a, _, _ := Blend([]Candidate{{Transform: t1, Weight: 1}, {Transform: t2, Weight: 1}})
	b, _, _ := Blend([]Candidate{{Transform: t2, Weight: 1}, {Transform: t1, Weight: 1}})
	if !transformsMatch(a, b) {
		t.Errorf("equal weights should blend symmetrically: %v vs %v", a, b)
	}
	want := pose(2, 0.4)
	if !transformsMatch(a, want) {
		t.Errorf("midpoint blend = %v, want %v", a, want)
	}
}

func TestBlendThreeWay(t *testing.T) {
	// three equal weights about the same axis average to the mean angle
	cands := []Candidate{
		{Transform: pose(0, 0), Weight: 1},
		{Transform: pose(3, 0.3), Weight: 1},
		{Transform: pose(6, 0.6), Weight: 1},
	}
	got, _, _ := Blend(cands)
	if !transformsMatch(got, pose(3, 0.3)) {
		t.Errorf("three way blend = %v, want %v", got, pose(3, 0.3))
	}
}

func TestPartitionWinnersKeepsOrder(t *testing.T) {
	cands := []Candidate{
		{Weight: 1, Priority: 1},
		{Weight: 2, Priority: 3},
		{Weight: 0, Priority: 3},
		{Weight: 4, Priority: 3},
	}
	winners := partitionWinners(cands, 3)
	if len(winners) != 2 || winners[0].Weight != 2 || winners[1].Weight != 4 {
		t.Errorf("partitionWinners = %+v", winners)
	}

	sortByWeight(winners)
	if winners[0].Weight != 4 || winners[1].Weight != 2 {
		t.Errorf("sortByWeight = %+v", winners)
	}
}
