package formats

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/crunchyroll/internal/logger"
	"github.com/Faultbox/crunchyroll/pkg/animation"
	"github.com/Faultbox/crunchyroll/pkg/easing"
)

// LimbIndexer maps limb names onto a rig's limb indices.
type LimbIndexer interface {
	LimbCount() int
	LimbIndex(name string) (int, bool)
}

// KeyframeSequence is a keyframe sequence document.
type KeyframeSequence struct {
	Name      string        `yaml:"name"`
	Keyframes []KeyframeDoc `yaml:"keyframes"`
}

// KeyframeDoc is one keyframe: a time and the poses recorded at it. Limbs
// without a pose at a keyframe are left out.
type KeyframeDoc struct {
	Time  float32   `yaml:"time"`
	Poses []PoseDoc `yaml:"poses"`
}

// PoseDoc is one limb's pose at a keyframe. Easing is a catalog name such as
// "cubicInOut"; Style and Direction ("Cubic", "InOut") are accepted instead.
type PoseDoc struct {
	Name         string `yaml:"name"`
	TransformDoc `yaml:",inline"`
	Easing       string `yaml:"easing,omitempty"`
	Style        string `yaml:"style,omitempty"`
	Direction    string `yaml:"direction,omitempty"`
}

// easingStyle resolves the pose's easing fields, defaulting to linear.
func (p *PoseDoc) easingStyle() (easing.Style, error) {
	switch {
	case p.Easing != "":
		return easing.Parse(p.Easing)
	case p.Style != "":
		return easing.Compose(p.Style, p.Direction)
	}
	return easing.Linear, nil
}

// ParseKeyframeSequence decodes a keyframe sequence document.
func ParseKeyframeSequence(data []byte) (*KeyframeSequence, error) {
	var seq KeyframeSequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("decoding keyframe sequence: %w", err)
	}
	if len(seq.Keyframes) == 0 {
		return nil, ErrEmptyDocument
	}
	return &seq, nil
}

// LoadKeyframeSequence builds an asset for the rig described by limbs.
//
// Keyframes are ordered by time. Pose slots follow the rig's limb order; a
// limb missing from a run of keyframes gets a KeyframeHole over that run.
// Poses naming limbs the rig does not have are skipped.
func LoadKeyframeSequence(seq *KeyframeSequence, limbs LimbIndexer) (*animation.Asset, error) {
	keyframes := make([]KeyframeDoc, len(seq.Keyframes))
	copy(keyframes, seq.Keyframes)
	sort.SliceStable(keyframes, func(i, j int) bool { return keyframes[i].Time < keyframes[j].Time })

	limbCount := limbs.LimbCount()
	times := make([]float32, len(keyframes))
	poses := make([]animation.Poses, len(keyframes))
	present := make([][]bool, limbCount)
	for i := range present {
		present[i] = make([]bool, len(keyframes))
	}
	skipped := make(map[string]struct{})

	for k := range keyframes {
		kf := &keyframes[k]
		times[k] = kf.Time
		poses[k] = make(animation.Poses, limbCount)

		for p := range kf.Poses {
			pd := &kf.Poses[p]
			limb, ok := limbs.LimbIndex(pd.Name)
			if !ok {
				skipped[pd.Name] = struct{}{}
				continue
			}
			if present[limb][k] {
				return nil, fmt.Errorf("%w: %q at keyframe %d", ErrDuplicatePose, pd.Name, k)
			}

			tr, err := pd.Transform()
			if err != nil {
				return nil, fmt.Errorf("keyframe %d pose %q: %w", k, pd.Name, err)
			}
			style, err := pd.easingStyle()
			if err != nil {
				return nil, fmt.Errorf("keyframe %d pose %q: %w", k, pd.Name, err)
			}

			poses[k][limb] = animation.NewPoseNode(tr.Position, tr.Rotation, style)
			present[limb][k] = true
		}
	}

	if len(skipped) > 0 {
		names := make([]string, 0, len(skipped))
		for name := range skipped {
			names = append(names, name)
		}
		sort.Strings(names)
		logger.Debug("skipping poses for limbs missing from rig",
			zap.String("sequence", seq.Name), zap.Strings("limbs", names))
	}

	asset, err := animation.NewAsset(seq.Name, times, poses, holesFromPresence(present))
	if err != nil {
		return nil, fmt.Errorf("sequence %q: %w", seq.Name, err)
	}
	return asset, nil
}

// holesFromPresence turns per-limb presence flags into runs of missing
// keyframes. Limbs with no gaps get no entry.
func holesFromPresence(present [][]bool) map[int][]animation.KeyframeHole {
	holes := make(map[int][]animation.KeyframeHole)
	for limb, flags := range present {
		start := -1
		for k, ok := range flags {
			switch {
			case !ok && start < 0:
				start = k
			case ok && start >= 0:
				holes[limb] = append(holes[limb], animation.KeyframeHole{Start: start, End: k})
				start = -1
			}
		}
		if start >= 0 {
			holes[limb] = append(holes[limb], animation.KeyframeHole{Start: start, End: len(flags)})
		}
	}
	return holes
}

// LoadKeyframeSequenceFile reads a keyframe sequence document and builds an
// asset for the given rig.
func LoadKeyframeSequenceFile(path string, limbs LimbIndexer) (*animation.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyframe sequence: %w", err)
	}
	seq, err := ParseKeyframeSequence(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if seq.Name == "" {
		seq.Name = path
	}
	asset, err := LoadKeyframeSequence(seq, limbs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("keyframe sequence loaded",
		zap.String("path", path),
		zap.Int("keyframes", asset.KeyframeCount()),
		zap.Float32("length", asset.Length()))
	return asset, nil
}
