package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/crunchyroll/pkg/animation"
	"github.com/Faultbox/crunchyroll/pkg/formats"
	"github.com/Faultbox/crunchyroll/pkg/math"
	"github.com/Faultbox/crunchyroll/pkg/rig"
)

type limbDoc struct {
	Index     int                  `yaml:"index"`
	Name      string               `yaml:"name"`
	DependsOn string               `yaml:"depends_on,omitempty"`
	C0        formats.TransformDoc `yaml:"c0"`
	C1        formats.TransformDoc `yaml:"c1"`
}

type poseDoc struct {
	Limb      string               `yaml:"limb"`
	Priority  *int                 `yaml:"priority,omitempty"`
	Transform formats.TransformDoc `yaml:",inline"`
}

type holeDoc struct {
	Limb  string  `yaml:"limb"`
	From  float32 `yaml:"from"`
	Until float32 `yaml:"until"`
}

type assetInfo struct {
	Path      string    `yaml:"path"`
	Name      string    `yaml:"name"`
	Length    float32   `yaml:"length"`
	Keyframes int       `yaml:"keyframes"`
	Driven    []string  `yaml:"driven"`
	Holes     []holeDoc `yaml:"holes,omitempty"`
}

// describeAsset summarizes which limbs an asset drives and where its holes
// fall. A hole's time range runs between the posed keyframes around it.
func describeAsset(path string, a *animation.Asset, r *rig.Rig) assetInfo {
	info := assetInfo{
		Path:      path,
		Name:      a.Name(),
		Length:    a.Length(),
		Keyframes: a.KeyframeCount(),
	}

	last := a.KeyframeCount() - 1
	for limb := 0; limb < r.LimbCount(); limb++ {
		if !a.Drives(limb) {
			continue
		}
		name := r.Limb(limb).Name
		info.Driven = append(info.Driven, name)

		for _, h := range a.Holes(limb) {
			from := a.KeyframeTime(max(h.Start-1, 0))
			until := a.KeyframeTime(min(h.End, last))
			info.Holes = append(info.Holes, holeDoc{Limb: name, From: from, Until: until})
		}
	}
	return info
}

func printAssetInfo(info assetInfo) {
	fmt.Printf("Sequence: %s\n", info.Path)
	fmt.Printf("Name: %s\n", info.Name)
	fmt.Printf("Length: %.3fs\n", info.Length)
	fmt.Printf("Keyframes: %d\n", info.Keyframes)
	fmt.Printf("Driven limbs (%d): %s\n", len(info.Driven), strings.Join(info.Driven, ", "))

	if len(info.Holes) == 0 {
		return
	}
	fmt.Println("Holes:")
	for _, h := range info.Holes {
		fmt.Printf("  %-24s %.3fs - %.3fs\n", h.Limb, h.From, h.Until)
	}
}

func printPoses(poses []poseDoc) {
	fmt.Printf("%-24s %5s  %-30s %s\n", "Limb", "Prio", "Position", "Rotation (x y z w)")
	for _, p := range poses {
		prio := "-"
		if p.Priority != nil {
			prio = fmt.Sprint(*p.Priority)
		}
		t, _ := p.Transform.Transform()
		fmt.Printf("%-24s %5s  %-30s %s\n", p.Limb, prio, formatVec(t.Position), formatQuat(t.Rotation))
	}
}

func formatVec(v math.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

func formatQuat(q math.Quat) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f)", q.X, q.Y, q.Z, q.W)
}

func writeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
