package formats

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/crunchyroll/internal/logger"
	"github.com/Faultbox/crunchyroll/pkg/rig"
)

// LimbDoc is one limb of a rig document and its children.
type LimbDoc struct {
	Name     string       `yaml:"name"`
	C0       TransformDoc `yaml:"c0"`
	C1       TransformDoc `yaml:"c1"`
	Children []LimbDoc    `yaml:"children,omitempty"`
}

// ParseRig decodes a rig document into a limb hierarchy.
func ParseRig(data []byte) (rig.LimbInfo, error) {
	var doc LimbDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return rig.LimbInfo{}, fmt.Errorf("decoding rig: %w", err)
	}
	if doc.Name == "" && len(doc.Children) == 0 {
		return rig.LimbInfo{}, ErrEmptyDocument
	}
	return doc.limbInfo()
}

func (d *LimbDoc) limbInfo() (rig.LimbInfo, error) {
	c0, err := d.C0.Transform()
	if err != nil {
		return rig.LimbInfo{}, fmt.Errorf("limb %q c0: %w", d.Name, err)
	}
	c1, err := d.C1.Transform()
	if err != nil {
		return rig.LimbInfo{}, fmt.Errorf("limb %q c1: %w", d.Name, err)
	}

	info := rig.LimbInfo{Name: d.Name, C0: c0, C1: c1}
	if len(d.Children) > 0 {
		info.Children = make([]rig.LimbInfo, len(d.Children))
	}
	for i := range d.Children {
		child, err := d.Children[i].limbInfo()
		if err != nil {
			return rig.LimbInfo{}, err
		}
		info.Children[i] = child
	}
	return info, nil
}

// LoadRig decodes a rig document and builds the rig.
func LoadRig(data []byte) (*rig.Rig, error) {
	info, err := ParseRig(data)
	if err != nil {
		return nil, err
	}
	r, err := rig.Build(info)
	if err != nil {
		return nil, fmt.Errorf("building rig: %w", err)
	}
	return r, nil
}

// LoadRigFile reads and builds a rig from a YAML file.
func LoadRigFile(path string) (*rig.Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rig file: %w", err)
	}
	r, err := LoadRig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("rig loaded", zap.String("path", path), zap.Int("limbs", r.LimbCount()))
	return r, nil
}
