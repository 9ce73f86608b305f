package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/crunchyroll/pkg/formats"
	"github.com/Faultbox/crunchyroll/pkg/solver"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Rig != "rig.yaml" {
		t.Errorf("expected rig 'rig.yaml', got %s", cfg.Rig)
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("expected format 'text', got %s", cfg.Output.Format)
	}
	if len(cfg.Tracks) != 0 {
		t.Errorf("expected no tracks, got %d", len(cfg.Tracks))
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	root, err := cfg.Root.Transform()
	if err != nil {
		t.Fatalf("default root: %v", err)
	}
	if root.Position.Length() != 0 || root.Rotation.W != 1 {
		t.Errorf("expected identity root, got %v", root)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "animsolve.yaml")

	yamlContent := `
rig: rigs/humanoid.yaml

root:
  position: [0, 3, 0]
  axis: [0, 1, 0]
  angle: 180

tracks:
  - asset: anims/walk.yaml
    alpha: 0.25
    weight: 0.5
  - asset: /abs/wave.yaml
    alpha: 0.5
    priority: 2
    start_fade: 0.1
    stop_fade: 0.9

output:
  format: yaml

logging:
  level: "debug"
  log_file: "animsolve.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if want := filepath.Join(tmpDir, "rigs", "humanoid.yaml"); cfg.Rig != want {
		t.Errorf("expected rig %s, got %s", want, cfg.Rig)
	}

	root, err := cfg.Root.Transform()
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if root.Position.Y != 3 || root.Rotation.Y < 0.999 {
		t.Errorf("unexpected root %v", root)
	}

	if len(cfg.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(cfg.Tracks))
	}

	walk := cfg.Tracks[0]
	if want := filepath.Join(tmpDir, "anims", "walk.yaml"); walk.Asset != want {
		t.Errorf("expected asset %s, got %s", want, walk.Asset)
	}
	want := solver.Track{Alpha: 0.25, Weight: 0.5, StopFadeTime: 1}
	if walk.Track() != want {
		t.Errorf("walk track = %+v, want %+v", walk.Track(), want)
	}

	wave := cfg.Tracks[1]
	if wave.Asset != "/abs/wave.yaml" {
		t.Errorf("absolute asset path changed to %s", wave.Asset)
	}
	want = solver.Track{Alpha: 0.5, Priority: 2, StartFadeTime: 0.1, StopFadeTime: 0.9, Weight: 1}
	if wave.Track() != want {
		t.Errorf("wave track = %+v, want %+v", wave.Track(), want)
	}

	if cfg.Output.Format != FormatYAML {
		t.Errorf("expected format 'yaml', got %s", cfg.Output.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "animsolve.log" {
		t.Errorf("expected log file 'animsolve.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
tracks:
  - asset: walk.yaml
    priority: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/animsolve.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"unknown format", func(c *Config) { c.Output.Format = "json" }, ErrInvalidFormat},
		{"missing asset", func(c *Config) { c.Tracks = []TrackConfig{DefaultTrack()} }, ErrMissingAsset},
		{"negative weight", func(c *Config) {
			c.Tracks = []TrackConfig{{Asset: "a.yaml", Weight: -1, StopFade: 1}}
		}, ErrNegativeWeight},
		{"fade out of range", func(c *Config) {
			c.Tracks = []TrackConfig{{Asset: "a.yaml", Weight: 1, StopFade: 1.5}}
		}, ErrInvalidFade},
		{"bad root", func(c *Config) { c.Root.Rotation = []float32{1, 2} }, formats.ErrInvalidRotation},
		{"zero weight is allowed", func(c *Config) {
			c.Tracks = []TrackConfig{{Asset: "a.yaml", StopFade: 1}}
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Rig = "/rigs/r15.yaml"
	cfg.Root = formats.TransformDoc{Position: [3]float32{1, 2, 3}}
	cfg.Tracks = []TrackConfig{{Asset: "/anims/idle.yaml", Alpha: 0.75, Weight: 0.25, StopFade: 0.5}}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Rig != cfg.Rig {
		t.Errorf("rig = %s, want %s", loaded.Rig, cfg.Rig)
	}
	if loaded.Root.Position != cfg.Root.Position {
		t.Errorf("root position = %v, want %v", loaded.Root.Position, cfg.Root.Position)
	}
	if len(loaded.Tracks) != 1 || loaded.Tracks[0] != cfg.Tracks[0] {
		t.Errorf("tracks = %+v, want %+v", loaded.Tracks, cfg.Tracks)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("rig: r.yaml\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "rig flag",
			setup: func() { *flagRig = "/rigs/custom.yaml" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Rig != "/rigs/custom.yaml" {
					t.Errorf("expected rig /rigs/custom.yaml, got %s", cfg.Rig)
				}
			},
			teardown: func() { *flagRig = "" },
		},
		{
			name:  "log file flag",
			setup: func() { *flagLogFile = "solve.log" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "solve.log" {
					t.Errorf("expected log file solve.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
		{
			name:  "format flag",
			setup: func() { *flagFormat = FormatYAML },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Format != FormatYAML {
					t.Errorf("expected format yaml, got %s", cfg.Output.Format)
				}
			},
			teardown: func() { *flagFormat = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "animsolve.yaml")

	yamlContent := `
rig: humanoid.yaml
output:
  format: yaml
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagFormat = FormatText
	defer func() {
		*flagConfig = ""
		*flagFormat = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// format from flag, rig from file
	if cfg.Output.Format != FormatText {
		t.Errorf("expected format text from flag, got %s", cfg.Output.Format)
	}
	if want := filepath.Join(tmpDir, "humanoid.yaml"); cfg.Rig != want {
		t.Errorf("expected rig %s from file, got %s", want, cfg.Rig)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	*flagConfig = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected error for missing explicit config")
	}

	*flagConfig = ""
	*flagFormat = "xml"
	defer func() { *flagFormat = "" }()

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if _, err := Load(); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
