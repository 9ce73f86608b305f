// animsolve inspects rigs and keyframe sequences and solves animation
// frames from the command line.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/crunchyroll/internal/assets"
	"github.com/Faultbox/crunchyroll/internal/config"
	"github.com/Faultbox/crunchyroll/internal/logger"
	"github.com/Faultbox/crunchyroll/pkg/formats"
	"github.com/Faultbox/crunchyroll/pkg/rig"
	"github.com/Faultbox/crunchyroll/pkg/solver"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command, args := args[0], args[1:]

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	case "init":
		if err := cmdInit(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	var run func(*config.Config, []string) error
	switch command {
	case "limbs":
		run = cmdLimbs
	case "info":
		run = cmdInfo
	case "validate", "check":
		run = cmdValidate
	case "sample":
		run = cmdSample
	case "solve":
		run = cmdSolve
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(cfg, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			logger.Error("command failed", zap.String("command", command), zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animsolve - skeletal animation blending solver

Usage:
  animsolve [flags] <command> [options]

Commands:
  init [path]                   Write a default config file
  limbs                         List the rig's limbs in solve order
  info <seq.yaml>...            Show keyframe sequence information
  validate <seq.yaml>...        Check that sequences load against the rig
  sample <seq.yaml> <alpha>     Print one sequence's local poses at alpha
  solve [alpha]                 Blend the configured tracks and print world
                                transforms (alpha overrides every track)

Flags:
  -config <path>    Config file (default ./animsolve.yaml)
  -rig <path>       Rig document
  -format <fmt>     Output format: text or yaml
  -debug            Enable debug logging
  -log-file <path>  Also write logs to a rotated file

Examples:
  animsolve -rig r15.yaml limbs
  animsolve -rig r15.yaml sample walk.yaml 0.5
  animsolve -config scene.yaml -format yaml solve 0.25`)
}

func cmdInit(args []string) error {
	cfg := config.Default()
	cfg.Tracks = []config.TrackConfig{config.DefaultTrack()}
	cfg.Tracks[0].Asset = "idle.yaml"

	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	}

	path, err := cfg.Save()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func cmdLimbs(cfg *config.Config, _ []string) error {
	r, err := formats.LoadRigFile(cfg.Rig)
	if err != nil {
		return err
	}

	if cfg.Output.Format == config.FormatYAML {
		out := make([]limbDoc, r.LimbCount())
		for i, l := range r.Limbs() {
			out[i] = limbDoc{
				Index:     i,
				Name:      l.Name,
				DependsOn: l.DependsOn,
				C0:        formats.TransformToDoc(l.C0),
				C1:        formats.TransformToDoc(l.C1),
			}
		}
		return writeYAML(out)
	}

	fmt.Printf("Rig: %s (%d limbs)\n\n", cfg.Rig, r.LimbCount())
	fmt.Printf("%4s  %-24s %-24s %s\n", "#", "Limb", "Parent", "C0 position")
	for i, l := range r.Limbs() {
		parent := l.DependsOn
		if parent == "" {
			parent = "-"
		}
		fmt.Printf("%4d  %-24s %-24s %s\n", i, l.Name, parent, formatVec(l.C0.Position))
	}
	return nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: animsolve info <seq.yaml>...", errUsage)
	}

	r, lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	infos := make([]assetInfo, 0, len(args))
	for _, path := range args {
		asset, err := lib.Load(path)
		if err != nil {
			return err
		}
		infos = append(infos, describeAsset(path, asset, r))
	}

	if cfg.Output.Format == config.FormatYAML {
		return writeYAML(infos)
	}
	for i, info := range infos {
		if i > 0 {
			fmt.Println()
		}
		printAssetInfo(info)
	}
	return nil
}

func cmdValidate(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: animsolve validate <seq.yaml>...", errUsage)
	}

	_, lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	failed := 0
	for _, path := range args {
		if _, err := lib.Load(path); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", path, err)
			continue
		}
		fmt.Printf("ok    %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sequences failed", failed, len(args))
	}
	return nil
}

func cmdSample(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: animsolve sample <seq.yaml> <alpha>", errUsage)
	}
	alpha, err := parseAlpha(args[1])
	if err != nil {
		return err
	}

	r, lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	asset, err := lib.Load(args[0])
	if err != nil {
		return err
	}

	var poses []poseDoc
	for i := 0; i < r.LimbCount(); i++ {
		t, ok := asset.SampleAlpha(i, alpha)
		if !ok {
			continue
		}
		poses = append(poses, poseDoc{Limb: r.Limb(i).Name, Transform: formats.TransformToDoc(t)})
	}

	if cfg.Output.Format == config.FormatYAML {
		return writeYAML(poses)
	}
	fmt.Printf("%s at alpha %.3f (t=%.3fs)\n\n", asset.Name(), alpha, alpha*asset.Length())
	printPoses(poses)
	return nil
}

func cmdSolve(cfg *config.Config, args []string) error {
	if len(cfg.Tracks) == 0 {
		return errors.New("no tracks configured")
	}

	override := false
	var alpha float32
	if len(args) > 0 {
		a, err := parseAlpha(args[0])
		if err != nil {
			return err
		}
		alpha, override = a, true
	}

	root, err := cfg.Root.Transform()
	if err != nil {
		return fmt.Errorf("root transform: %w", err)
	}

	r, lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer lib.Close()

	playing := make([]solver.Playing, len(cfg.Tracks))
	for i, tc := range cfg.Tracks {
		asset, err := lib.Load(tc.Asset)
		if err != nil {
			return err
		}
		track := tc.Track()
		if override {
			track.Alpha = alpha
		}
		playing[i] = solver.Playing{Asset: asset, Track: track}
		logger.Debug("track",
			zap.String("asset", asset.Name()),
			zap.Float32("alpha", track.Alpha),
			zap.Int("priority", track.Priority),
			zap.Float32("weight", track.EffectiveWeight()))
	}

	var s solver.Solver
	s.SolvePlaying(r, playing, root)

	poses := make([]poseDoc, r.LimbCount())
	for i := range poses {
		p := poseDoc{Limb: r.Limb(i).Name, Transform: formats.TransformToDoc(r.WorldAt(i))}
		if prio := r.Local(i).Priority; prio != rig.NoPriority {
			p.Priority = &prio
		}
		poses[i] = p
	}

	if cfg.Output.Format == config.FormatYAML {
		return writeYAML(poses)
	}
	fmt.Printf("Solved %d tracks over %d limbs\n\n", len(playing), r.LimbCount())
	printPoses(poses)
	return nil
}

func openLibrary(cfg *config.Config) (*rig.Rig, *assets.Library, error) {
	r, err := formats.LoadRigFile(cfg.Rig)
	if err != nil {
		return nil, nil, err
	}
	return r, assets.NewLibrary(r), nil
}

func parseAlpha(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid alpha %q: %w", s, err)
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("alpha %v outside [0, 1]", v)
	}
	return float32(v), nil
}
