package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagRig     = flag.String("rig", "", "Path to rig document")
	flagLogFile = flag.String("log-file", "", "Write logs to this file")
	flagFormat  = flag.String("format", "", "Output format (text|yaml)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flags, starting with the command.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRig != "" {
		cfg.Rig = *flagRig
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
