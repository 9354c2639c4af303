package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagAngle   = flag.Float64("angle", -1, "Split angle threshold in degrees (180 disables)")
	flagNoSplit = flag.Bool("no-split", false, "Disable sharp edge splitting")
	flagWorkers = flag.Int("workers", 0, "Parallel worker count (0 = one per CPU)")
	flagFormat  = flag.String("format", "", "Output format: obj, gltf or glb")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagAngle >= 0 {
		cfg.Normals.SplitAngleDeg = float32(*flagAngle)
	}
	if *flagNoSplit {
		cfg.Normals.Split = false
	}
	if *flagWorkers > 0 {
		cfg.Normals.Workers = *flagWorkers
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
