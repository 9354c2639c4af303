// Package config handles tool configuration loading and management.
package config

import "github.com/Faultbox/meshnorm/pkg/math"

// Config holds all normtool settings.
type Config struct {
	Normals NormalsConfig `yaml:"normals"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// NormalsConfig holds normal computation settings.
type NormalsConfig struct {
	// Split splits corner normals at sharp edges.
	Split bool `yaml:"split"`
	// SplitAngleDeg is the face-angle threshold in degrees; 180 or more
	// disables the angle check.
	SplitAngleDeg float32 `yaml:"split_angle_deg"`
	// Workers caps the parallel worker count; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// SplitAngle returns the threshold in radians, clamped so that disabled
// stays disabled.
func (n NormalsConfig) SplitAngle() float32 {
	if n.SplitAngleDeg >= 180 {
		return math.Pi
	}
	return n.SplitAngleDeg * math.Pi / 180
}

// OutputConfig holds mesh output settings.
type OutputConfig struct {
	// Format selects the default output format: obj, gltf or glb.
	Format string `yaml:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Normals: NormalsConfig{
			Split:         true,
			SplitAngleDeg: 30,
			Workers:       0,
		},
		Output: OutputConfig{
			Format: "obj",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
