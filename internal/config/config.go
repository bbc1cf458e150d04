// Package config loads settings.Settings from a YAML file: read the
// file, unmarshal with gopkg.in/yaml.v3, and fail loudly on a
// malformed file rather than silently defaulting it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glu-lang/core/internal/settings"
)

// File is the on-disk shape of a gluc.yaml config file.
type File struct {
	UseStandardLib *bool `yaml:"use_standard_lib"`
	Optimize       *bool `yaml:"optimize"`
	EmitDebugInfo  *bool `yaml:"emit_debug_info"`
	RunIO          *bool `yaml:"run_io"`
}

// Load reads path and overlays any explicitly-set field onto base,
// leaving fields the file omits at base's value. A missing file is not
// an error: callers pass settings.Default() or settings.Library() as
// base and get it back unchanged.
func Load(path string, base settings.Settings) (settings.Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}

	out := base
	if f.UseStandardLib != nil {
		out.UseStandardLib = *f.UseStandardLib
	}
	if f.Optimize != nil {
		out.Optimize = *f.Optimize
	}
	if f.EmitDebugInfo != nil {
		out.EmitDebugInfo = *f.EmitDebugInfo
	}
	if f.RunIO != nil {
		out.RunIO = *f.RunIO
	}
	return out, nil
}
