// Package config holds toolchain constants and user-tunable settings.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceFileExt is the extension of Ember source files.
const SourceFileExt = ".em"

// BytecodeFileExt is the extension of compiled bytecode files.
const BytecodeFileExt = ".ebc"

// SettingsFileName is looked up in the working directory and next to the
// root source file.
const SettingsFileName = "ember.yaml"

// DefaultMaxCallDepth bounds the VM call-frame stack.
const DefaultMaxCallDepth = 1024

// Settings are the user-tunable knobs. Flags override file values.
type Settings struct {
	// StdlibPath is the fallback directory for import resolution.
	StdlibPath string `yaml:"stdlib_path"`

	// MaxCallDepth bounds the call-frame stack; 0 means the default.
	MaxCallDepth int `yaml:"max_call_depth"`

	// Color controls diagnostic coloring: "auto" (default), "always", "never".
	Color string `yaml:"color"`
}

func Default() Settings {
	return Settings{
		MaxCallDepth: DefaultMaxCallDepth,
		Color:        "auto",
	}
}

// Load reads ember.yaml from the given directories, first hit wins. A
// missing file is not an error; a malformed one is.
func Load(dirs ...string) (Settings, error) {
	s := Default()
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, SettingsFileName)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return s, err
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, err
		}
		break
	}
	if s.MaxCallDepth <= 0 {
		s.MaxCallDepth = DefaultMaxCallDepth
	}
	if s.Color == "" {
		s.Color = "auto"
	}
	return s, nil
}
