package config

import (
	"github.com/spf13/viper"
)

// FileName is the project configuration file searched for upward from the
// working directory.
const FileName = "cfw.toml"

// EnvPrefix prefixes environment overrides: CFW_WRAP_FUNCTION_PREFIX=my
const EnvPrefix = "CFW"

// DefaultFilePermissions for files written by cfw
const DefaultFilePermissions = 0o644

// DefaultDirPermissions for directories created by cfw
const DefaultDirPermissions = 0o755

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Naming
	v.SetDefault("wrap.base_namespace", "")
	v.SetDefault("wrap.component_namespace", "Component")
	v.SetDefault("wrap.mock_namespace", "Mock")
	v.SetDefault("wrap.function_prefix", "my")
	v.SetDefault("wrap.interface_prefix", "I")
	v.SetDefault("wrap.component_suffix", "Wrapper")
	v.SetDefault("wrap.generate_mocks", true)
	v.SetDefault("wrap.strip_macros", []string{})

	// Input
	v.SetDefault("input.function_list", "cfunctions.txt")
	v.SetDefault("input.include_path", "")

	// Output layout: src/Base/ICWrappers.h, src/Base/Component/CWrappers.h, src/Base/Mock/CWrappers.h
	v.SetDefault("output.base_include", "src/Base")
	v.SetDefault("output.interface_dir", "")
	v.SetDefault("output.component_dir", "Component")
	v.SetDefault("output.mock_dir", "Mock")

	v.SetDefault("templates.dir", "")
}

// Defaults returns the configuration with every default applied.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}
