// Package config resolves the settings of the orocos command line from, in
// decreasing precedence, flags, OROCOS_* environment variables and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, except
// PKG_CONFIG_PATH which keeps its conventional name.
const EnvPrefix = "OROCOS"

// Config holds the resolved settings.
type Config struct {
	// Target is the deployment target filtering package names.
	Target string `mapstructure:"target"`
	// PkgConfigPath is a list of directories separated by the OS list separator.
	PkgConfigPath string `mapstructure:"pkg_config_path"`
	// Naming is the redis URL of the naming directory. Empty means an
	// in-process directory.
	Naming string `mapstructure:"naming"`
	// Models is a directory of task model documents loaded as the "dummy"
	// task library.
	Models         string `mapstructure:"models"`
	LogLevel       string `mapstructure:"log_level"`
	DisableSigchld bool   `mapstructure:"disable_sigchld"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"target":          "target",
	"pkg-config-path": "pkg_config_path",
	"naming":          "naming",
	"models":          "models",
	"log-level":       "log_level",
	"disable-sigchld": "disable_sigchld",
}

// New returns a viper instance reading the environment and bound to the
// flags of fs that exist. fs may be nil.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("target", "gnulinux")
	v.SetDefault("log_level", "info")
	v.SetDefault("pkg_config_path", "")
	v.SetDefault("naming", "")
	v.SetDefault("models", "")
	v.SetDefault("disable_sigchld", false)

	if err := v.BindEnv("pkg_config_path", "PKG_CONFIG_PATH"); err != nil {
		return nil, err
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	return v, nil
}

// Load resolves the configuration. When file is not empty it is read first
// and must exist.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(file), "."))
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	return logging.ParseLevel(c.LogLevel)
}

// PkgConfigDirs splits PkgConfigPath, dropping empty entries.
func (c Config) PkgConfigDirs() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(c.PkgConfigPath) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
