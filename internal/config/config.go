// Package config loads ncattr settings from defaults, a YAML file,
// NCATTR_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the effective configuration.
type Config struct {
	// DefaultDir is where the file picker starts. Missing directories fall
	// back to the working directory.
	DefaultDir string   `mapstructure:"default_dir" yaml:"default_dir"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	LogLevel   string   `mapstructure:"log_level" yaml:"log_level"`
	// LogFile is the log destination; "-" is stderr and empty is the user
	// cache directory.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// Dir returns ~/.ncattr.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ncattr"), nil
}

// DefaultPath returns ~/.ncattr/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("default_dir", filepath.Join(home, "AVAPS", "Data", "Archive"))
	v.SetDefault("extensions", []string{".nc", ".netcdf", ".cdf"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
// An explicit cfgFile must exist; the default file is optional.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NCATTR")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes c as YAML to cfgFile, or to DefaultPath when cfgFile is empty,
// and returns the path written.
func Save(c *Config, cfgFile string) (string, error) {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
