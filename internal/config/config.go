// Package config loads the optional runtime settings. Settings come,
// in increasing order of priority, from defaults, a config file,
// KAWABG_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deedles.dev/kawabg/internal/bg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configDirName  = "kawabg"
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "KAWABG"
)

const (
	KeyLogLevel  = "log-level"
	KeyFilter    = "filter"
	KeyNamespace = "namespace"
	KeySocket    = "socket"
)

type Config struct {
	LogLevel  string `mapstructure:"log-level"`
	Filter    string `mapstructure:"filter"`
	Namespace string `mapstructure:"namespace"`

	// Socket overrides WAYLAND_DISPLAY if not empty.
	Socket string `mapstructure:"socket"`
}

func Default() Config {
	return Config{
		LogLevel:  logrus.InfoLevel.String(),
		Filter:    bg.FilterBilinear.String(),
		Namespace: "wallpaper",
	}
}

// AddFlags registers the flags for every setting.
func AddFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String(KeyLogLevel, def.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.String(KeyFilter, def.Filter, "image scaling filter (nearest, bilinear, catmull-rom)")
	flags.String(KeyNamespace, def.Namespace, "layer shell namespace of the background surface")
	flags.String(KeySocket, def.Socket, "Wayland display socket to connect to instead of WAYLAND_DISPLAY")
}

// New returns a viper instance with defaults, environment variables
// and flags wired up. flags may be nil.
func New(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyFilter, def.Filter)
	v.SetDefault(KeyNamespace, def.Namespace)
	v.SetDefault(KeySocket, def.Socket)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		err := v.BindPFlags(flags)
		if err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	return v, nil
}

// Load reads the config file, if there is one, and returns the
// merged, validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if dir, ok := configDir(); ok {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(dir)

		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func configDir() (string, bool) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, configDirName), true
}

// Validate checks that every setting can be parsed.
func Validate(config *Config) error {
	if config == nil {
		return errors.New("config is nil")
	}

	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if _, err := bg.ParseFilter(config.Filter); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	if strings.TrimSpace(config.Namespace) == "" {
		return errors.New("namespace cannot be empty")
	}

	return nil
}

// Level returns the parsed log level. It assumes that config has been
// validated.
func (config *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// ScaleFilter returns the parsed filter. It assumes that config has
// been validated.
func (config *Config) ScaleFilter() bg.Filter {
	filter, _ := bg.ParseFilter(config.Filter)
	return filter
}
