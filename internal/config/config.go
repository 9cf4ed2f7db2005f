// Package config resolves quotaframe settings from flags, environment and an
// optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/quotaframe/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment variable, e.g.
// QUOTAFRAME_STORE_PATH for store.path.
const EnvPrefix = "QUOTAFRAME"

// Keys.
const (
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyStorePath       = "store.path"
	KeySuppressTargets = "codec.suppress_targets"
)

// Config is the resolved configuration.
type Config struct {
	Log   LogConfig   `mapstructure:"log"`
	Store StoreConfig `mapstructure:"store"`
	Codec CodecConfig `mapstructure:"codec"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type CodecConfig struct {
	SuppressTargets bool `mapstructure:"suppress_targets"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info", Format: logging.FormatConsole},
		Store: StoreConfig{Path: "quotaframe.db"},
	}
}

// Load resolves the configuration. file may be empty. flags maps config keys
// to the command-line flags that override them; unset flags do not override.
func Load(file string, flags map[string]*pflag.Flag) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyLogLevel, def.Log.Level)
	v.SetDefault(KeyLogFormat, def.Log.Format)
	v.SetDefault(KeyStorePath, def.Store.Path)
	v.SetDefault(KeySuppressTargets, def.Codec.SuppressTargets)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q",
			logging.FormatJSON, logging.FormatConsole, c.Log.Format))
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store.path must not be empty"))
	}
	return errors.Join(errs...)
}
