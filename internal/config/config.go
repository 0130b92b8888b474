package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KAEXTRACT_PATH.
const EnvPrefix = "KAEXTRACT"

type Config struct {
	// Path is the directory holding the captured snapshots.
	Path string `mapstructure:"path"`
	// Prefix is the file name prefix shared by one capture.
	Prefix string `mapstructure:"prefix"`
	// SQLitePath, when set, receives a copy of the final table.
	SQLitePath string    `mapstructure:"sqlite"`
	Log        LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Flag names shared by the commands. Each maps to the config key of the
// same name ("log-level" -> log.level).
var flagKeys = map[string]string{
	"path":      "path",
	"prefix":    "prefix",
	"sqlite":    "sqlite",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// Load resolves configuration from, in increasing priority: defaults, the
// optional config file, KAEXTRACT_* environment variables and flags that
// were set explicitly.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("path", ".")
	v.SetDefault("prefix", "")
	v.SetDefault("sqlite", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return errors.New("config: path must not be empty")
	}
	return nil
}
