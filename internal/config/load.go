package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/stapsync/internal/odoo"
)

// Default values. The remote defaults target a local Odoo dev install.
const (
	DefaultModel      = "stap.model"
	DefaultCollection = "stap_models"
	DefaultStorePath  = "stapsync.db"
	DefaultAddr       = ":8000"
	DefaultServerMode = "release"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"

	// FileName is the config file looked up in ./config and . when no
	// explicit file is given.
	FileName = "stapsync"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.url", odoo.DefaultURL)
	v.SetDefault("remote.database", odoo.DefaultDatabase)
	v.SetDefault("remote.username", odoo.DefaultUsername)
	v.SetDefault("remote.password", odoo.DefaultPassword)
	v.SetDefault("remote.api_prefix", odoo.DefaultAPIPrefix)
	v.SetDefault("remote.timeout", odoo.DefaultTimeout)
	v.SetDefault("remote.collections", []map[string]any{
		{"model": DefaultModel, "collection": DefaultCollection},
	})

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.model", DefaultModel)
	v.SetDefault("sync.page_size", odoo.DefaultSearchLimit)

	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.mode", DefaultServerMode)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// Load reads configuration in increasing precedence: defaults, the config
// file, then STAPSYNC_* environment variables. file may be empty, in which
// case stapsync.yaml is searched in ./config and the working directory and
// its absence is not an error. The result is validated.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
