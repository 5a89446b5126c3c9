// Package config loads stapsync configuration from defaults, a YAML file
// and STAPSYNC_* environment variables, and validates the result against
// an embedded CUE schema.
package config

import (
	"log/slog"
	"time"

	"github.com/roach88/stapsync/internal/odoo"
)

// EnvPrefix prefixes every environment override, e.g. STAPSYNC_REMOTE_URL.
const EnvPrefix = "STAPSYNC"

// Config is the full stapsync configuration.
type Config struct {
	Remote RemoteConfig `json:"remote" yaml:"remote" mapstructure:"remote"`
	Sync   SyncConfig   `json:"sync" yaml:"sync" mapstructure:"sync"`
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`

	// Source is the config file that was read, or "" when none was.
	Source string `json:"-" yaml:"-" mapstructure:"-"`
}

// RemoteConfig describes the Odoo endpoint.
type RemoteConfig struct {
	URL       string        `json:"url" yaml:"url" mapstructure:"url"`
	Database  string        `json:"database" yaml:"database" mapstructure:"database"`
	Username  string        `json:"username" yaml:"username" mapstructure:"username"`
	Password  string        `json:"password" yaml:"password" mapstructure:"password"`
	APIPrefix string        `json:"api_prefix" yaml:"api_prefix" mapstructure:"api_prefix"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Verbs overrides the HTTP method per operation (create, read,
	// update, delete, search).
	Verbs map[string]string `json:"verbs" yaml:"verbs" mapstructure:"verbs"`

	// Collections maps model names onto collection path segments. A list
	// rather than a map because model names contain dots.
	Collections []CollectionMapping `json:"collections" yaml:"collections" mapstructure:"collections"`
}

// CollectionMapping routes one model to a collection path segment.
type CollectionMapping struct {
	Model      string `json:"model" yaml:"model" mapstructure:"model"`
	Collection string `json:"collection" yaml:"collection" mapstructure:"collection"`
}

// SyncConfig controls propagation and pulls.
type SyncConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Model    string `json:"model" yaml:"model" mapstructure:"model"`
	PageSize int    `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"` // gin mode: debug, release, test
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Odoo converts the remote section into an odoo.Config.
func (c Config) Odoo(logger *slog.Logger) odoo.Config {
	collections := make(map[string]string, len(c.Remote.Collections))
	for _, m := range c.Remote.Collections {
		collections[m.Model] = m.Collection
	}
	verbs := make(map[odoo.Operation]string, len(c.Remote.Verbs))
	for op, method := range c.Remote.Verbs {
		verbs[odoo.Operation(op)] = method
	}
	return odoo.Config{
		URL:         c.Remote.URL,
		Database:    c.Remote.Database,
		Username:    c.Remote.Username,
		Password:    c.Remote.Password,
		APIPrefix:   c.Remote.APIPrefix,
		Collections: collections,
		Verbs:       verbs,
		Timeout:     c.Remote.Timeout,
		Logger:      logger,
	}
}
