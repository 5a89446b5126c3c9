package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/stapsync/internal/config"
	"github.com/roach88/stapsync/internal/odoo"
	"github.com/roach88/stapsync/internal/origin"
	"github.com/roach88/stapsync/internal/store"
	"github.com/roach88/stapsync/internal/syncer"
)

// app bundles what store-backed commands need.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	hook   *syncer.Hook
}

// loadConfig loads configuration and applies global flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs go to stderr so they never
// mix with command output.
func newLogger(cfg *config.Config, opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	return cfg.Log.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
}

// openApp loads config, opens the store and registers the sync hook.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, opts, cmd)

	logger.Debug("opening database", "path", cfg.Store.Path)
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	hook := syncer.NewHook(syncer.HookConfig{
		Model:   cfg.Sync.Model,
		Enabled: cfg.Sync.Enabled,
		Dial:    syncer.DialOdoo(cfg.Odoo(logger)),
		Links:   st,
		Logger:  logger,
	})
	st.OnCommit(hook)

	return &app{cfg: cfg, logger: logger, store: st, hook: hook}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// unitContext returns the command context tagged with the command's unit
// id, minting one on first use so every call in a command shares it.
func unitContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if origin.Unit(ctx) != "" {
		return ctx
	}
	ctx = origin.EnsureUnit(ctx, origin.UUIDv7Generator{})
	cmd.SetContext(ctx)
	return ctx
}

// errorCode names the error kind for CLIError.Code.
func errorCode(err error) string {
	if kind := odoo.KindOf(err); kind != "" {
		return string(kind)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, store.ErrInvalid):
		return "invalid"
	}
	return "error"
}

// fail wraps err as an ExitError. In JSON mode the error is also written
// as a CLIResponse so callers always get a parseable document; in text
// mode the caller of Execute prints it. Invalid input maps to
// ExitCommandError, everything else to ExitFailure.
func fail(f *OutputFormatter, message string, err error) error {
	code := ExitFailure
	if errors.Is(err, store.ErrInvalid) {
		code = ExitCommandError
	}
	if f.IsJSON() {
		_ = f.Error(errorCode(err), message+": "+err.Error(), nil)
	}
	return WrapExitError(code, message, err)
}
