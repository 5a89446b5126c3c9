package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stapsync/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the entity REST API",
		Long: `Serve the tracked-entity REST API.

Every create, update and delete made through the API is mirrored to the
remote after the local commit. Requests sent with "X-Sync-Source: odoo"
are stored without being pushed back.

Example:
  stapsync serve
  stapsync serve --addr 127.0.0.1:8080 --db /var/lib/stapsync.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	srv := server.New(server.Config{
		Addr:   addr,
		Mode:   a.cfg.Server.Mode,
		Store:  a.store,
		Logger: a.logger,
	})

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(unitContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("serving entity API",
		"addr", addr,
		"remote", a.cfg.Remote.URL,
		"model", a.cfg.Sync.Model,
		"sync_enabled", a.cfg.Sync.Enabled,
	)
	if err := srv.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}
