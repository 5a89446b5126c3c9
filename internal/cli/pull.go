package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stapsync/internal/syncer"
)

// PullOptions holds flags for the pull command.
type PullOptions struct {
	*RootOptions
	PageSize int
}

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PullOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Import remote records into the local store",
		Long: `Import every remote record of the configured model into the local store.

Records are matched by remote id: missing ones are created, renamed ones
updated. Imported changes are not pushed back to the remote.

Exit codes:
  0 - Pull completed
  1 - Remote or storage failure
  2 - Command error (invalid config, database not openable, etc.)

Example:
  stapsync pull
  stapsync pull --page-size 200 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "records per search request (overrides sync.page_size)")

	return cmd
}

func runPull(opts *PullOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	pageSize := a.cfg.Sync.PageSize
	if opts.PageSize > 0 {
		pageSize = opts.PageSize
	}

	puller := syncer.NewPuller(syncer.PullerConfig{
		Model:    a.cfg.Sync.Model,
		Dial:     syncer.DialOdoo(a.cfg.Odoo(a.logger)),
		Store:    a.store,
		PageSize: pageSize,
		Logger:   a.logger,
	})

	f := newFormatter(opts.RootOptions, cmd)
	ctx, stop := signal.NotifyContext(unitContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := puller.Pull(ctx)
	if err != nil {
		return fail(f, "pull failed", err)
	}

	if f.IsJSON() {
		return f.Success(report)
	}
	return f.Success(fmt.Sprintf("pulled %s: seen=%d created=%d updated=%d unchanged=%d skipped=%d",
		a.cfg.Sync.Model, report.Seen, report.Created, report.Updated, report.Unchanged, report.Skipped))
}
