package cli

import (
	"github.com/spf13/cobra"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Reveal bool
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file and
STAPSYNC_* environment variables. The remote password is redacted unless
--reveal is given.

Example:
  stapsync config
  STAPSYNC_REMOTE_URL=https://erp.example.com stapsync config --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Reveal, "reveal", false, "show secrets")

	return cmd
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	f := newFormatter(opts.RootOptions, cmd)
	if cfg.Source != "" {
		f.VerboseLog("config file: %s", cfg.Source)
	}

	if f.IsJSON() {
		out := *cfg
		if !opts.Reveal {
			out = out.Redacted()
		}
		return f.Success(out)
	}

	out, err := cfg.YAML(opts.Reveal)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render config", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
