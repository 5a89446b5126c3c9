package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stapsync/internal/odoo"
)

// RemoteOptions holds flags for the remote subcommands.
type RemoteOptions struct {
	*RootOptions

	RecordID int64
	Args     string
	Kwargs   string

	Fields []string
	Domain string
	Limit  int
	Offset int
	Order  string
}

// LoginResult is the output of remote login.
type LoginResult struct {
	UID      int64  `json:"uid"`
	Database string `json:"database"`
	Endpoint string `json:"endpoint"`
}

// NewRemoteCommand creates the remote command and its subcommands.
func NewRemoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Talk to the remote Odoo endpoint directly",
		Long: `Issue calls against the remote endpoint without touching the local store.

Examples:
  stapsync remote login
  stapsync remote read stap.model 42 --fields name
  stapsync remote search stap.model --domain '[["name","ilike","wid"]]' --limit 10
  stapsync remote call stap.model update --id 42 --args '{"name":"Widget2"}'`,
	}

	cmd.AddCommand(newRemoteLoginCommand(opts))
	cmd.AddCommand(newRemoteCallCommand(opts))
	cmd.AddCommand(newRemoteReadCommand(opts))
	cmd.AddCommand(newRemoteSearchCommand(opts))

	return cmd
}

func newRemoteLoginCommand(opts *RemoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "login",
		Short:         "Authenticate and print the session user id",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, f, err := dialRemote(opts, cmd)
			if err != nil {
				return err
			}
			s := client.Session()
			result := LoginResult{UID: s.UID(), Database: s.Database(), Endpoint: s.Endpoint()}
			if f.IsJSON() {
				return f.Success(result)
			}
			return f.Success(fmt.Sprintf("authenticated as uid %d on %s (%s)", result.UID, result.Database, result.Endpoint))
		},
	}
}

func newRemoteCallCommand(opts *RemoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "call <model> <operation>",
		Short:         "Invoke a raw remote operation and print its result",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := parseJSONFlag("--args", opts.Args)
			if err != nil {
				return err
			}
			kwargs, err := parseJSONFlag("--kwargs", opts.Kwargs)
			if err != nil {
				return err
			}

			client, f, err := dialRemote(opts, cmd)
			if err != nil {
				return err
			}
			result, err := client.Invoke(unitContext(cmd), args[0], odoo.Operation(args[1]), callArgs, opts.RecordID, kwargs)
			if err != nil {
				return fail(f, "remote call failed", err)
			}
			return printRaw(f, result)
		},
	}
	cmd.Flags().Int64Var(&opts.RecordID, "id", 0, "record id (appended to the resource path)")
	cmd.Flags().StringVar(&opts.Args, "args", "", "params.data as JSON")
	cmd.Flags().StringVar(&opts.Kwargs, "kwargs", "", "params.kwargs as JSON")
	return cmd
}

func newRemoteReadCommand(opts *RemoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "read <model> <id>",
		Short:         "Read one remote record",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			client, f, err := dialRemote(opts, cmd)
			if err != nil {
				return err
			}
			rec, err := client.Read(unitContext(cmd), args[0], id, opts.Fields...)
			if err != nil {
				return fail(f, "remote read failed", err)
			}
			return printValue(f, rec)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "fields to return (default all)")
	return cmd
}

func newRemoteSearchCommand(opts *RemoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "search <model>",
		Short:         "Search remote records",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var domain []any
			if opts.Domain != "" {
				if err := json.Unmarshal([]byte(opts.Domain), &domain); err != nil {
					return WrapExitError(ExitCommandError, "invalid --domain JSON", err)
				}
			}
			client, f, err := dialRemote(opts, cmd)
			if err != nil {
				return err
			}
			records, err := client.Search(unitContext(cmd), args[0], odoo.SearchOptions{
				Domain: domain,
				Fields: opts.Fields,
				Limit:  opts.Limit,
				Offset: opts.Offset,
				Order:  opts.Order,
			})
			if err != nil {
				return fail(f, "remote search failed", err)
			}
			return printValue(f, records)
		},
	}
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "filter domain as JSON, e.g. '[[\"name\",\"=\",\"x\"]]'")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "fields to return (default all)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, fmt.Sprintf("page size (0 = %d)", odoo.DefaultSearchLimit))
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip")
	cmd.Flags().StringVar(&opts.Order, "order", "", `sort order, e.g. "id desc"`)
	return cmd
}

// dialRemote loads config and authenticates a client.
func dialRemote(opts *RemoteOptions, cmd *cobra.Command) (*odoo.Client, *OutputFormatter, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg, opts.RootOptions, cmd)
	f := newFormatter(opts.RootOptions, cmd)

	f.VerboseLog("authenticating against %s (db %s)", cfg.Remote.URL, cfg.Remote.Database)
	client, err := odoo.Dial(unitContext(cmd), cfg.Odoo(logger))
	if err != nil {
		return nil, nil, fail(f, "failed to authenticate", err)
	}
	return client, f, nil
}

func parseJSONFlag(name, raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s JSON", name), err)
	}
	return v, nil
}

// printRaw prints an undecoded result: embedded as-is in JSON mode,
// indented in text mode.
func printRaw(f *OutputFormatter, raw json.RawMessage) error {
	if f.IsJSON() {
		return f.Success(raw)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return f.Success(string(raw))
	}
	return printValue(f, v)
}

func printValue(f *OutputFormatter, v any) error {
	if f.IsJSON() {
		return f.Success(v)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	return f.Success(string(out))
}
