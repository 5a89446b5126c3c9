package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/stapsync/internal/origin"
	"github.com/roach88/stapsync/internal/store"
)

// EntityOptions holds flags shared by the entity subcommands.
type EntityOptions struct {
	*RootOptions
	Origin string

	Name     string
	RemoteID int64
	Search   string
	Limit    int
	Offset   int
}

// NewEntityCommand creates the entity command and its subcommands.
func NewEntityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage local tracked entities",
		Long: `Create, inspect, update and delete tracked entities in the local store.

Mutations are mirrored to the remote after they commit. Pass
--origin remote to record a change that came from the remote without
pushing it back.

Examples:
  stapsync entity create --name Widget
  stapsync entity update 1 --name Widget2
  stapsync entity list --search wid
  stapsync entity delete 1 --origin remote`,
	}

	cmd.PersistentFlags().StringVar(&opts.Origin, "origin", "", `mutation origin ("" or "remote")`)

	cmd.AddCommand(newEntityListCommand(opts))
	cmd.AddCommand(newEntityGetCommand(opts))
	cmd.AddCommand(newEntityCreateCommand(opts))
	cmd.AddCommand(newEntityUpdateCommand(opts))
	cmd.AddCommand(newEntityDeleteCommand(opts))

	return cmd
}

func newEntityListCommand(opts *EntityOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List entities",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEntityApp(opts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				entities, err := a.store.List(ctx, store.ListOptions{Search: opts.Search, Limit: opts.Limit, Offset: opts.Offset})
				if err != nil {
					return fail(f, "failed to list entities", err)
				}
				if entities == nil {
					entities = []store.Entity{}
				}
				if f.IsJSON() {
					return f.Success(entities)
				}
				return writeEntityTable(f.Writer, entities...)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Search, "search", "", "only names containing this text")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entities (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "entities to skip")
	return cmd
}

func newEntityGetCommand(opts *EntityOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Show one entity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEntityApp(opts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				e, err := a.store.Get(ctx, id)
				if err != nil {
					return fail(f, "failed to get entity", err)
				}
				return printEntity(f, e)
			})
		},
	}
}

func newEntityCreateCommand(opts *EntityOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create an entity and mirror it to the remote",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := store.NewEntity{Name: opts.Name}
			if cmd.Flags().Changed("remote-id") {
				remoteID := opts.RemoteID
				in.RemoteID = &remoteID
			}
			return withEntityApp(opts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				e, err := a.store.Create(ctx, in)
				if err != nil {
					return fail(f, "failed to create entity", err)
				}
				return printEntity(f, e)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "entity name (required)")
	cmd.Flags().Int64Var(&opts.RemoteID, "remote-id", 0, "link to an existing remote record")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEntityUpdateCommand(opts *EntityOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Update an entity and mirror it to the remote",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var p store.Patch
			if cmd.Flags().Changed("name") {
				name := opts.Name
				p.Name = &name
			}
			if cmd.Flags().Changed("remote-id") {
				remoteID := opts.RemoteID
				p.RemoteID = &remoteID
			}
			return withEntityApp(opts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				e, err := a.store.Update(ctx, id, p)
				if err != nil {
					return fail(f, "failed to update entity", err)
				}
				return printEntity(f, e)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "new name")
	cmd.Flags().Int64Var(&opts.RemoteID, "remote-id", 0, "new remote id")
	return cmd
}

func newEntityDeleteCommand(opts *EntityOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete an entity and unlink it on the remote",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEntityApp(opts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				e, err := a.store.Delete(ctx, id)
				if err != nil {
					return fail(f, "failed to delete entity", err)
				}
				if f.IsJSON() {
					return f.Success(e)
				}
				return f.Success(fmt.Sprintf("deleted entity %d", e.ID))
			})
		},
	}
}

// withEntityApp opens the app and runs fn inside one unit of work,
// under the remote origin when --origin remote was given.
func withEntityApp(opts *EntityOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app, f *OutputFormatter) error) error {
	marker, err := origin.ParseMarker(opts.Origin)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --origin", err)
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	f := newFormatter(opts.RootOptions, cmd)
	return origin.WithOrigin(unitContext(cmd), marker, func(ctx context.Context) error {
		return fn(ctx, a, f)
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

func printEntity(f *OutputFormatter, e store.Entity) error {
	if f.IsJSON() {
		return f.Success(e)
	}
	return writeEntityTable(f.Writer, e)
}

func writeEntityTable(w io.Writer, entities ...store.Entity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREMOTE ID\tUPDATED")
	for _, e := range entities {
		remote := "-"
		if e.RemoteID != nil {
			remote = strconv.FormatInt(*e.RemoteID, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Name, remote, e.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return tw.Flush()
}
