package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/houseledger/internal/config"
	"github.com/roach88/houseledger/internal/query"
	"github.com/roach88/houseledger/internal/schema"
	"github.com/roach88/houseledger/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Available bool
	Text      string
	Price     uint64
	SortName  bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [db-path]",
		Short: "Query a SQLite database directly",
		Long: `Read houses straight from a SQLite database with SQL compiled from
the same queries the service runs in memory. Filters combine with AND.

Example:
  houseledger inspect ./houses.db --available --text lagos --sort-name`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Available, "available", false, "only available houses")
	cmd.Flags().StringVar(&opts.Text, "text", "", "owner, type or location contains this text")
	cmd.Flags().Uint64Var(&opts.Price, "price", 0, "price equals this amount")
	cmd.Flags().BoolVar(&opts.SortName, "sort-name", false, "order by owner name")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command, args []string) error {
	path := opts.DB
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		if cfg.Driver != config.DriverSQLite {
			return NewExitError(ExitCommandError, "inspect needs a SQLite database path")
		}
		path = cfg.DBPath
	}

	if cmd.Flags().Changed("price") && opts.Price > schema.MaxAmount {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid price %d: must not exceed %d", opts.Price, schema.MaxAmount))
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	houses, err := st.SelectHouses(cmd.Context(), opts.query(cmd))
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	return opts.formatter(cmd).Success(houses)
}

// query builds the selection described by the flags.
func (o *InspectOptions) query(cmd *cobra.Command) query.Select {
	var preds []query.Predicate
	if o.Available {
		preds = append(preds, query.SelectAvailable().Filter)
	}
	if cmd.Flags().Changed("text") {
		preds = append(preds, query.SelectText(o.Text).Filter)
	}
	if cmd.Flags().Changed("price") {
		preds = append(preds, query.SelectPrice(o.Price).Filter)
	}

	var sel query.Select
	switch len(preds) {
	case 0:
	case 1:
		sel.Filter = preds[0]
	default:
		sel.Filter = query.And{Predicates: preds}
	}
	if o.SortName {
		sel.Order = query.SelectByName().Order
	}
	return sel
}
