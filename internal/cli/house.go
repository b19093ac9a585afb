package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/houseledger/internal/schema"
	"github.com/roach88/houseledger/internal/service"
)

// houseRun performs one operation on an opened service.
type houseRun func(ctx context.Context, svc *service.Service, args []string) (any, error)

// NewHouseCommands creates one command per house operation.
func NewHouseCommands(rootOpts *RootOptions) []*cobra.Command {
	var payload string
	var available bool

	cmds := []*cobra.Command{
		houseCommand(rootOpts, "add", "Add a house", cobra.NoArgs,
			func(ctx context.Context, svc *service.Service, _ []string) (any, error) {
				p, err := svc.DecodePayload([]byte(payload))
				if err != nil {
					return nil, err
				}
				return svc.AddHouse(ctx, p)
			}),
		houseCommand(rootOpts, "get <id>", "Show one house", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				return svc.GetHouse(ctx, id)
			})),
		houseCommand(rootOpts, "list", "List houses ordered by id", cobra.NoArgs,
			func(ctx context.Context, svc *service.Service, _ []string) (any, error) {
				if available {
					return svc.GetAvailableHouses(ctx), nil
				}
				return svc.GetAllHouses(ctx), nil
			}),
		houseCommand(rootOpts, "search [text]", "Find houses by owner, type or location", cobra.MaximumNArgs(1),
			func(ctx context.Context, svc *service.Service, args []string) (any, error) {
				var text string
				if len(args) == 1 {
					text = args[0]
				}
				return svc.SearchHouses(ctx, text), nil
			}),
		houseCommand(rootOpts, "search-price <amount>", "Find houses with exactly this price", cobra.ExactArgs(1),
			func(ctx context.Context, svc *service.Service, args []string) (any, error) {
				amount, err := parseAmount("amount", args[0])
				if err != nil {
					return nil, err
				}
				return svc.SearchPrice(ctx, amount), nil
			}),
		houseCommand(rootOpts, "sort", "List houses ordered by owner name", cobra.NoArgs,
			func(ctx context.Context, svc *service.Service, _ []string) (any, error) {
				return svc.SortHouseByName(ctx), nil
			}),
		houseCommand(rootOpts, "availability <id>", "Show whether a house is available", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				return svc.HouseAvailability(ctx, id)
			})),
		houseCommand(rootOpts, "history <id>", "Show the change ledger of a house", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				return svc.GetHouseUpdateHistory(ctx, id), nil
			})),
		houseCommand(rootOpts, "update <id>", "Replace the fields of a house", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				p, err := svc.DecodePayload([]byte(payload))
				if err != nil {
					return nil, err
				}
				return svc.UpdateHouse(ctx, id, p)
			})),
		houseCommand(rootOpts, "buy <id>", "Buy one unit of a house", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				p, err := svc.DecodePayload([]byte(payload))
				if err != nil {
					return nil, err
				}
				return svc.BuyHouse(ctx, id, p)
			})),
		houseCommand(rootOpts, "set-available <id>", "Mark a house available", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				return svc.SetHouseAvailable(ctx, id)
			})),
		houseCommand(rootOpts, "set-unavailable <id>", "Mark a house not available", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				return svc.SetHouseNotAvailable(ctx, id)
			})),
		houseCommand(rootOpts, "set-price <id> <amount>", "Change the price of a house", cobra.ExactArgs(2),
			withID(func(ctx context.Context, svc *service.Service, id uint64, args []string) (any, error) {
				amount, err := parseAmount("amount", args[1])
				if err != nil {
					return nil, err
				}
				return svc.SetPrice(ctx, id, amount)
			})),
		houseCommand(rootOpts, "delete <id>", "Remove a house, keeping its ledger", cobra.ExactArgs(1),
			withID(func(ctx context.Context, svc *service.Service, id uint64, _ []string) (any, error) {
				return svc.DeleteHouse(ctx, id)
			})),
	}

	for _, cmd := range cmds {
		switch cmd.Name() {
		case "add", "update", "buy":
			cmd.Flags().StringVar(&payload, "payload", "", "house payload as JSON")
			_ = cmd.MarkFlagRequired("payload")
		case "list":
			cmd.Flags().BoolVar(&available, "available", false, "only available houses")
		}
	}
	return cmds
}

func houseCommand(rootOpts *RootOptions, use, short string, args cobra.PositionalArgs, run houseRun) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHouseOp(rootOpts, cmd, args, run)
		},
	}
}

func runHouseOp(opts *RootOptions, cmd *cobra.Command, args []string, run houseRun) error {
	sess, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	out := opts.formatter(cmd)
	result, err := run(cmd.Context(), sess.svc, args)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return out.ServiceError(err)
	}
	return out.Success(result)
}

func withID(run func(ctx context.Context, svc *service.Service, id uint64, args []string) (any, error)) houseRun {
	return func(ctx context.Context, svc *service.Service, args []string) (any, error) {
		id, err := parseUint("id", args[0])
		if err != nil {
			return nil, err
		}
		return run(ctx, svc, id, args)
	}
}

func parseUint(name, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q: must be a non-negative integer", name, raw))
	}
	return v, nil
}

// parseAmount is parseUint limited to schema.MaxAmount.
func parseAmount(name, raw string) (uint64, error) {
	v, err := parseUint(name, raw)
	if err != nil {
		return 0, err
	}
	if v > schema.MaxAmount {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q: must not exceed %d", name, raw, schema.MaxAmount))
	}
	return v, nil
}
