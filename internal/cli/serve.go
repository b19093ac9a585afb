package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/houseledger/internal/api"
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
		Short: "Serve the house API over HTTP",
		Long: `Serve every house operation over HTTP/JSON, plus /healthz and
Prometheus metrics on /metrics.

Example:
  houseledger serve --db ./houses.db --addr :8080
  HOUSELEDGER_DRIVER=postgres HOUSELEDGER_POSTGRES_DSN=... houseledger serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from HOUSELEDGER_ADDR or :8080)")

	return cmd
}

func runServer(opts *ServeOptions, cmd *cobra.Command) error {
	sess, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	addr := sess.cfg.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			sess.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := api.NewServer(sess.svc, sess.metrics, addr, sess.logger)
	if err := srv.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
