package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/houseledger/internal/config"
	"github.com/roach88/houseledger/internal/metrics"
	"github.com/roach88/houseledger/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	EnvFile string
	Driver  string
	DB      string
	DSN     string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the houseledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "houseledger",
		Short: "houseledger - house listings with a change ledger",
		Long: `A store of house listings. Every change to a listing is recorded
in an append-only ledger that outlives the listing itself.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment from this file (must exist)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver (memory|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "PostgreSQL connection string")

	for _, sub := range NewHouseCommands(opts) {
		cmd.AddCommand(sub)
	}
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig resolves the environment and applies flag overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.DB != "" {
		cfg.DBPath = o.DB
		if o.Driver == "" && cfg.Driver == config.DriverMemory {
			cfg.Driver = config.DriverSQLite
		}
	}
	if o.DSN != "" {
		cfg.PostgresDSN = o.DSN
		if o.Driver == "" && cfg.Driver == config.DriverMemory {
			cfg.Driver = config.DriverPostgres
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger writes text logs to the command's stderr. --verbose forces debug.
func (o *RootOptions) newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	level := cfg.LogLevel
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}

// formatter returns an output formatter bound to the command's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// session is an opened service plus what was used to open it.
type session struct {
	svc     *service.Service
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func (s *session) close() {
	if err := s.svc.Close(); err != nil {
		s.logger.Error("error closing store", "error", err)
	}
}

// open loads configuration and opens the service on the configured driver.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.newLogger(cmd, cfg)
	m := metrics.New()

	svc, err := service.Open(cmd.Context(), cfg, service.OpenOptions{
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return &session{svc: svc, cfg: cfg, logger: logger, metrics: m}, nil
}
