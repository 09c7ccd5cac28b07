package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
)

type rootOptions struct {
	configFile string
	dataFile   string
	logLevel   string
	envFile    string
}

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.BackendResult
	svc     *services.BudgetService
}

func (a *app) Close() {
	if a.backend == nil || a.backend.Cleanup == nil {
		return
	}
	if err := a.backend.Cleanup(); err != nil {
		a.logger.WithComponent(log.ComponentCLI).Warn("Cleanup failed", log.FieldError, err)
	}
}

// NewRootCmd builds the budget command tree. The bare command runs serve.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "budget",
		Short:         "Personal budget tracker",
		Long:          "Track a budget and the expenses recorded against it, from the browser or the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().StringVar(&opts.dataFile, "data-file", "", "Budget JSON file (overrides DATA_FILE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	serve := newServeCmd(opts)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		newSummaryCmd(opts),
		newSetBudgetCmd(opts),
		newAddCmd(opts),
		newExportCmd(opts),
		newEventsCmd(opts),
	)
	return root
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap resolves configuration (defaults, file, .env, environment,
// flags), sets up logging and opens the configured backend.
func bootstrap(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if err := LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.dataFile != "" {
		cfg.DataFile = opts.dataFile
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := SetupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	svcOpts := services.Options{StrictSave: cfg.StrictSave, Logger: logger}
	if res.Events != nil {
		svcOpts.Publisher = res.Events
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: res,
		svc:     services.NewBudgetService(res.Store, svcOpts),
	}, nil
}
