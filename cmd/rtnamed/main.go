// Command rtnamed serves an in-memory naming registry over HTTP.
//
// The registry is seeded from a YAML file when one is configured, and
// otherwise restored from its SQLite database. With an empty database the
// --demo flag loads a built-in demonstration system. rtsh talks to the
// daemon as a name server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rtshell/internal/config"
	"rtshell/internal/logging"
)

type options struct {
	configPath string
	listen     string
	database   string
	seed       string
	demo       bool
	watch      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rtnamed: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "rtnamed",
		Short:         "Serve a naming registry for rtsh",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			d, err := newDaemon(cmd.Context(), cfg, opts.demo, logger)
			if err != nil {
				return err
			}
			defer d.Close()
			return d.Run(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default: search the standard locations)")
	f.StringVar(&opts.listen, "listen", "", "HTTP listen address (overrides registry.listen)")
	f.StringVar(&opts.database, "db", "", "SQLite database path (overrides registry.database)")
	f.StringVar(&opts.seed, "seed", "", "YAML system to load at start (overrides registry.seed)")
	f.BoolVar(&opts.demo, "demo", false, "load the built-in demo system when nothing else is stored")
	f.BoolVar(&opts.watch, "watch", false, "reload the seed file whenever it changes")
	return cmd
}

// loadConfig reads the config file and applies the command line overrides
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, _, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.listen != "" {
		cfg.Registry.Listen = opts.listen
	}
	if opts.database != "" {
		cfg.Registry.Database = opts.database
	}
	if opts.seed != "" {
		cfg.Registry.Seed = opts.seed
	}
	if opts.watch {
		cfg.Registry.Watch = true
	}
	return cfg, nil
}
