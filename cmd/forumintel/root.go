package main

import (
	"io"

	"forumintel/internal/config"
	"forumintel/pkg/log"
	"forumintel/pkg/log/transporters"

	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "forumintel",
		Short: "Collect threat-intelligence evidence from a forum",
		Long: `forumintel logs in to a forum, searches it for a keyword and returns
every matching post with all of its comments.

Configuration comes from the environment, optionally loaded from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFile(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "environment file to load (default .env when present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	return cmd
}

// setupLogger installs the global JSON logger writing to w. The flag wins
// over the configured level; an unknown level falls back to INFO.
func setupLogger(opts *rootOptions, cfg *config.Config, w io.Writer) *log.Logger {
	name := cfg.LogLevel
	if opts.logLevel != "" {
		name = opts.logLevel
	}
	level, err := log.ParseLevel(name)

	logger := log.New(level, transporters.NewStdoutWithWriter(w))
	log.SetDefault(logger)
	if err != nil {
		log.GlobalWarn("unknown log level, using INFO", "level", name)
	}
	return logger
}
