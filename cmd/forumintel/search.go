package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"forumintel/internal/adapters/browser"
	"forumintel/internal/adapters/web"
	"forumintel/internal/config"
	"forumintel/internal/usecases"

	"github.com/spf13/cobra"
)

type searchOptions struct {
	username string
	password string
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	sopts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Run one crawl and print the evidence as JSON",
		Example: `  # Credentials from the environment
  forumintel search "acme corp"

  # Override the forum account
  forumintel search --username analyst --password "$PW" acme`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), opts, sopts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&sopts.username, "username", "", "forum username (overrides FORUM_USERNAME)")
	cmd.Flags().StringVar(&sopts.password, "password", "", "forum password (overrides FORUM_PASSWORD)")
	return cmd
}

func runSearch(ctx context.Context, opts *rootOptions, sopts *searchOptions, keyword string, out io.Writer) error {
	cfg, err := config.Load(config.EnvProvider{}, false)
	if err != nil {
		return err
	}
	if sopts.username != "" {
		cfg.Credentials.Username = sopts.username
	}
	if sopts.password != "" {
		cfg.Credentials.Password = sopts.password
	}

	// Logs go to stderr so stdout stays a single JSON document.
	logger := setupLogger(opts, cfg, os.Stderr)
	defer logger.Close()

	site, err := browser.LoadSite(cfg.SelectorsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.CrawlTimeout)
	defer cancel()

	launcher := browser.NewLauncher(browser.Options{
		ChromePath:  cfg.ChromePath,
		RemoteURL:   cfg.ChromeWSURL,
		MaxSessions: 1,
	})
	crawl := usecases.NewCrawlForumUseCase(launcher, site, cfg.Crawl(), nil)

	result, err := crawl.Execute(ctx, keyword)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(web.NewSearchResponse(cfg.ForumURL, result))
}
