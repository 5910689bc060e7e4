package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forumintel/internal/adapters/browser"
	"forumintel/internal/adapters/metrics"
	"forumintel/internal/adapters/web"
	"forumintel/internal/config"
	"forumintel/internal/usecases"
	"forumintel/pkg/log"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the authenticated HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(config.EnvProvider{}, true)
	if err != nil {
		return err
	}

	logger := setupLogger(opts, cfg, os.Stdout)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load selector configuration
	site, err := browser.LoadSite(cfg.SelectorsPath)
	if err != nil {
		return err
	}
	go site.Watch(ctx, 10*time.Second)

	launcher := browser.NewLauncher(browser.Options{
		ChromePath:  cfg.ChromePath,
		RemoteURL:   cfg.ChromeWSURL,
		MaxSessions: cfg.MaxSessions,
	})
	recorder := metrics.New()

	// Initialize use cases
	crawl := usecases.NewCrawlForumUseCase(launcher, site, cfg.Crawl(), recorder)

	// Initialize web handlers
	handlers := web.NewHandlers(crawl, cfg.ForumURL, cfg.CrawlTimeout)
	rateLimiter := web.NewRateLimiter(cfg.RateLimit)
	go rateLimiter.Cleanup(ctx, 5*time.Minute)

	app := web.NewApp()
	web.SetupRoutes(app, handlers, web.RouteConfig{
		AuthToken:     cfg.AuthToken,
		RateLimiter:   rateLimiter,
		OnRateLimited: recorder.Throttled,
		Metrics:       recorder.Handler(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(":" + cfg.Port) }()

	log.GlobalInfo("starting forumintel",
		"port", cfg.Port,
		"forum", cfg.ForumURL,
		"max_sessions", cfg.MaxSessions,
		"crawl_timeout", cfg.CrawlTimeout,
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.GlobalInfo("shutting down, waiting for in-flight crawls")
	return app.ShutdownWithTimeout(cfg.CrawlTimeout)
}
