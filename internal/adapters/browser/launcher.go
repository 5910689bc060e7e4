package browser

import (
	"context"
	"fmt"

	"forumintel/internal/usecases"
	"forumintel/pkg/log"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// Options configures how sessions reach a browser.
type Options struct {
	// ChromePath selects an explicit Chrome/Chromium binary.
	ChromePath string
	// RemoteURL connects to an already running browser (for example a
	// chromedp/headless-shell container) instead of launching one.
	RemoteURL string
	// MaxSessions bounds concurrently open sessions. Defaults to 1.
	MaxSessions int
	// Extra is appended to the default exec allocator flags.
	Extra []chromedp.ExecAllocatorOption
}

// Launcher opens isolated browser sessions, at most MaxSessions at a time.
// Every local session runs in its own Chrome process so that cookies from
// one login never leak into another crawl.
type Launcher struct {
	remoteURL string
	allocOpts []chromedp.ExecAllocatorOption
	sem       *semaphore.Weighted

	// start is replaced in tests.
	start func(ctx context.Context) (*session, error)
}

// NewLauncher creates a Launcher. No browser is started until Open.
func NewLauncher(opts Options) *Launcher {
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 1
	}

	l := &Launcher{
		remoteURL: opts.RemoteURL,
		allocOpts: allocatorOptions(opts),
		sem:       semaphore.NewWeighted(int64(opts.MaxSessions)),
	}
	l.start = l.startChrome

	if opts.RemoteURL != "" {
		log.GlobalInfo("browser launcher using remote browser", "url", opts.RemoteURL)
	} else if opts.ChromePath != "" {
		log.GlobalInfo("browser launcher using custom chrome path", "path", opts.ChromePath)
	}
	return l
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(chromedp.DefaultExecAllocatorOptions[:],
		// Core
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),

		// Memory / CPU reduction
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-features", "Translate,BackForwardCache"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
	)
	if opts.ChromePath != "" {
		out = append(out, chromedp.ExecPath(opts.ChromePath))
	}
	return append(out, opts.Extra...)
}

// Open blocks until a session slot is free or ctx is done, then starts a
// fresh browser tab. The slot is returned by Session.Close.
func (l *Launcher) Open(ctx context.Context) (usecases.Session, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for browser slot: %w", err)
	}

	s, err := l.start(ctx)
	if err != nil {
		l.sem.Release(1)
		return nil, err
	}
	s.release = func() { l.sem.Release(1) }
	return s, nil
}

// startChrome allocates a browser and forces its first tab to start.
func (l *Launcher) startChrome(ctx context.Context) (*session, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	// Sessions outlive the request that opened them only until Close;
	// ctx bounds startup, not the session lifetime.
	if l.remoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), l.remoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), l.allocOpts...)
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run must use the tab context itself: chromedp ties the
	// browser lifetime to the context that allocated it.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	var err error
	select {
	case err = <-started:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	s := &session{tab: tabCtx, tabCancel: tabCancel, allocCancel: allocCancel}

	log.GlobalDebugCtx(ctx, "browser session started")
	return s, nil
}
