package usecases

import (
	"context"
	"time"

	"forumintel/internal/extract"
)

// Browser opens remote browser sessions. Each crawl opens its own.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one exclusively owned browser tab. Every call honors the
// context deadline; callers bound each step with explicit timeouts.
type Session interface {
	// Navigate loads url and waits for the page to settle, as one operation.
	Navigate(ctx context.Context, url string) error
	// AwaitSettled waits until the current document has finished loading.
	AwaitSettled(ctx context.Context) error
	// AwaitSelector waits until selector is visible.
	AwaitSelector(ctx context.Context, selector string) error
	// AwaitFirst waits until any selector matches and returns its index.
	AwaitFirst(ctx context.Context, selectors ...string) (int, error)
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	// ClickAndSettle clicks a control that triggers a navigation and waits
	// for the resulting page to settle, as one operation.
	ClickAndSettle(ctx context.Context, selector string) error
	FocusAndSendKey(ctx context.Context, selector, key string) error
	// Query runs a structured extraction against the current page.
	Query(ctx context.Context, spec extract.Spec) ([]extract.Record, error)
	// Close releases the remote session. Safe to call more than once.
	Close() error
}

// Recorder observes crawl outcomes.
type Recorder interface {
	CrawlFinished(code string, elapsed time.Duration, posts, comments int)
	ThreadFailed()
}

type nopRecorder struct{}

func (nopRecorder) CrawlFinished(string, time.Duration, int, int) {}
func (nopRecorder) ThreadFailed()                                 {}
