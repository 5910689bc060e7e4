package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"forumintel/internal/extract"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const pollInterval = 100 * time.Millisecond

// session is one chromedp tab. It implements usecases.Session.
type session struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	release     func()

	closeOnce sync.Once
	closeErr  error
}

// run executes actions in the tab, bounded by ctx. The tab context lives
// until Close, so ctx's deadline and cancellation are mirrored onto a
// per-call child of it.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tab)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var stop context.CancelFunc
		runCtx, stop = context.WithDeadline(runCtx, deadline)
		defer stop()
	}
	unhook := context.AfterFunc(ctx, cancel)
	defer unhook()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// poll evaluates expr until ok reports true for its result. Evaluation
// errors are retried, since the page may be mid-navigation.
func (s *session) poll(ctx context.Context, expr string, res any, ok func() bool) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		lastErr = s.run(ctx, chromedp.Evaluate(expr, res))
		if lastErr == nil && ok() {
			return nil
		}
		select {
		case <-ctx.Done():
			if lastErr != nil && ctx.Err() != lastErr {
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *session) Navigate(ctx context.Context, target string) error {
	return s.run(ctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *session) AwaitSettled(ctx context.Context) error {
	var state string
	return s.poll(ctx, `document.readyState`, &state, func() bool { return state == "complete" })
}

func (s *session) AwaitSelector(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *session) AwaitFirst(ctx context.Context, selectors ...string) (int, error) {
	expr, err := firstMatchScript(selectors)
	if err != nil {
		return -1, err
	}
	var idx int
	if err := s.poll(ctx, expr, &idx, func() bool { return idx >= 0 }); err != nil {
		return -1, err
	}
	return idx, nil
}

func (s *session) Type(ctx context.Context, selector, text string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// Click dispatches a DOM click. Checkboxes and radios behind styled labels
// have no box model, so a mouse click would miss them.
func (s *session) Click(ctx context.Context, selector string) error {
	expr, err := clickScript(selector)
	if err != nil {
		return err
	}
	return s.run(ctx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Evaluate(expr, nil),
	)
}

func (s *session) ClickAndSettle(ctx context.Context, selector string) error {
	loaded := make(chan struct{})
	var once sync.Once

	listenCtx, stop := context.WithCancel(s.tab)
	defer stop()
	// Registered before the click so a fast load cannot be missed.
	chromedp.ListenTarget(listenCtx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			once.Do(func() { close(loaded) })
		}
	})

	if err := s.Click(ctx, selector); err != nil {
		return err
	}

	select {
	case <-loaded:
	case <-ctx.Done():
		return fmt.Errorf("wait for page load after click: %w", ctx.Err())
	}
	return s.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (s *session) FocusAndSendKey(ctx context.Context, selector, key string) error {
	return s.run(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.KeyEvent(keyFor(key)),
	)
}

func (s *session) Query(ctx context.Context, spec extract.Spec) ([]extract.Record, error) {
	var location, html string
	if err := s.run(ctx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, err
	}

	base, err := url.Parse(location)
	if err != nil {
		base = nil
	}
	return extract.FromHTML(strings.NewReader(html), base, spec)
}

// Close closes the tab and its browser, then frees the launcher slot.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.tab)
		s.tabCancel()
		s.allocCancel()
		if s.release != nil {
			s.release()
		}
	})
	return s.closeErr
}

var keys = map[string]string{
	"enter":     kb.Enter,
	"tab":       kb.Tab,
	"escape":    kb.Escape,
	"backspace": kb.Backspace,
}

// keyFor maps a key name to its chromedp key code. Unknown names are
// sent as literal text.
func keyFor(name string) string {
	if k, ok := keys[strings.ToLower(name)]; ok {
		return k
	}
	return name
}

// firstMatchScript builds an expression yielding the index of the first
// selector that matches an element, or -1. Empty selectors never match.
func firstMatchScript(selectors []string) (string, error) {
	usable := false
	for _, sel := range selectors {
		if sel != "" {
			usable = true
		}
	}
	if !usable {
		return "", fmt.Errorf("await first: no selectors")
	}

	encoded, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(() => {
	const sels = %s;
	for (let i = 0; i < sels.length; i++) {
		if (sels[i] && document.querySelector(sels[i])) return i;
	}
	return -1;
})()`, encoded), nil
}

func clickScript(selector string) (string, error) {
	encoded, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`document.querySelector(%s).click()`, encoded), nil
}
