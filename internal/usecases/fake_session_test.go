package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"forumintel/internal/extract"
	"forumintel/internal/usecases"
)

const (
	postsRows    = "li.block-row"
	commentsRows = "article.message"
)

func testSite() usecases.Site {
	return usecases.Site{
		Login: usecases.LoginSelectors{
			Trigger:  "a.login",
			Overlay:  ".overlay.is-active",
			Username: "input[name=login]",
			Password: "input[name=password]",
			Submit:   "button.login",
		},
		Search: usecases.SearchSelectors{
			Input:         "input.search",
			Grouped:       "input[name=grouped]",
			PostsOnly:     "input[name=order][value=date]",
			Submit:        "button.search",
			ErrorOverlay:  ".error-overlay",
			ResultsMarker: ".results",
		},
		Posts:      extract.Spec{Rows: postsRows, Fields: []extract.Field{{Name: "url"}}},
		Comments:   extract.Spec{Rows: commentsRows, Fields: []extract.Field{{Name: "text"}}},
		Pagination: extract.Spec{Fields: []extract.Field{{Name: "last"}}},
	}
}

// fakePage holds the records each spec returns on one URL, keyed by Rows.
type fakePage map[string][]extract.Record

// fakeSession is a scripted browser tab. Failures are injected by call
// key, e.g. "Click a.login" or "Navigate https://forum.test/t/2/page-2".
type fakeSession struct {
	mu sync.Mutex

	pages    map[string]fakePage
	clickTo  map[string]string
	failOn   map[string]error
	panicOn  string
	first    int
	firstErr error
	closeErr error

	current    string
	calls      []string
	closeCount int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:   make(map[string]fakePage),
		clickTo: make(map[string]string),
		failOn:  make(map[string]error),
		first:   1,
	}
}

func (f *fakeSession) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if call == f.panicOn {
		panic("injected panic on " + call)
	}
	return f.failOn[call]
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	if err := f.record("Navigate " + url); err != nil {
		return err
	}
	f.current = url
	return nil
}

func (f *fakeSession) AwaitSettled(ctx context.Context) error {
	return f.record("AwaitSettled")
}

func (f *fakeSession) AwaitSelector(ctx context.Context, selector string) error {
	return f.record("AwaitSelector " + selector)
}

func (f *fakeSession) AwaitFirst(ctx context.Context, selectors ...string) (int, error) {
	if err := f.record("AwaitFirst " + strings.Join(selectors, "|")); err != nil {
		return -1, err
	}
	if errors.Is(f.firstErr, context.DeadlineExceeded) {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	if f.firstErr != nil {
		return -1, f.firstErr
	}
	return f.first, nil
}

func (f *fakeSession) Type(ctx context.Context, selector, text string) error {
	return f.record("Type " + selector)
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	if err := f.record("Click " + selector); err != nil {
		return err
	}
	if to, ok := f.clickTo[selector]; ok {
		f.current = to
	}
	return nil
}

func (f *fakeSession) ClickAndSettle(ctx context.Context, selector string) error {
	if err := f.record("ClickAndSettle " + selector); err != nil {
		return err
	}
	if to, ok := f.clickTo[selector]; ok {
		f.current = to
	}
	return nil
}

func (f *fakeSession) FocusAndSendKey(ctx context.Context, selector, key string) error {
	return f.record("FocusAndSendKey " + selector + " " + key)
}

func (f *fakeSession) Query(ctx context.Context, spec extract.Spec) ([]extract.Record, error) {
	if err := f.record(fmt.Sprintf("Query %s@%s", spec.Rows, f.current)); err != nil {
		return nil, err
	}
	return f.pages[f.current][spec.Rows], nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return f.closeErr
}

func (f *fakeSession) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

type fakeBrowser struct {
	session *fakeSession
	err     error
	opened  int
}

func (b *fakeBrowser) Open(ctx context.Context) (usecases.Session, error) {
	b.opened++
	if b.err != nil {
		return nil, b.err
	}
	return b.session, nil
}

type fakeRecorder struct {
	codes         []string
	threadFailed  int
	posts, totals int
}

func (r *fakeRecorder) CrawlFinished(code string, _ time.Duration, posts, comments int) {
	r.codes = append(r.codes, code)
	r.posts = posts
	r.totals = comments
}

func (r *fakeRecorder) ThreadFailed() { r.threadFailed++ }

// Helpers to build scripted pages.

func rec(kv ...string) extract.Record {
	r := extract.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = append(r[kv[i]], kv[i+1])
	}
	return r
}

func commentRec(author, text string) extract.Record {
	return rec("author", author, "text", text, "date", "2024-01-01", "url", "https://forum.test/p/"+author+text)
}

// threadPages scripts a thread with n pages of one unique comment each
// plus the opening post repeated on every page.
func (f *fakeSession) threadPages(threadURL string, n int) {
	for i := 1; i <= n; i++ {
		pageURL := threadURL
		if i > 1 {
			pageURL = fmt.Sprintf("%spage-%d", threadURL, i)
		}
		page := fakePage{
			commentsRows: {commentRec("op", "opening"), commentRec(fmt.Sprintf("u%d", i), fmt.Sprintf("page %d", i))},
		}
		if n > 1 {
			page[""] = []extract.Record{rec("last", fmt.Sprint(n))}
		}
		f.pages[pageURL] = page
	}
}
