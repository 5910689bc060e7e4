package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"forumintel/internal/domain"
	"forumintel/internal/extract"
	"forumintel/internal/usecases"
)

const (
	baseURL    = "https://forum.test"
	resultsURL = "https://forum.test/search/77/"
	thread1    = "https://forum.test/t/one.1/"
	thread2    = "https://forum.test/t/two.2/"
	thread3    = "https://forum.test/t/three.3/"
)

var testCreds = domain.Credentials{Username: "analyst", Password: "s3cret"}

// scriptedForum returns a session with a results page listing three
// threads (plus a duplicate row and a row without url). Thread one has
// three pages, thread two two pages, thread three no page navigation.
func scriptedForum() *fakeSession {
	f := newFakeSession()
	f.clickTo["button.search"] = resultsURL
	f.pages[resultsURL] = fakePage{
		postsRows: {
			rec("url", thread1, "title", "ACME dump", "meta", "Forum: DB", "meta", "Replies: 12", "labels", "DB", "labels", " 2024 "),
			rec("url", thread2, "title", "VPN creds"),
			rec("title", "no url row"),
			rec("url", thread1, "title", "ACME dump repost"),
			rec("url", thread3, "title", "Combolist"),
		},
	}
	f.threadPages(thread1, 3)
	f.threadPages(thread2, 2)
	f.threadPages(thread3, 1)
	return f
}

func newCrawler(f *fakeSession, recorder usecases.Recorder) (*usecases.CrawlForumUseCase, *fakeBrowser) {
	browser := &fakeBrowser{session: f}
	uc := usecases.NewCrawlForumUseCase(browser, usecases.StaticSite(testSite()), usecases.CrawlConfig{
		BaseURL:     baseURL,
		Credentials: testCreds,
		Timeouts:    usecases.Timeouts{Navigation: time.Second, Rejection: 50 * time.Millisecond},
	}, recorder)
	return uc, browser
}

func TestCrawl_Success_ReturnsPostsInOrderWithUniqueURLs(t *testing.T) {
	// Arrange
	f := scriptedForum()
	uc, _ := newCrawler(f, nil)

	// Act
	result, err := uc.Execute(context.Background(), "acme")

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Query != "acme" {
		t.Errorf("query: got %q", result.Query)
	}
	wantURLs := []string{thread1, thread2, thread3}
	if len(result.Evidence) != len(wantURLs) {
		t.Fatalf("evidence: got %d, want %d", len(result.Evidence), len(wantURLs))
	}
	seen := map[string]bool{}
	for i, e := range result.Evidence {
		if e.Post.URL != wantURLs[i] {
			t.Errorf("evidence[%d].url: got %s, want %s", i, e.Post.URL, wantURLs[i])
		}
		if seen[e.Post.URL] {
			t.Errorf("duplicate url %s", e.Post.URL)
		}
		seen[e.Post.URL] = true
	}

	first := result.Evidence[0]
	if first.Post.Replies != 12 {
		t.Errorf("replies: got %d, want 12", first.Post.Replies)
	}
	if first.Post.Tags != "[DB][2024]" {
		t.Errorf("tags: got %q", first.Post.Tags)
	}
	if result.Evidence[1].Post.Replies != 0 || result.Evidence[1].Post.Tags != "" {
		t.Errorf("second post defaults: got %+v", result.Evidence[1].Post)
	}

	// opening post (deduplicated) + one per page
	wantComments := []int{4, 3, 2}
	for i, e := range result.Evidence {
		if len(e.Comments) != wantComments[i] {
			t.Errorf("evidence[%d] comments: got %d, want %d", i, len(e.Comments), wantComments[i])
		}
	}
	if f.closeCount != 1 {
		t.Errorf("close count: got %d, want 1", f.closeCount)
	}
}

func TestCrawl_Success_StepOrder(t *testing.T) {
	f := scriptedForum()
	uc, _ := newCrawler(f, nil)

	if _, err := uc.Execute(context.Background(), "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Navigate https://forum.test",
		"Click a.login",
		"AwaitSelector .overlay.is-active",
		"Type input[name=login]",
		"Type input[name=password]",
		"ClickAndSettle button.login",
		"Navigate https://forum.test/search/?type=post",
		"Type input.search",
		"Click input[name=grouped]",
		"Click input[name=order][value=date]",
		"Click button.search",
		"AwaitFirst .error-overlay|.results",
		"AwaitSettled",
		"Query li.block-row@" + resultsURL,
	}
	for i, call := range want {
		if i >= len(f.calls) || f.calls[i] != call {
			t.Fatalf("call[%d]: got %v, want %q", i, f.calls[:min(len(f.calls), i+1)], call)
		}
	}
}

func TestCollect_VisitsEveryPageOnceInOrder(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		f := newFakeSession()
		f.threadPages(thread1, n)
		collector := usecases.NewCommentCollector(testSite().Comments, testSite().Pagination, time.Second, 0, nil)

		set := collector.Collect(context.Background(), f, domain.Post{URL: thread1})

		navs := f.callsWithPrefix("Navigate ")
		if len(navs) != n {
			t.Fatalf("n=%d: navigations: got %d, want %d", n, len(navs), n)
		}
		if navs[0] != "Navigate "+thread1 {
			t.Errorf("n=%d: first navigation: got %s", n, navs[0])
		}
		for i := 2; i <= n; i++ {
			want, _ := usecases.PageURL(thread1, i)
			if navs[i-1] != "Navigate "+want {
				t.Errorf("n=%d: navigation %d: got %s, want %s", n, i, navs[i-1], want)
			}
		}
		if set.Len() != n+1 {
			t.Errorf("n=%d: comments: got %d, want %d", n, set.Len(), n+1)
		}
	}
}

func TestCollect_NoPagination_FetchesOnePage(t *testing.T) {
	f := newFakeSession()
	f.threadPages(thread3, 1)
	collector := usecases.NewCommentCollector(testSite().Comments, testSite().Pagination, time.Second, 0, nil)

	collector.Collect(context.Background(), f, domain.Post{URL: thread3})

	if got := f.callsWithPrefix("Navigate "); len(got) != 1 {
		t.Errorf("navigations: got %v, want exactly one", got)
	}
	if got := f.callsWithPrefix("Query " + commentsRows); len(got) != 1 {
		t.Errorf("comment queries: got %v, want exactly one", got)
	}
}

func TestCollect_MaxPagesCapsTheWalk(t *testing.T) {
	f := newFakeSession()
	f.threadPages(thread1, 10)
	collector := usecases.NewCommentCollector(testSite().Comments, testSite().Pagination, time.Second, 3, nil)

	collector.Collect(context.Background(), f, domain.Post{URL: thread1})

	if got := f.callsWithPrefix("Navigate "); len(got) != 3 {
		t.Errorf("navigations: got %d, want 3", len(got))
	}
}

func TestCollect_UnreadablePageCount_DefaultsToOne(t *testing.T) {
	f := newFakeSession()
	f.pages[thread1] = fakePage{
		commentsRows: {commentRec("op", "hi")},
		"":           {rec("last", "…")},
	}
	collector := usecases.NewCommentCollector(testSite().Comments, testSite().Pagination, time.Second, 0, nil)

	set := collector.Collect(context.Background(), f, domain.Post{URL: thread1})

	if got := f.callsWithPrefix("Navigate "); len(got) != 1 {
		t.Errorf("navigations: got %v", got)
	}
	if set.Len() != 1 {
		t.Errorf("comments: got %d, want 1", set.Len())
	}
}

func TestCrawl_PartialFailure_SecondThreadKeepsCollectedComments(t *testing.T) {
	// Arrange
	f := scriptedForum()
	f.failOn["Navigate "+thread2+"page-2"] = errors.New("net::ERR_CONNECTION_RESET")
	recorder := &fakeRecorder{}
	uc, _ := newCrawler(f, recorder)

	// Act
	result, err := uc.Execute(context.Background(), "acme")

	// Assert
	if err != nil {
		t.Fatalf("crawl should succeed, got %v", err)
	}
	if len(result.Evidence) != 3 {
		t.Fatalf("evidence: got %d, want 3", len(result.Evidence))
	}
	if got := len(result.Evidence[1].Comments); got != 2 {
		t.Errorf("second thread comments: got %d, want 2 from page 1", got)
	}
	if got := len(result.Evidence[2].Comments); got != 2 {
		t.Errorf("third thread comments: got %d, want 2", got)
	}
	if recorder.threadFailed != 1 {
		t.Errorf("thread failures: got %d, want 1", recorder.threadFailed)
	}
	if len(recorder.codes) != 1 || recorder.codes[0] != "OK" {
		t.Errorf("recorded outcome: got %v, want [OK]", recorder.codes)
	}
}

func TestCrawl_PartialFailure_ThreadFailingImmediatelyIsEmpty(t *testing.T) {
	f := scriptedForum()
	f.failOn["Navigate "+thread2] = context.DeadlineExceeded
	uc, _ := newCrawler(f, nil)

	result, err := uc.Execute(context.Background(), "acme")

	if err != nil {
		t.Fatalf("crawl should succeed, got %v", err)
	}
	comments := result.Evidence[1].Comments
	if comments == nil || len(comments) != 0 {
		t.Errorf("second thread comments: got %#v, want empty", comments)
	}
}

func TestCrawl_SearchRejected_ReturnsBadRequestWithoutExtraction(t *testing.T) {
	f := scriptedForum()
	f.first = 0 // error overlay
	uc, _ := newCrawler(f, nil)

	_, err := uc.Execute(context.Background(), "a?")

	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if got := f.callsWithPrefix("Query "); len(got) != 0 {
		t.Errorf("no extraction expected, got %v", got)
	}
	if f.closeCount != 1 {
		t.Errorf("close count: got %d, want 1", f.closeCount)
	}
	var classified *domain.Error
	if !errors.As(err, &classified) || classified.Record().Status != 400 {
		t.Errorf("record: got %+v", classified)
	}
}

func TestCrawl_NoOutcomeSignal_TreatedAsAccepted(t *testing.T) {
	f := scriptedForum()
	f.firstErr = context.DeadlineExceeded
	uc, _ := newCrawler(f, nil)

	result, err := uc.Execute(context.Background(), "acme")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Evidence) != 3 {
		t.Errorf("evidence: got %d, want 3", len(result.Evidence))
	}
}

func TestCrawl_SubmitWithoutButton_PressesEnter(t *testing.T) {
	f := scriptedForum()
	site := testSite()
	site.Search.Submit = ""
	uc := usecases.NewCrawlForumUseCase(&fakeBrowser{session: f}, usecases.StaticSite(site), usecases.CrawlConfig{
		BaseURL: baseURL, Credentials: testCreds,
	}, nil)

	_, err := uc.Execute(context.Background(), "acme")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.callsWithPrefix("FocusAndSendKey "); len(got) != 1 || got[0] != "FocusAndSendKey input.search Enter" {
		t.Errorf("focus and send key: got %v", got)
	}
}

func TestCrawl_MissingUsername_FailsBeforeAnyNavigation(t *testing.T) {
	f := scriptedForum()
	browser := &fakeBrowser{session: f}
	uc := usecases.NewCrawlForumUseCase(browser, usecases.StaticSite(testSite()), usecases.CrawlConfig{
		BaseURL:     baseURL,
		Credentials: domain.Credentials{Password: "x"},
	}, nil)

	_, err := uc.Execute(context.Background(), "acme")

	if !errors.Is(err, domain.ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
	if got := f.callsWithPrefix("Navigate "); len(got) != 0 {
		t.Errorf("no navigation expected, got %v", got)
	}
	if browser.opened != 0 {
		t.Errorf("session should not be opened, opened %d times", browser.opened)
	}
}

func TestCrawl_StepFailure_ClassifiesAndClosesOnce(t *testing.T) {
	boom := errors.New("boom")
	testCases := []struct {
		name   string
		failOn string
		want   *domain.Kind
	}{
		{"home navigation", "Navigate " + baseURL, domain.ErrNavigationFailed},
		{"login trigger", "Click a.login", domain.ErrLoginFailed},
		{"login overlay", "AwaitSelector .overlay.is-active", domain.ErrLoginFailed},
		{"login submit", "ClickAndSettle button.login", domain.ErrLoginFailed},
		{"search navigation", "Navigate " + baseURL + "/search/?type=post", domain.ErrNavigationFailed},
		{"search typing", "Type input.search", domain.ErrSearchFailed},
		{"search toggle", "Click input[name=grouped]", domain.ErrSearchFailed},
		{"search submit", "Click button.search", domain.ErrSearchFailed},
		{"outcome wait", "AwaitFirst .error-overlay|.results", domain.ErrSearchFailed},
		{"list settle", "AwaitSettled", domain.ErrDataRetrievalFailed},
		{"list query", "Query " + postsRows + "@" + resultsURL, domain.ErrDataRetrievalFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			f := scriptedForum()
			f.failOn[tc.failOn] = boom
			recorder := &fakeRecorder{}
			uc, _ := newCrawler(f, recorder)

			// Act
			result, err := uc.Execute(context.Background(), "acme")

			// Assert
			if result != nil {
				t.Errorf("result should be nil on failure")
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %s, got %v", tc.want.Code, err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("cause should be kept, got %v", err)
			}
			if f.closeCount != 1 {
				t.Errorf("close count: got %d, want 1", f.closeCount)
			}
			if len(recorder.codes) != 1 || recorder.codes[0] != tc.want.Code {
				t.Errorf("recorded outcome: got %v", recorder.codes)
			}
		})
	}
}

func TestCrawl_CloseFailure_DoesNotMaskOutcome(t *testing.T) {
	t.Run("original error wins", func(t *testing.T) {
		f := scriptedForum()
		f.failOn["Click a.login"] = errors.New("no such element")
		f.closeErr = errors.New("browser already gone")
		uc, _ := newCrawler(f, nil)

		_, err := uc.Execute(context.Background(), "acme")

		if !errors.Is(err, domain.ErrLoginFailed) {
			t.Errorf("expected ErrLoginFailed, got %v", err)
		}
	})

	t.Run("success stays success", func(t *testing.T) {
		f := scriptedForum()
		f.closeErr = errors.New("browser already gone")
		uc, _ := newCrawler(f, nil)

		result, err := uc.Execute(context.Background(), "acme")

		if err != nil || len(result.Evidence) != 3 {
			t.Errorf("got (%v, %v), want success", result, err)
		}
	})
}

func TestCrawl_Panic_BecomesScraperErrorAndCloses(t *testing.T) {
	f := scriptedForum()
	f.panicOn = "Type input.search"
	uc, _ := newCrawler(f, nil)

	_, err := uc.Execute(context.Background(), "acme")

	if !errors.Is(err, domain.ErrScraper) {
		t.Errorf("expected ErrScraper, got %v", err)
	}
	if f.closeCount != 1 {
		t.Errorf("close count: got %d, want 1", f.closeCount)
	}
}

func TestCrawl_OpenFailure_IsScraperError(t *testing.T) {
	browser := &fakeBrowser{err: errors.New("chrome not found")}
	uc := usecases.NewCrawlForumUseCase(browser, usecases.StaticSite(testSite()), usecases.CrawlConfig{
		BaseURL: baseURL, Credentials: testCreds,
	}, nil)

	_, err := uc.Execute(context.Background(), "acme")

	if !errors.Is(err, domain.ErrScraper) {
		t.Errorf("expected ErrScraper, got %v", err)
	}
}

func TestCrawl_EmptyQuery_IsBadRequest(t *testing.T) {
	f := scriptedForum()
	uc, browser := newCrawler(f, nil)

	_, err := uc.Execute(context.Background(), "   ")

	if !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
	if browser.opened != 0 {
		t.Error("session should not be opened for an empty query")
	}
}

func TestCrawl_CanceledContext_AbortsBeforeThreads(t *testing.T) {
	// The fake session ignores cancellation, so the crawl reaches the
	// thread loop and must notice the canceled context there.
	f := scriptedForum()
	uc, _ := newCrawler(f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx, "acme")

	if !errors.Is(err, domain.ErrScraper) {
		t.Errorf("expected ErrScraper, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause should be context.Canceled, got %v", err)
	}
	if got := f.callsWithPrefix("Query " + commentsRows); len(got) != 0 {
		t.Errorf("no thread should be collected, got %v", got)
	}
	if f.closeCount != 1 {
		t.Errorf("close count: got %d, want 1", f.closeCount)
	}
}

func TestPageURL(t *testing.T) {
	testCases := []struct {
		thread string
		page   int
		want   string
	}{
		{"https://f.test/threads/acme.101/", 2, "https://f.test/threads/acme.101/page-2"},
		{"https://f.test/threads/acme.101", 3, "https://f.test/threads/acme.101/page-3"},
		{"https://f.test/threads/acme.101/?highlight=x#post-9", 4, "https://f.test/threads/acme.101/page-4"},
	}
	for _, tc := range testCases {
		got, err := usecases.PageURL(tc.thread, tc.page)
		if err != nil {
			t.Errorf("PageURL(%q): unexpected error %v", tc.thread, err)
		}
		if got != tc.want {
			t.Errorf("PageURL(%q, %d): got %q, want %q", tc.thread, tc.page, got, tc.want)
		}
	}
}

func TestPostLister_EmptyPage_ReturnsEmptySlice(t *testing.T) {
	f := newFakeSession()
	lister := usecases.NewPostLister(extract.Spec{Rows: postsRows}, time.Second)

	posts, err := lister.List(context.Background(), f)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("posts: got %#v, want empty slice", posts)
	}
}
