package usecases

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"forumintel/internal/domain"
	"forumintel/internal/extract"
	"forumintel/pkg/log"
)

// CommentCollector walks every comment page of a thread.
type CommentCollector struct {
	comments   extract.Spec
	pagination extract.Spec
	timeout    time.Duration
	maxPages   int
	recorder   Recorder
}

// NewCommentCollector creates a CommentCollector. maxPages caps the pages
// read per thread; 0 means no cap.
func NewCommentCollector(comments, pagination extract.Spec, timeout time.Duration, maxPages int, recorder Recorder) *CommentCollector {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CommentCollector{
		comments:   comments,
		pagination: pagination,
		timeout:    timeout,
		maxPages:   maxPages,
		recorder:   recorder,
	}
}

// Collect returns the deduplicated comments of post's thread. It never
// fails: an error stops the walk for this thread only, is logged, and
// whatever was gathered so far is returned.
func (c *CommentCollector) Collect(ctx context.Context, s Session, post domain.Post) *domain.CommentSet {
	set := domain.NewCommentSet()
	if err := c.collect(ctx, s, post.URL, set); err != nil {
		c.recorder.ThreadFailed()
		log.GlobalErrorCtx(ctx, "comment collection aborted",
			"url", post.URL, "collected", set.Len(), "error", err)
	}
	return set
}

func (c *CommentCollector) collect(ctx context.Context, s Session, threadURL string, set *domain.CommentSet) error {
	if err := c.visit(ctx, s, threadURL, set); err != nil {
		return err
	}

	total, err := c.totalPages(ctx, s)
	if err != nil {
		return err
	}

	for page := 2; page <= total; page++ {
		next, err := PageURL(threadURL, page)
		if err != nil {
			return err
		}
		if err := c.visit(ctx, s, next, set); err != nil {
			return err
		}
	}

	log.GlobalDebugCtx(ctx, "thread collected", "url", threadURL, "pages", total, "comments", set.Len())
	return nil
}

// visit loads one thread page and merges its comments into set.
func (c *CommentCollector) visit(ctx context.Context, s Session, pageURL string, set *domain.CommentSet) error {
	if err := within(ctx, c.timeout, func(ctx context.Context) error {
		return s.Navigate(ctx, pageURL)
	}); err != nil {
		return domain.Wrap(domain.ErrNavigationFailed, err, "failed to load %s", pageURL)
	}

	var records []extract.Record
	if err := within(ctx, c.timeout, func(ctx context.Context) error {
		var err error
		records, err = s.Query(ctx, c.comments)
		return err
	}); err != nil {
		return fmt.Errorf("extract comments from %s: %w", pageURL, err)
	}

	comments := make([]domain.Comment, 0, len(records))
	for _, rec := range records {
		comments = append(comments, domain.Comment{
			Author: rec.Ptr("author"),
			Date:   rec.Ptr("date"),
			Text:   rec.Ptr("text"),
			URL:    rec.Ptr("url"),
		})
	}
	set.Add(comments...)
	return nil
}

// totalPages reads the last page number from the page navigation
// control. A missing or unreadable control means a single page.
func (c *CommentCollector) totalPages(ctx context.Context, s Session) (int, error) {
	var records []extract.Record
	if err := within(ctx, c.timeout, func(ctx context.Context) error {
		var err error
		records, err = s.Query(ctx, c.pagination)
		return err
	}); err != nil {
		return 0, fmt.Errorf("read page count: %w", err)
	}

	total := 1
	if len(records) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(records[0].String("last"))); err == nil && n > 1 {
			total = n
		}
	}
	if c.maxPages > 0 && total > c.maxPages {
		total = c.maxPages
	}
	return total, nil
}

// PageURL returns the URL of page n of a thread: the thread path with a
// "page-n" segment appended, without query or fragment.
func PageURL(threadURL string, n int) (string, error) {
	u, err := url.Parse(threadURL)
	if err != nil {
		return "", fmt.Errorf("parse thread url %q: %w", threadURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/page-" + strconv.Itoa(n)
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
