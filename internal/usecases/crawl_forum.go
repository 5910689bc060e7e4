package usecases

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"forumintel/internal/domain"
	"forumintel/pkg/log"

	"github.com/google/uuid"
)

// DefaultSearchPath is the forum search form, relative to the base URL.
const DefaultSearchPath = "/search/?type=post"

// CrawlConfig holds the per-process settings of the crawler.
type CrawlConfig struct {
	BaseURL        string
	Credentials    domain.Credentials
	Timeouts       Timeouts
	MaxThreadPages int
}

// CrawlForumUseCase runs one end-to-end crawl per call: login, search,
// post listing and comment collection over a single browser session.
type CrawlForumUseCase struct {
	browser  Browser
	site     SiteSource
	cfg      CrawlConfig
	recorder Recorder
}

// NewCrawlForumUseCase creates a CrawlForumUseCase. recorder may be nil.
func NewCrawlForumUseCase(browser Browser, site SiteSource, cfg CrawlConfig, recorder Recorder) *CrawlForumUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = DefaultTimeouts()
	}
	return &CrawlForumUseCase{
		browser:  browser,
		site:     site,
		cfg:      cfg,
		recorder: recorder,
	}
}

// Execute crawls the forum for query.
//
// The browser session is closed exactly once before Execute returns, on
// every path. Every returned error is a *domain.Error; per-thread comment
// failures are absorbed and never fail the crawl.
func (uc *CrawlForumUseCase) Execute(ctx context.Context, query string) (result *domain.CrawlResult, err error) {
	start := time.Now()
	ctx = log.WithFields(ctx, "crawl_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.GlobalErrorCtx(ctx, "crawl panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			result, err = nil, domain.Wrap(domain.ErrScraper, fmt.Errorf("panic: %v", r), "unexpected scraper failure")
		}
		uc.finish(ctx, start, result, err)
	}()

	result, err = uc.crawl(ctx, query)
	if err != nil {
		return nil, domain.Classify(err)
	}
	return result, nil
}

func (uc *CrawlForumUseCase) crawl(ctx context.Context, query string) (*domain.CrawlResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Wrap(domain.ErrBadRequest, nil, "search query must not be empty")
	}
	if err := uc.cfg.Credentials.Validate(); err != nil {
		return nil, err
	}

	site := uc.site.Site()
	timeouts := uc.cfg.Timeouts

	session, err := uc.browser.Open(ctx)
	if err != nil {
		return nil, domain.Reclassify(domain.ErrScraper, err, "failed to open a browser session")
	}
	defer uc.release(ctx, session)

	log.GlobalInfoCtx(ctx, "crawl started", "query", query)

	if err := uc.navigate(ctx, session, uc.cfg.BaseURL); err != nil {
		return nil, err
	}

	if err := NewAuthenticator(site.Login, timeouts.Navigation).Login(ctx, session, uc.cfg.Credentials); err != nil {
		return nil, err
	}

	if err := uc.navigate(ctx, session, searchURL(uc.cfg.BaseURL, site.Search.Path)); err != nil {
		return nil, err
	}

	if err := NewSearchSubmitter(site.Search, timeouts).Submit(ctx, session, query); err != nil {
		return nil, err
	}

	posts, err := NewPostLister(site.Posts, timeouts.Navigation).List(ctx, session)
	if err != nil {
		return nil, err
	}
	log.GlobalInfoCtx(ctx, "posts listed", "count", len(posts))

	collector := NewCommentCollector(site.Comments, site.Pagination, timeouts.Navigation, uc.cfg.MaxThreadPages, uc.recorder)
	result := &domain.CrawlResult{Query: query, Evidence: make([]domain.Evidence, 0, len(posts))}
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, domain.Wrap(domain.ErrScraper, err, "crawl aborted before all threads were collected")
		}
		comments := collector.Collect(ctx, session, post)
		result.Evidence = append(result.Evidence, domain.Evidence{Post: post, Comments: comments.Items()})
	}

	return result, nil
}

func (uc *CrawlForumUseCase) navigate(ctx context.Context, s Session, target string) error {
	err := within(ctx, uc.cfg.Timeouts.Navigation, func(ctx context.Context) error {
		return s.Navigate(ctx, target)
	})
	if err != nil {
		return domain.Wrap(domain.ErrNavigationFailed, err, "failed to load %s", target)
	}
	return nil
}

// release closes the session. A close failure is logged and never
// replaces the crawl outcome.
func (uc *CrawlForumUseCase) release(ctx context.Context, s Session) {
	if err := s.Close(); err != nil {
		log.GlobalWarnCtx(ctx, "failed to close browser session", "error", err)
	}
}

func (uc *CrawlForumUseCase) finish(ctx context.Context, start time.Time, result *domain.CrawlResult, err error) {
	elapsed := time.Since(start)
	if err != nil {
		classified := domain.Classify(err)
		log.GlobalErrorCtx(ctx, "crawl failed",
			"code", classified.Kind.Code, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		uc.recorder.CrawlFinished(classified.Kind.Code, elapsed, 0, 0)
		return
	}

	comments := result.CommentCount()
	log.GlobalInfoCtx(ctx, "crawl finished",
		"posts", len(result.Evidence), "comments", comments, "elapsed_ms", elapsed.Milliseconds())
	uc.recorder.CrawlFinished("OK", elapsed, len(result.Evidence), comments)
}

func searchURL(base, path string) string {
	if path == "" {
		path = DefaultSearchPath
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
