package usecases

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"forumintel/internal/domain"
	"forumintel/internal/extract"
	"forumintel/pkg/log"
)

var repliesPattern = regexp.MustCompile(`Replies:\s*(\d+)`)

// PostLister extracts post summaries from the loaded results page.
type PostLister struct {
	spec    extract.Spec
	timeout time.Duration
}

// NewPostLister creates a PostLister for the given posts spec.
func NewPostLister(spec extract.Spec, timeout time.Duration) *PostLister {
	return &PostLister{spec: spec, timeout: timeout}
}

// List returns the posts of the current results page in listing order.
// Rows without a URL are skipped and repeated URLs keep the first row.
// An empty page yields an empty slice. Session failures yield
// ErrDataRetrievalFailed.
func (l *PostLister) List(ctx context.Context, s Session) ([]domain.Post, error) {
	var records []extract.Record
	err := within(ctx, l.timeout, func(ctx context.Context) error {
		if err := s.AwaitSettled(ctx); err != nil {
			return err
		}
		var err error
		records, err = s.Query(ctx, l.spec)
		return err
	})
	if err != nil {
		return nil, domain.Reclassify(domain.ErrDataRetrievalFailed, err, "")
	}

	posts := make([]domain.Post, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		post := postFromRecord(rec)
		if post.URL == "" {
			log.GlobalDebugCtx(ctx, "skipping result row without url", "title", post.Title)
			continue
		}
		if _, dup := seen[post.URL]; dup {
			continue
		}
		seen[post.URL] = struct{}{}
		posts = append(posts, post)
	}
	return posts, nil
}

func postFromRecord(rec extract.Record) domain.Post {
	labels := make([]string, 0)
	for _, l := range rec.All("labels") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}

	return domain.Post{
		Title:   rec.String("title"),
		URL:     rec.String("url"),
		Author:  rec.String("author"),
		Date:    rec.String("date"),
		Replies: parseReplies(rec.All("meta")),
		Text:    rec.String("snippet"),
		Tags:    domain.RenderTags(labels),
		Labels:  labels,
	}
}

// parseReplies reads the "Replies: N" label. The last matching item wins;
// no match yields 0.
func parseReplies(items []string) int {
	replies := 0
	for _, item := range items {
		m := repliesPattern.FindStringSubmatch(item)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			replies = n
		}
	}
	return replies
}
