package usecases

import (
	"context"
	"errors"
	"fmt"

	"forumintel/internal/domain"
	"forumintel/pkg/log"
)

// SearchSubmitter fills in and submits the forum search form.
type SearchSubmitter struct {
	selectors SearchSelectors
	timeouts  Timeouts
}

// NewSearchSubmitter creates a SearchSubmitter.
func NewSearchSubmitter(selectors SearchSelectors, timeouts Timeouts) *SearchSubmitter {
	return &SearchSubmitter{selectors: selectors, timeouts: timeouts}
}

// Submit searches for query on the current page.
//
// After submitting it waits, bounded by the rejection timeout, for the
// first of the error overlay or the results marker. The overlay yields
// ErrBadRequest; the marker, or neither before the deadline, means the
// query was accepted. Failures while filling the form yield ErrSearchFailed.
func (s *SearchSubmitter) Submit(ctx context.Context, sess Session, query string) error {
	if err := s.fill(ctx, sess, query); err != nil {
		return domain.Reclassify(domain.ErrSearchFailed, err, "")
	}
	return s.awaitOutcome(ctx, sess, query)
}

func (s *SearchSubmitter) fill(ctx context.Context, sess Session, query string) error {
	sel := s.selectors
	timeout := s.timeouts.Navigation

	if err := within(ctx, timeout, func(ctx context.Context) error {
		return sess.Type(ctx, sel.Input, query)
	}); err != nil {
		return fmt.Errorf("type query: %w", err)
	}

	if sel.Grouped != "" {
		if err := within(ctx, timeout, func(ctx context.Context) error {
			return sess.Click(ctx, sel.Grouped)
		}); err != nil {
			return fmt.Errorf("group results by thread: %w", err)
		}
	}

	if sel.PostsOnly != "" {
		if err := within(ctx, timeout, func(ctx context.Context) error {
			return sess.Click(ctx, sel.PostsOnly)
		}); err != nil {
			return fmt.Errorf("restrict to posts: %w", err)
		}
	}

	// A rejected query does not navigate, so submit must not wait for a load.
	err := within(ctx, timeout, func(ctx context.Context) error {
		if sel.Submit == "" {
			return sess.FocusAndSendKey(ctx, sel.Input, "Enter")
		}
		return sess.Click(ctx, sel.Submit)
	})
	if err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return nil
}

func (s *SearchSubmitter) awaitOutcome(ctx context.Context, sess Session, query string) error {
	sel := s.selectors
	if sel.ErrorOverlay == "" && sel.ResultsMarker == "" {
		return nil
	}

	var idx int
	err := within(ctx, s.timeouts.Rejection, func(ctx context.Context) error {
		var err error
		idx, err = sess.AwaitFirst(ctx, sel.ErrorOverlay, sel.ResultsMarker)
		return err
	})

	switch {
	case err == nil && idx == 0:
		log.GlobalWarnCtx(ctx, "forum rejected search query", "query", query)
		return domain.Wrap(domain.ErrBadRequest, nil, "the forum rejected the search query %q", query)
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return domain.Wrap(domain.ErrSearchFailed, err, "")
	case errors.Is(err, context.DeadlineExceeded):
		log.GlobalWarnCtx(ctx, "no search outcome signal before deadline, assuming accepted",
			"timeout", s.timeouts.Rejection.String())
		return nil
	default:
		return domain.Wrap(domain.ErrSearchFailed, err, "")
	}
}
