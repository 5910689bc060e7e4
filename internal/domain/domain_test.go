package domain_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"forumintel/internal/domain"
)

func str(s string) *string { return &s }

func TestCommentSet_Add_DeduplicatesByValue(t *testing.T) {
	// Arrange
	set := domain.NewCommentSet()
	a := domain.Comment{Author: str("neo"), Date: str("2024-01-01"), Text: str("dump link"), URL: str("https://f/p1")}
	sameValue := domain.Comment{Author: str("neo"), Date: str("2024-01-01"), Text: str("dump link"), URL: str("https://f/p1")}
	b := domain.Comment{Author: str("trinity"), Text: str("mirror")}

	// Act
	added := set.Add(a, b, sameValue)

	// Assert
	if added != 2 {
		t.Errorf("added: got %d, want 2", added)
	}
	items := set.Items()
	if len(items) != 2 {
		t.Fatalf("len: got %d, want 2", len(items))
	}
	if *items[0].Author != "neo" || *items[1].Author != "trinity" {
		t.Errorf("order not preserved: %v, %v", *items[0].Author, *items[1].Author)
	}
}

func TestCommentSet_Add_SamePageTwiceDoesNotGrow(t *testing.T) {
	page := []domain.Comment{
		{Author: str("a"), Text: str("one")},
		{Author: str("b"), Text: str("two")},
		{Author: nil, Date: nil, Text: nil, URL: nil},
	}
	set := domain.NewCommentSet()
	set.Add(page...)
	before := set.Len()

	set.Add(page...)

	if set.Len() != before {
		t.Errorf("len grew from %d to %d", before, set.Len())
	}
}

func TestCommentSet_Add_AbsentDiffersFromEmpty(t *testing.T) {
	set := domain.NewCommentSet()

	set.Add(domain.Comment{Text: str("")}, domain.Comment{Text: nil})

	if set.Len() != 2 {
		t.Errorf("len: got %d, want 2", set.Len())
	}
}

func TestCommentSet_ZeroValue_ItemsIsEmptyNotNil(t *testing.T) {
	var set domain.CommentSet
	if items := set.Items(); items == nil || len(items) != 0 {
		t.Errorf("Items: got %#v, want empty non-nil slice", items)
	}
	set.Add(domain.Comment{Text: str("x")})
	if set.Len() != 1 {
		t.Errorf("len: got %d, want 1", set.Len())
	}
}

func TestRenderTags(t *testing.T) {
	testCases := []struct {
		labels []string
		want   string
	}{
		{nil, ""},
		{[]string{"DB"}, "[DB]"},
		{[]string{"Leak", "2024"}, "[Leak][2024]"},
	}
	for _, tc := range testCases {
		if got := domain.RenderTags(tc.labels); got != tc.want {
			t.Errorf("RenderTags(%v): got %q, want %q", tc.labels, got, tc.want)
		}
	}
}

func TestCredentials_Validate(t *testing.T) {
	testCases := []struct {
		name  string
		creds domain.Credentials
		ok    bool
	}{
		{"both set", domain.Credentials{Username: "u", Password: "p"}, true},
		{"empty username", domain.Credentials{Password: "p"}, false},
		{"blank username", domain.Credentials{Username: "  ", Password: "p"}, false},
		{"empty password", domain.Credentials{Username: "u"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrCredentialsMissing) {
				t.Errorf("expected ErrCredentialsMissing, got %v", err)
			}
		})
	}
}

func TestClassify_UnknownErrorBecomesScraperError(t *testing.T) {
	cause := errors.New("socket hang up")

	got := domain.Classify(cause)

	if got.Kind != domain.ErrScraper {
		t.Errorf("kind: got %v, want ErrScraper", got.Kind.Code)
	}
	if got.Message != "socket hang up" {
		t.Errorf("message: got %q, want original message", got.Message)
	}
	if !errors.Is(got, cause) {
		t.Error("cause should stay reachable through errors.Is")
	}
}

func TestClassify_KeepsClassifiedErrors(t *testing.T) {
	inner := domain.Wrap(domain.ErrLoginFailed, errors.New("timeout"), "")
	wrapped := fmt.Errorf("crawl: %w", inner)

	got := domain.Classify(wrapped)

	if got != inner {
		t.Errorf("got %v, want the inner classified error", got)
	}
	if got.Message != "failed to log in to the forum" {
		t.Errorf("message: got %q", got.Message)
	}
}

func TestClassify_BareKind(t *testing.T) {
	got := domain.Classify(domain.ErrBadRequest)

	if got.Record() != (domain.Record{Message: "the forum rejected the search query", Status: http.StatusBadRequest, Code: "BAD_REQUEST"}) {
		t.Errorf("record: got %+v", got.Record())
	}
}

func TestClassify_Nil(t *testing.T) {
	if domain.Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestReclassify_InnerClassificationWins(t *testing.T) {
	inner := domain.Wrap(domain.ErrCredentialsMissing, nil, "")

	got := domain.Reclassify(domain.ErrLoginFailed, inner, "login failed")

	if !errors.Is(got, domain.ErrCredentialsMissing) {
		t.Errorf("expected ErrCredentialsMissing, got %v", got)
	}
	if errors.Is(got, domain.ErrLoginFailed) {
		t.Error("should not be reclassified as ErrLoginFailed")
	}
}

func TestError_IsMatchesKindSentinel(t *testing.T) {
	err := domain.Wrap(domain.ErrNavigationFailed, errors.New("deadline"), "navigating to %s", "https://forum")

	if !errors.Is(err, domain.ErrNavigationFailed) {
		t.Error("errors.Is should match the kind")
	}
	if errors.Is(err, domain.ErrSearchFailed) {
		t.Error("errors.Is should not match another kind")
	}
	if err.Error() != "navigating to https://forum: deadline" {
		t.Errorf("Error(): got %q", err.Error())
	}
}

func TestCrawlResult_CommentCount(t *testing.T) {
	r := &domain.CrawlResult{Evidence: []domain.Evidence{
		{Comments: make([]domain.Comment, 2)},
		{Comments: nil},
		{Comments: make([]domain.Comment, 3)},
	}}
	if r.CommentCount() != 5 {
		t.Errorf("CommentCount: got %d, want 5", r.CommentCount())
	}
}
