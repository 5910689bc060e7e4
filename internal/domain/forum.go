// Package domain contains the core business entities and rules.
package domain

import "strings"

// Credentials are the forum account used to authenticate a crawl.
// They must never be logged.
type Credentials struct {
	Username string
	Password string
}

// Validate reports ErrCredentialsMissing when either value is empty.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return Wrap(ErrCredentialsMissing, nil, "forum username is not configured")
	}
	if c.Password == "" {
		return Wrap(ErrCredentialsMissing, nil, "forum password is not configured")
	}
	return nil
}

// Post is a single search hit on the forum results page.
// URL is the natural key.
type Post struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Author  string   `json:"author"`
	Date    string   `json:"date"`
	Replies int      `json:"replies"`
	Text    string   `json:"text"`   // Snippet shown on the results page
	Tags    string   `json:"tags"`   // Labels rendered as [a][b]
	Labels  []string `json:"labels"` // Thread prefix labels, in title order
}

// RenderTags renders labels as "[a][b]", or "" when there are none.
func RenderTags(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return "[" + strings.Join(labels, "][") + "]"
}

// Comment is one message of a thread. A nil field means the
// source element was absent on the page.
type Comment struct {
	Author *string `json:"author"`
	Date   *string `json:"date"`
	Text   *string `json:"text"`
	URL    *string `json:"url"`
}

// Evidence pairs a post with every comment collected from its thread.
type Evidence struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// CrawlResult is the outcome of one crawl, in results-page order.
type CrawlResult struct {
	Query    string
	Evidence []Evidence
}

// CommentCount returns the number of comments across all evidence.
func (r *CrawlResult) CommentCount() int {
	n := 0
	for _, e := range r.Evidence {
		n += len(e.Comments)
	}
	return n
}
