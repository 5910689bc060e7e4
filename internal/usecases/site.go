package usecases

import (
	"time"

	"forumintel/internal/extract"
)

// LoginSelectors locate the login overlay controls.
type LoginSelectors struct {
	Trigger  string `yaml:"trigger"`
	Overlay  string `yaml:"overlay"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Submit   string `yaml:"submit"`
}

// SearchSelectors locate the search form and its outcome markers.
type SearchSelectors struct {
	Path          string `yaml:"path"`
	Input         string `yaml:"input"`
	Grouped       string `yaml:"grouped"`
	PostsOnly     string `yaml:"posts_only"`
	Submit        string `yaml:"submit"`
	ErrorOverlay  string `yaml:"error_overlay"`
	ResultsMarker string `yaml:"results_marker"`
}

// Site describes the page structure of the target forum.
//
// The posts spec must provide the fields author, title, url, snippet,
// date, meta and labels; the comments spec author, date, text and url;
// the pagination spec a single field named last.
type Site struct {
	Login      LoginSelectors  `yaml:"login"`
	Search     SearchSelectors `yaml:"search"`
	Posts      extract.Spec    `yaml:"posts"`
	Comments   extract.Spec    `yaml:"comments"`
	Pagination extract.Spec    `yaml:"pagination"`
}

// SiteSource yields the current site description. Implementations may
// reload it; a crawl takes one snapshot at start.
type SiteSource interface {
	Site() Site
}

// StaticSite is a SiteSource that never changes.
type StaticSite Site

// Site returns the fixed description.
func (s StaticSite) Site() Site { return Site(s) }

// Timeouts bound every suspending step of a crawl.
type Timeouts struct {
	Navigation time.Duration
	Rejection  time.Duration
}

// DefaultTimeouts returns 40s for navigation waits and 3s for the
// search-rejection check.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation: 40 * time.Second,
		Rejection:  3 * time.Second,
	}
}
