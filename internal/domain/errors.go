package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. Kinds are sentinels: errors.Is(err, ErrLoginFailed)
// holds for every *Error of that kind.
type Kind struct {
	Code   string
	Status int
	text   string
}

func (k *Kind) Error() string { return k.text }

func newKind(code string, status int, text string) *Kind {
	return &Kind{Code: code, Status: status, text: text}
}

var (
	// ErrConfigMissing is returned when a required configuration value is absent.
	ErrConfigMissing = newKind("CONFIG_MISSING", http.StatusInternalServerError, "required configuration value is missing")

	// ErrCredentialsMissing is returned when username or password is empty at login time.
	ErrCredentialsMissing = newKind("CREDENTIALS_MISSING", http.StatusInternalServerError, "forum credentials are missing")

	// ErrLoginFailed covers any failure while authenticating on the forum.
	ErrLoginFailed = newKind("LOGIN_FAILED", http.StatusInternalServerError, "failed to log in to the forum")

	// ErrNavigationFailed is returned when a bounded navigation or settle wait fails.
	ErrNavigationFailed = newKind("NAVIGATION_FAILED", http.StatusInternalServerError, "failed to navigate the forum")

	// ErrSearchFailed covers failures while typing or submitting the search.
	ErrSearchFailed = newKind("SEARCH_FAILED", http.StatusInternalServerError, "failed to submit the search")

	// ErrBadRequest is returned when the forum rejects the search query.
	ErrBadRequest = newKind("BAD_REQUEST", http.StatusBadRequest, "the forum rejected the search query")

	// ErrDataRetrievalFailed is returned when the post list cannot be extracted.
	ErrDataRetrievalFailed = newKind("DATA_RETRIEVAL_FAILED", http.StatusInternalServerError, "failed to retrieve posts")

	// ErrScraper is the catch-all for otherwise unclassified failures.
	ErrScraper = newKind("SCRAPER_ERROR", http.StatusInternalServerError, "scraper error")

	// ErrInvalidSearchText is returned by the front door for a missing or short query.
	ErrInvalidSearchText = newKind("INVALID_SEARCH_TEXT", http.StatusBadRequest, "search text must have at least 3 characters")

	// ErrUnauthorized is returned when the request token does not match.
	ErrUnauthorized = newKind("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")

	// ErrRateLimited is returned when a client exceeds its crawl budget.
	ErrRateLimited = newKind("RATE_LIMITED", http.StatusTooManyRequests, "rate limit exceeded")

	// ErrNotFound is returned for unknown routes.
	ErrNotFound = newKind("NOT_FOUND", http.StatusNotFound, "not found")

	// ErrMethodNotAllowed is returned when a route exists but not for the request method.
	ErrMethodNotAllowed = newKind("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method not allowed")
)

// Error is a classified failure. Message is safe to show to callers;
// Err is the underlying cause and is only logged.
type Error struct {
	Kind    *Kind
	Message string
	Err     error
}

// Wrap classifies err under kind. An empty format uses the kind's default text.
func Wrap(kind *Kind, err error, format string, args ...any) *Error {
	msg := kind.text
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Record is the uniform wire shape of a classified failure.
type Record struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
}

// Record returns the caller-facing triple.
func (e *Error) Record() Record {
	return Record{Message: e.Message, Status: e.Kind.Status, Code: e.Kind.Code}
}

// Classify returns err as an *Error. Bare kinds get their default message,
// anything else becomes ErrScraper with the original message preserved.
// A nil err returns nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	var kind *Kind
	if errors.As(err, &kind) {
		return &Error{Kind: kind, Message: kind.text}
	}
	return &Error{Kind: ErrScraper, Message: err.Error(), Err: err}
}

// Reclassify keeps an already classified error and wraps anything else
// under kind. Step boundaries use it so inner classifications win.
func Reclassify(kind *Kind, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return Wrap(kind, err, format, args...)
}
