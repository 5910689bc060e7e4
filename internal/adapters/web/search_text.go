package web

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"forumintel/internal/domain"
)

// MinSearchTextLength is the shortest keyword the forum search accepts.
const MinSearchTextLength = 3

// ParseSearchText decodes and validates the keyword from the request path.
// Returns domain.ErrInvalidSearchText if it is missing or too short.
func ParseSearchText(raw string) (string, error) {
	text, err := url.PathUnescape(raw)
	if err != nil {
		return "", domain.Wrap(domain.ErrInvalidSearchText, err, "")
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinSearchTextLength {
		return "", domain.Wrap(domain.ErrInvalidSearchText, nil, "")
	}
	return text, nil
}
