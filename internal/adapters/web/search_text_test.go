package web_test

import (
	"errors"
	"testing"

	"forumintel/internal/adapters/web"
	"forumintel/internal/domain"
)

func TestParseSearchText_Valid(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
	}{
		{"acme", "acme"},
		{"acme%20corp", "acme corp"},
		{"%20%20abc%20", "abc"},
		{"%C3%A7%C3%A3o", "ção"},
	}
	for _, tc := range testCases {
		// Act
		got, err := web.ParseSearchText(tc.raw)

		// Assert
		if err != nil {
			t.Errorf("ParseSearchText(%q) unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("ParseSearchText(%q): got %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseSearchText_Invalid_ReturnsInvalidSearchText(t *testing.T) {
	for _, raw := range []string{"", "ab", "%20a%20", "%zz"} {
		_, err := web.ParseSearchText(raw)

		if !errors.Is(err, domain.ErrInvalidSearchText) {
			t.Errorf("ParseSearchText(%q): got %v, want INVALID_SEARCH_TEXT", raw, err)
		}
	}
}
