package extract

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML parses a page and applies spec to it. base resolves Href
// fields and may be nil.
func FromHTML(r io.Reader, base *url.URL, spec Spec) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return Apply(doc, base, spec), nil
}

// Apply runs spec against a parsed document. It returns an empty slice
// when no rows match.
func Apply(doc *goquery.Document, base *url.URL, spec Spec) []Record {
	if spec.Rows == "" {
		return []Record{readRow(doc.Selection, base, spec.Fields)}
	}

	records := make([]Record, 0)
	doc.Find(spec.Rows).Each(func(_ int, row *goquery.Selection) {
		records = append(records, readRow(row, base, spec.Fields))
	})
	return records
}

func readRow(row *goquery.Selection, base *url.URL, fields []Field) Record {
	rec := make(Record, len(fields))
	for _, f := range fields {
		matches := row
		if f.Selector != "" {
			matches = row.Find(f.Selector)
		}
		if !f.All {
			matches = matches.First()
		}

		var values []string
		matches.Each(func(_ int, el *goquery.Selection) {
			if v, ok := readValue(el, base, f); ok {
				values = append(values, v)
			}
		})
		if len(values) > 0 {
			rec[f.Name] = values
		}
	}
	return rec
}

func readValue(el *goquery.Selection, base *url.URL, f Field) (string, bool) {
	switch f.Kind {
	case Attr:
		return el.Attr(f.Attr)
	case Href:
		href, ok := el.Attr("href")
		if !ok {
			return "", false
		}
		return resolve(base, href), true
	case Block:
		return cleanTextPreserveNewlines(el.Text()), true
	default:
		return cleanText(el.Text()), true
	}
}

// resolve makes href absolute the way a browser's anchor.href does.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	horizontalRun = regexp.MustCompile(`[^\S\n]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
)

// cleanText removes extra whitespace and trims the text.
func cleanText(text string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// cleanTextPreserveNewlines normalizes horizontal whitespace but preserves line breaks.
func cleanTextPreserveNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	// Collapse multiple newlines to max 2 (paragraph separation)
	text = blankLineRun.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
