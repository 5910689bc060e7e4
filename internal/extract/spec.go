// Package extract interprets selector-driven extraction specs against
// rendered page HTML. It keeps page structure out of the crawl logic:
// the crawler asks for named fields, the spec says where they live.
package extract

import (
	"errors"
	"fmt"
)

// Kind selects how a field value is read from a matched element.
type Kind string

const (
	// Text is the element text with whitespace collapsed.
	Text Kind = "text"
	// Block is the element text with line breaks kept.
	Block Kind = "block"
	// Attr is the raw value of Field.Attr.
	Attr Kind = "attr"
	// Href is the href attribute resolved against the page URL.
	Href Kind = "href"
)

// Field maps one named value to a selector inside a row.
type Field struct {
	Name string `yaml:"name"`
	// Selector is relative to the row. Empty means the row element itself.
	Selector string `yaml:"selector"`
	Kind     Kind   `yaml:"kind"`
	Attr     string `yaml:"attr"`
	// All collects every match instead of the first one.
	All bool `yaml:"all"`
}

// Spec describes a structured read of the current page.
type Spec struct {
	// Rows selects the repeated elements. Empty treats the whole
	// document as a single row.
	Rows   string  `yaml:"rows"`
	Fields []Field `yaml:"fields"`
}

// ErrInvalidSpec is returned by Validate.
var ErrInvalidSpec = errors.New("invalid extraction spec")

// Validate checks that every field is well formed.
func (s Spec) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidSpec)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field without name", ErrInvalidSpec)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSpec, f.Name)
		}
		seen[f.Name] = true

		switch f.Kind {
		case Text, Block, Href, "":
		case Attr:
			if f.Attr == "" {
				return fmt.Errorf("%w: field %q needs attr", ErrInvalidSpec, f.Name)
			}
		default:
			return fmt.Errorf("%w: field %q has unknown kind %q", ErrInvalidSpec, f.Name, f.Kind)
		}
	}
	return nil
}

// Record holds the values found for one row. A field whose element or
// attribute was absent has no entry.
type Record map[string][]string

// First returns the first value of a field.
func (r Record) First(name string) (string, bool) {
	values, ok := r[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// String returns the first value, or "" when absent.
func (r Record) String(name string) string {
	v, _ := r.First(name)
	return v
}

// Ptr returns the first value, or nil when absent.
func (r Record) Ptr(name string) *string {
	v, ok := r.First(name)
	if !ok {
		return nil
	}
	return &v
}

// All returns every value of a field.
func (r Record) All(name string) []string {
	return r[name]
}
