// Package normalize filters degenerate grammar entries and expands compound
// headwords into one record per form.
package normalize

import (
	"errors"
	"strings"

	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
)

// PlaceholderDefinition is what the site renders when a point has no definition.
const PlaceholderDefinition = "()"

var (
	// ErrEmptySubject reports an entry whose headword stripped down to nothing.
	ErrEmptySubject = errors.New("empty subject")
	// ErrPlaceholderDefinition reports an entry without a usable definition.
	ErrPlaceholderDefinition = errors.New("placeholder definition")
)

// Filter reports why entry should be dropped before expansion, or nil when it
// is kept.
func Filter(entry grammar.Entry) error {
	if strings.TrimSpace(entry.Subject) == "" {
		return ErrEmptySubject
	}
	def := strings.TrimSpace(entry.Definition)
	if def == "" || def == PlaceholderDefinition {
		return ErrPlaceholderDefinition
	}
	return nil
}

// Expand splits a compound subject on the katakana middle dot (U+30FB) and
// its half-width form (U+FF65). Empty parts are dropped. A subject with no
// usable part still yields a single record carrying the original subject.
func Expand(entry grammar.Entry) []grammar.ExpandedEntry {
	parts := strings.FieldsFunc(entry.Subject, isDivider)
	out := make([]grammar.ExpandedEntry, 0, max(len(parts), 1))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		e := entry
		e.Subject = part
		out = append(out, grammar.ExpandedEntry{Entry: e})
	}
	if len(out) == 0 {
		out = append(out, grammar.ExpandedEntry{Entry: entry})
	}
	return out
}

// ExpandAll expands every entry in order.
func ExpandAll(entries []grammar.Entry) []grammar.ExpandedEntry {
	var out []grammar.ExpandedEntry
	for _, entry := range entries {
		out = append(out, Expand(entry)...)
	}
	return out
}

func isDivider(r rune) bool {
	return r == '・' || r == '･'
}
